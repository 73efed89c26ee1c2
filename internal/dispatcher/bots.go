package dispatcher

import (
	"encoding/json"
	"errors"
	"strings"

	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/validator"
)

// errBotNotMember distinguishes the one InvokeBot failure that should map to
// ErrForbidden rather than ErrBadRequest in the inbound event handler.
var errBotNotMember = errors.New("not a member of this channel")

// handleBotInvoke runs a registered bot's command. Only the pre-seeded
// "echo" bot is implemented; any other botId is reported as not found
// rather than silently ignored.
func handleBotInvoke(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p botInvokePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed bot_invoke payload")
		return
	}
	if _, err := InvokeBot(alias, p.BotID, p.Channel, p.Command, p.Args); err != nil {
		if errors.Is(err, errBotNotMember) {
			c.SendError(hub.ErrForbidden, err.Error())
		} else {
			c.SendError(hub.ErrBadRequest, err.Error())
		}
	}
}

// InvokeBot runs a registered bot's command and reports the result two ways:
// a live bot_event broadcast for immediately-connected viewers, and a
// NOTICE-kind Message mirrored into the channel's stored history so the
// reply survives history_fetch/replay like any other message. Shared by the
// inbound bot_invoke handler and command_exec's /bot run.
func InvokeBot(alias, botID, rawChannel, command string, args []string) (string, error) {
	bot, ok := st.Bot(botID)
	if !ok {
		return "", errors.New("unknown bot: " + botID)
	}

	var reply string
	switch bot.Name {
	case "echo":
		reply = strings.Join(args, " ")
	default:
		return "", errors.New("bot has no runnable command: " + bot.Name)
	}

	channel, err := validator.Channel(rawChannel)
	if err != nil {
		return "", err
	}
	if _, ok := st.Membership(channel, alias); !ok {
		return "", errBotNotMember
	}

	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventBotEvent, map[string]any{
		"botId":   bot.BotID,
		"botName": bot.Name,
		"channel": channel,
		"invoker": alias,
		"command": command,
		"reply":   reply,
	})

	mirrored := &models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: channel},
		SenderAlias: bot.Name,
		Kind:        models.KindNotice,
		Body:        reply,
	}
	if inserted, err := st.InsertMessage(mirrored); err != nil {
		sugar.Errorw("dispatcher: insert bot reply message failed", "error", err)
	} else {
		_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventMessageEvent, map[string]any{
			"type":    hub.MessageCreated,
			"message": inserted,
		})
	}

	if _, err := st.InsertAuditEvent("bot_invoke", alias, map[string]any{
		"botId": bot.BotID, "channel": channel, "command": command,
	}); err != nil {
		sugar.Errorw("dispatcher: audit event insert failed", "error", err)
	}

	return reply, nil
}
