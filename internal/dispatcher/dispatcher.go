package dispatcher

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/hub"
	"ircgateway/internal/store"
)

// CommandExecutor runs a slash-style command and reports back to c. It is
// supplied by internal/commands via Setup: commands imports dispatcher to
// call its primitives, so dispatcher cannot import commands back without a
// cycle — the same function-injection shape as hub.EventHandler.
type CommandExecutor func(c *hub.Client, raw, contextChannel string)

var (
	sugar         *zap.SugaredLogger
	st            *store.Store
	retentionDays int
	execCommand   CommandExecutor
)

// Setup wires the dispatcher's dependencies. Call before hub.Setup, since
// hub.Setup needs HandleEvent as its EventHandler.
func Setup(s *zap.SugaredLogger, storeHandle *store.Store, retention int, executor CommandExecutor) {
	sugar = s
	st = storeHandle
	retentionDays = retention
	execCommand = executor
}

// HandleEvent is the hub.EventHandler wired into hub.Setup: decode → (auth,
// authz, validate, rate-limit) → mutate Store → emit outbound events.
func HandleEvent(c *hub.Client, event string, payload json.RawMessage) {
	switch event {
	case "hello_device":
		handleHelloDevice(c, payload)
	case "claim_alias":
		handleClaimAlias(c, payload)
	case "command_exec":
		handleCommandExec(c, payload)
	case "join_channel":
		handleJoinChannel(c, payload)
	case "part_channel":
		handlePartChannel(c, payload)
	case "send_channel_message":
		handleSendChannelMessage(c, payload)
	case "send_dm_message":
		handleSendDmMessage(c, payload)
	case "react_toggle":
		handleReactToggle(c, payload)
	case "message_edit":
		handleMessageEdit(c, payload)
	case "message_delete":
		handleMessageDelete(c, payload)
	case "history_fetch":
		handleHistoryFetch(c, payload)
	case "typing_state":
		handleTypingState(c, payload)
	case "bot_invoke":
		handleBotInvoke(c, payload)
	default:
		c.SendError(hub.ErrBadRequest, "unrecognized event: "+event)
	}
}

// HandleDisconnect is called by internal/health's upgrade handler once the
// socket's ReadLoop returns, and by internal/wireadaptor when its line loop
// ends. It releases the alias, closes the session row,
// and lets Close() (already called by the write loop on error, or here on
// plain EOF) handle room teardown.
func HandleDisconnect(c *hub.Client) {
	alias := c.GetAlias()
	if alias != "" {
		st.ReleaseAlias(alias)
		c.SetStatus("offline")
		broadcastPresence(alias, "OFFLINE", c.GetColor())
	}
	st.CloseSession(c.SessionID)
	c.Close()
}

func requireAlias(c *hub.Client) (string, bool) {
	alias := c.GetAlias()
	if alias == "" {
		c.SendError(hub.ErrUnauthorized, "this action requires a claimed alias")
		return "", false
	}
	return alias, true
}

func checkRateLimit(c *hub.Client) bool {
	if !c.RateWindow.Allow(time.Now()) {
		c.SendError(hub.ErrRateLimit, "too many requests, slow down")
		return false
	}
	return true
}

func decode(payload json.RawMessage, v any) bool {
	if len(payload) == 0 {
		return true
	}
	return json.Unmarshal(payload, v) == nil
}
