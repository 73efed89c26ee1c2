package dispatcher

import (
	"encoding/json"
	"fmt"
	"time"

	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/rolemodel"
	"ircgateway/internal/validator"
)

func handleSendChannelMessage(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	if !checkRateLimit(c) {
		return
	}
	var p sendChannelMessagePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed send_channel_message payload")
		return
	}
	channel, err := validator.Channel(p.Channel)
	if err != nil {
		c.SendError(hub.ErrBadRequest, err.Error())
		return
	}

	kind := models.KindText
	if p.Kind == string(models.KindAction) {
		kind = models.KindAction
	}

	if err := SendChannelText(c, alias, channel, p.Body, kind, p.ReplyTo, p.ThreadID); err != nil {
		c.SendError(hub.ErrForbidden, err.Error())
	}
}

// SendChannelText validates, authorizes (membership, ban, mute, +m), inserts,
// and fans out a channel message. Shared by the inbound handler and by
// command_exec's /me.
func SendChannelText(c *hub.Client, alias, channel, rawBody string, kind models.MessageKind, replyTo, threadID string) error {
	body, err := validator.Body(rawBody)
	if err != nil {
		return err
	}

	m, ok := st.Membership(channel, alias)
	if !ok {
		return errNotMember(channel)
	}
	if m.IsBanned {
		return errBanned(channel)
	}
	if m.MutedUntil != nil && time.Now().Before(*m.MutedUntil) {
		return errMuted(channel)
	}
	if ch, ok := st.Channel(channel); ok && hasMode(ch.Modes, models.ModeModerated) {
		if !rolemodel.HasAtLeast(m.Role, models.RoleVoice) {
			return errModerated()
		}
	}

	msg := &models.Message{
		Scope:          models.Scope{Kind: models.ScopeChannel, Channel: channel},
		SenderAlias:    alias,
		SenderDeviceID: c.DeviceID,
		Kind:           kind,
		Body:           body,
		ReplyTo:        replyTo,
		ThreadID:       threadID,
	}
	inserted, err := st.InsertMessage(msg)
	if err != nil {
		sugar.Errorw("dispatcher: insert channel message failed", "error", err)
		return fmt.Errorf("could not send message")
	}

	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventMessageEvent, map[string]any{
		"type":    hub.MessageCreated,
		"message": inserted,
	})
	return nil
}

func errNotMember(channel string) error  { return fmt.Errorf("not a member of %s", channel) }
func errBanned(channel string) error     { return fmt.Errorf("banned from %s", channel) }
func errMuted(channel string) error      { return fmt.Errorf("muted in %s", channel) }
func errModerated() error                { return fmt.Errorf("channel is moderated, VOICE or above required") }

func handleSendDmMessage(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	if !checkRateLimit(c) {
		return
	}
	var p sendDmMessagePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed send_dm_message payload")
		return
	}
	target, err := validator.Alias(p.TargetAlias)
	if err != nil {
		c.SendError(hub.ErrBadRequest, err.Error())
		return
	}
	if p.EncryptedPayload == nil {
		c.SendError(hub.ErrBadRequest, "encryptedPayload is required")
		return
	}
	if _, ok := st.Alias(target); !ok {
		c.SendError(hub.ErrBadRequest, "unknown target alias")
		return
	}

	convo, err := st.GetOrCreateDmConversation(alias, target)
	if err != nil {
		sugar.Errorw("dispatcher: get-or-create dm conversation failed", "error", err)
		c.SendError(hub.ErrInternal, "could not open conversation")
		return
	}

	msg := &models.Message{
		Scope:            models.Scope{Kind: models.ScopeDM, ConvoID: convo.ConvoID},
		SenderAlias:      alias,
		SenderDeviceID:   c.DeviceID,
		Kind:             models.KindText,
		EncryptedPayload: p.EncryptedPayload,
	}
	inserted, err := st.InsertMessage(msg)
	if err != nil {
		sugar.Errorw("dispatcher: insert dm message failed", "error", err)
		c.SendError(hub.ErrInternal, "could not send message")
		return
	}

	_ = hub.Broadcast(hub.AliasRoom(alias), hub.EventMessageEvent, map[string]any{"type": hub.MessageCreated, "message": inserted})
	_ = hub.Broadcast(hub.AliasRoom(target), hub.EventMessageEvent, map[string]any{"type": hub.MessageCreated, "message": inserted})
}

func handleReactToggle(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p reactTogglePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed react_toggle payload")
		return
	}
	msg, ok := st.FindMessage(p.MessageID)
	if !ok || msg.DeletedAt != nil {
		c.SendError(hub.ErrBadRequest, "message not found")
		return
	}
	added, ok := st.ToggleReaction(p.MessageID, alias, validator.GenericText(p.Emoji))
	if !ok {
		c.SendError(hub.ErrBadRequest, "message not found")
		return
	}
	eventType := hub.MessageReactionAdded
	if !added {
		eventType = hub.MessageReactionRemoved
	}
	broadcastToScope(msg.Scope, hub.EventMessageEvent, map[string]any{
		"type":      eventType,
		"messageId": p.MessageID,
		"alias":     alias,
		"emoji":     p.Emoji,
	})
}

func handleMessageEdit(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p messageEditPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed message_edit payload")
		return
	}
	msg, ok := st.FindMessage(p.MessageID)
	if !ok || msg.DeletedAt != nil {
		c.SendError(hub.ErrBadRequest, "message not found")
		return
	}
	if msg.SenderAlias != alias {
		c.SendError(hub.ErrForbidden, "only the author may edit this message")
		return
	}
	body, err := validator.Body(p.Body)
	if err != nil {
		c.SendError(hub.ErrBadRequest, err.Error())
		return
	}
	edited, _ := st.EditMessage(p.MessageID, body)
	broadcastToScope(msg.Scope, hub.EventMessageEvent, map[string]any{
		"type":    hub.MessageEdited,
		"message": edited,
	})
}

func handleMessageDelete(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p messageDeletePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed message_delete payload")
		return
	}
	msg, ok := st.FindMessage(p.MessageID)
	if !ok || msg.DeletedAt != nil {
		c.SendError(hub.ErrBadRequest, "message not found")
		return
	}
	authorized := msg.SenderAlias == alias
	if !authorized && msg.Scope.Kind == models.ScopeChannel {
		if m, ok := st.Membership(msg.Scope.Channel, alias); ok && rolemodel.HasAtLeast(m.Role, models.RoleOp) {
			authorized = true
		}
	}
	if !authorized {
		c.SendError(hub.ErrForbidden, "not authorized to delete this message")
		return
	}
	st.DeleteMessage(p.MessageID)
	broadcastToScope(msg.Scope, hub.EventMessageEvent, map[string]any{
		"type":      hub.MessageDeleted,
		"messageId": p.MessageID,
	})
}

func handleHistoryFetch(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p historyFetchPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed history_fetch payload")
		return
	}
	scope := p.Scope.toModel()
	if scope.Kind == models.ScopeChannel {
		if _, ok := st.Membership(scope.Channel, alias); !ok {
			c.SendError(hub.ErrForbidden, "not a member of "+scope.Channel)
			return
		}
	}

	const (
		defaultHistoryLimit = 50
		maxHistoryLimit     = 200
	)
	limit := defaultHistoryLimit
	if p.Limit != nil {
		limit = *p.Limit
		if limit <= 0 {
			limit = 1
		} else if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
	}
	var before time.Time
	if p.Before > 0 {
		before = time.UnixMilli(p.Before)
	}

	messages := st.ListHistory(scope.Key(), limit, before)
	_ = c.Send(hub.EventHistorySnapshot, map[string]any{
		"scope":    p.Scope,
		"messages": messages,
	})
}

func handleTypingState(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p typingStatePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed typing_state payload")
		return
	}
	scope := p.Scope.toModel()
	broadcastToScope(scope, hub.EventPresenceEvent, map[string]any{
		"alias":   alias,
		"typing":  p.Active,
		"scope":   p.Scope,
	})
}

// broadcastToScope fans out to the room matching a message or typing scope:
// the channel room for channel/thread scopes, or both participants' alias
// rooms for a DM scope (DMs have no shared room of their own).
func broadcastToScope(scope models.Scope, event string, payload any) {
	switch scope.Kind {
	case models.ScopeChannel, models.ScopeThread:
		_ = hub.Broadcast(hub.ChannelRoom(scope.Channel), event, payload)
	case models.ScopeDM:
		convo, ok := dmConvoByID(scope.ConvoID)
		if !ok {
			return
		}
		_ = hub.Broadcast(hub.AliasRoom(convo.AliasA), event, payload)
		_ = hub.Broadcast(hub.AliasRoom(convo.AliasB), event, payload)
	}
}

func dmConvoByID(convoID string) (*models.DmConversation, bool) {
	return st.DmConversation(convoID)
}
