package dispatcher

import (
	"encoding/json"

	"github.com/google/uuid"

	"ircgateway/internal/color"
	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/session"
	"ircgateway/internal/store"
	"ircgateway/internal/validator"
)

func handleHelloDevice(c *hub.Client, raw json.RawMessage) {
	var p helloDevicePayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed hello_device payload")
		return
	}

	deviceID := p.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	device, err := st.UpsertDevice(deviceID, p.DevicePublicKey)
	if err != nil {
		sugar.Errorw("dispatcher: upsert device failed", "error", err)
		c.SendError(hub.ErrInternal, "could not register device")
		return
	}

	token, err := session.IssueToken(device.DeviceID, c.SessionID)
	if err != nil {
		sugar.Errorw("dispatcher: issuing resume token failed", "error", err)
		c.SendError(hub.ErrInternal, "could not issue resume token")
		return
	}

	if _, err := st.CreateSession(device.DeviceID, c.IP, token); err != nil {
		sugar.Errorw("dispatcher: create session failed", "error", err)
		c.SendError(hub.ErrInternal, "could not open session")
		return
	}
	c.SetIdentity(device.DeviceID, p.DevicePublicKey)

	resp := map[string]any{
		"sessionId":   c.SessionID,
		"deviceId":    device.DeviceID,
		"resumeToken": token,
	}
	if previousAlias, ok := st.AliasForDevice(device.DeviceID); ok {
		resp["previousAlias"] = previousAlias
	}
	_ = c.Send(hub.EventSessionReady, resp)
}

func handleClaimAlias(c *hub.Client, raw json.RawMessage) {
	if c.DeviceID == "" {
		c.SendError(hub.ErrUnauthorized, "hello_device must complete before claim_alias")
		return
	}
	var p claimAliasPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed claim_alias payload")
		return
	}

	alias, err := validator.Alias(p.Alias)
	if err != nil {
		c.SendError(hub.ErrAliasInvalid, err.Error())
		return
	}

	previous := c.GetAlias()
	if previous != "" && previous != alias {
		LeaveRoomsOnAliasChange(c, previous)
	}

	record, err := st.ClaimAlias(alias, c.DeviceID, c.SessionID, c.IP, p.ReclaimNonce)
	if err != nil {
		switch err {
		case store.ErrAliasInUse:
			c.SendError(hub.ErrAliasInUse, "alias is held by a live session")
		case store.ErrAliasUnauthorized:
			c.SendError(hub.ErrUnauthorized, "alias is registered to another device")
		default:
			sugar.Errorw("dispatcher: claim alias failed", "error", err)
			c.SendError(hub.ErrInternal, "could not claim alias")
		}
		return
	}

	c.SetAlias(record.Alias, record.ReclaimNonce)
	assignedColor := color.Assign(record.Alias, c.IP, colorsInUse())
	c.SetColor(assignedColor)
	hub.JoinRoom(c.SessionID, hub.AliasRoom(record.Alias))

	_ = c.Send(hub.EventAliasResult, map[string]any{
		"alias":        record.Alias,
		"reclaimNonce": record.ReclaimNonce,
		"color":        assignedColor,
	})

	broadcastPresence(record.Alias, "ONLINE", assignedColor)
	_ = c.Send(hub.EventNetworkSnapshot, buildNetworkSnapshot())

	if previous == "" {
		if err := JoinChannel(c, record.Alias, lobbyChannel); err != nil {
			sugar.Errorw("dispatcher: auto-join lobby failed", "error", err)
		}
	}
}

// lobbyChannel is auto-joined on a session's first successful alias claim.
const lobbyChannel = "#lobby"

// LeaveRoomsOnAliasChange is exported so commands (e.g. a future /nick) can
// reuse the same alias-room bookkeeping claim_alias performs.
func LeaveRoomsOnAliasChange(c *hub.Client, previousAlias string) {
	hub.LeaveRoom(c.SessionID, hub.AliasRoom(previousAlias))
	st.ReleaseAlias(previousAlias)
}

func colorsInUse() map[string]bool {
	inUse := make(map[string]bool)
	for _, a := range st.LiveAliases() {
		if c, ok := hub.Get(a.ActiveSessionID); ok {
			if col := c.GetColor(); col != "" {
				inUse[col] = true
			}
		}
	}
	return inUse
}

func broadcastPresence(alias, status, col string) {
	_ = hub.Broadcast(hub.PresenceRoom, hub.EventPresenceEvent, map[string]any{
		"alias":  alias,
		"status": status,
		"color":  col,
	})
}

func buildNetworkSnapshot() map[string]any {
	live := st.LiveAliases()
	aliases := make([]map[string]any, 0, len(live))
	for _, a := range live {
		entry := map[string]any{"alias": a.Alias, "status": "ONLINE"}
		if c, ok := hub.Get(a.ActiveSessionID); ok {
			entry["color"] = c.GetColor()
		}
		aliases = append(aliases, entry)
	}

	channels := st.ListChannels()
	chanList := make([]map[string]any, 0, len(channels))
	for _, ch := range channels {
		if hasMode(ch.Modes, models.ModeSecret) {
			continue
		}
		chanList = append(chanList, map[string]any{
			"name":    ch.Name,
			"topic":   ch.Topic,
			"members": st.MemberCount(ch.Name),
		})
	}

	return map[string]any{"aliases": aliases, "channels": chanList}
}

func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
