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

func handleJoinChannel(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	if !checkRateLimit(c) {
		return
	}
	var p joinChannelPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed join_channel payload")
		return
	}
	if err := JoinChannel(c, alias, p.Channel); err != nil {
		c.SendError(hub.ErrBadRequest, err.Error())
	}
}

// JoinChannel is the shared join primitive used by the inbound event handler
// and by command_exec's /join. Creating the channel if it doesn't exist
// grants alias OWNER, and the channel's recorded owner gets OWNER again when
// re-joining after a part; otherwise the new membership starts at MEMBER, unless
// the channel carries +i (invite-only), in which case only an existing
// membership row (left over from a prior invite) admits the alias.
func JoinChannel(c *hub.Client, alias, rawChannel string) error {
	channel, err := validator.Channel(rawChannel)
	if err != nil {
		return fmt.Errorf("%s", err.Error())
	}

	ch, created, err := st.EnsureChannel(channel, alias)
	if err != nil {
		return err
	}

	defaultRole := models.RoleMember
	if created || ch.OwnerAlias == alias {
		defaultRole = models.RoleOwner
	}

	if !created && hasMode(ch.Modes, models.ModeInviteOnly) {
		if _, invited := st.Membership(channel, alias); !invited {
			c.SendError(hub.ErrForbidden, "channel is invite-only")
			return nil
		}
	}

	if m, exists := st.Membership(channel, alias); exists && m.IsBanned {
		c.SendError(hub.ErrForbidden, "banned from this channel")
		return nil
	}

	if _, err := st.UpsertMembership(channel, alias, defaultRole); err != nil {
		return err
	}

	hub.JoinRoom(c.SessionID, hub.ChannelRoom(channel))

	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelJoined,
		"channel": channel,
		"alias":   alias,
	})
	return nil
}

func handlePartChannel(c *hub.Client, raw json.RawMessage) {
	alias, ok := requireAlias(c)
	if !ok {
		return
	}
	var p partChannelPayload
	if !decode(raw, &p) {
		c.SendError(hub.ErrBadRequest, "malformed part_channel payload")
		return
	}
	channel, err := validator.Channel(p.Channel)
	if err != nil {
		c.SendError(hub.ErrBadRequest, err.Error())
		return
	}
	PartChannel(c, alias, channel, p.Reason)
}

// PartChannel removes alias's membership and leaves the fan-out room.
func PartChannel(c *hub.Client, alias, channel, reason string) {
	st.PartMembership(channel, alias)
	hub.LeaveRoom(c.SessionID, hub.ChannelRoom(channel))

	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelParted,
		"channel": channel,
		"alias":   alias,
		"reason":  validator.GenericText(reason),
	})
}

// SetTopic enforces +t (topic-lock: OP or above only) and broadcasts the change.
func SetTopic(c *hub.Client, alias, channel, topic string) error {
	if err := requireMembership(channel, alias); err != nil {
		return err
	}
	ch, ok := st.Channel(channel)
	if !ok {
		return fmt.Errorf("channel not found")
	}
	if hasMode(ch.Modes, models.ModeTopicLock) {
		m, _ := st.Membership(channel, alias)
		if m == nil || !rolemodel.HasAtLeast(m.Role, models.RoleOp) {
			return fmt.Errorf("topic is locked, OP or above required")
		}
	}
	st.SetTopic(channel, topic)
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelTopicChanged,
		"channel": channel,
		"alias":   alias,
		"topic":   topic,
	})
	return nil
}

// SetChannelMode requires ADMIN or above and broadcasts the resulting mode set.
func SetChannelMode(c *hub.Client, actorAlias, channel, mode string, set bool) error {
	switch mode {
	case models.ModeInviteOnly, models.ModeModerated, models.ModeSecret,
		models.ModeTopicLock, models.ModeKeyed, models.ModeLimit:
	default:
		return fmt.Errorf("unknown mode %s", mode)
	}
	if err := requireRole(channel, actorAlias, models.RoleAdmin); err != nil {
		return err
	}
	modes, ok := st.SetMode(channel, mode, set)
	if !ok {
		return fmt.Errorf("channel not found")
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelModeChanged,
		"channel": channel,
		"alias":   actorAlias,
		"modes":   modes,
	})
	return nil
}

// SetRole assigns targetAlias's role within channel, requiring the actor to be
// OP or above and to outrank the target's current role (preventing a
// same-level demotion fight). The granted role itself is not compared with
// the actor's role. Used by /op, /deop, /voice, /devoice.
func SetRole(actorAlias, channel, targetAlias string, role models.Role) error {
	actor, ok := st.Membership(channel, actorAlias)
	if !ok || !rolemodel.HasAtLeast(actor.Role, models.RoleOp) {
		return fmt.Errorf("OP or above required")
	}
	target, ok := st.Membership(channel, targetAlias)
	if !ok {
		return fmt.Errorf("target is not a member")
	}
	if target.Role >= actor.Role {
		return fmt.Errorf("cannot modify a role at or above your own")
	}
	if !st.SetMemberRole(channel, targetAlias, role) {
		return fmt.Errorf("could not set role")
	}
	if _, err := st.InsertModerationAction(&models.ModerationAction{
		ActorAlias: actorAlias, TargetAlias: targetAlias, Channel: channel,
		ActionType: models.ActionRoleSet,
	}); err != nil {
		sugar.Errorw("dispatcher: moderation audit insert failed", "error", err)
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelMemberUpdated,
		"channel": channel,
		"alias":   targetAlias,
		"role":    role.String(),
	})
	return nil
}

// Kick requires OP or above and above the target's role; it parts the target
// out (forcibly), disjoint from the target's own part_channel path.
func Kick(actorAlias, channel, targetAlias, reason string) error {
	actor, ok := st.Membership(channel, actorAlias)
	if !ok || !rolemodel.HasAtLeast(actor.Role, models.RoleOp) {
		return fmt.Errorf("OP or above required")
	}
	target, ok := st.Membership(channel, targetAlias)
	if !ok {
		return fmt.Errorf("target is not a member")
	}
	if target.Role >= actor.Role {
		return fmt.Errorf("cannot kick a role at or above your own")
	}
	st.PartMembership(channel, targetAlias)
	if tc, ok := hub.Get(sessionForAlias(targetAlias)); ok {
		hub.LeaveRoom(tc.SessionID, hub.ChannelRoom(channel))
	}
	if _, err := st.InsertModerationAction(&models.ModerationAction{
		ActorAlias: actorAlias, TargetAlias: targetAlias, Channel: channel,
		ActionType: models.ActionKick, Reason: reason,
	}); err != nil {
		sugar.Errorw("dispatcher: moderation audit insert failed", "error", err)
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelKicked,
		"channel": channel,
		"alias":   targetAlias,
		"actor":   actorAlias,
		"reason":  reason,
	})
	return nil
}

// Ban requires OP or above; it sets the ban flag on the target's membership
// row (the row is kept) and, if the target is currently present, removes
// them from the room too.
func Ban(actorAlias, channel, targetAlias, reason string) error {
	return setBanFlag(actorAlias, channel, targetAlias, reason, true)
}

// Unban lifts a prior ban.
func Unban(actorAlias, channel, targetAlias string) error {
	return setBanFlag(actorAlias, channel, targetAlias, "", false)
}

func setBanFlag(actorAlias, channel, targetAlias, reason string, banned bool) error {
	actor, ok := st.Membership(channel, actorAlias)
	if !ok || !rolemodel.HasAtLeast(actor.Role, models.RoleOp) {
		return fmt.Errorf("OP or above required")
	}
	if !st.SetMemberBan(channel, targetAlias, banned) {
		return fmt.Errorf("target is not a member")
	}
	actionType := models.ActionUnban
	if banned {
		actionType = models.ActionBan
		if tc, ok := hub.Get(sessionForAlias(targetAlias)); ok {
			hub.LeaveRoom(tc.SessionID, hub.ChannelRoom(channel))
		}
	}
	if _, err := st.InsertModerationAction(&models.ModerationAction{
		ActorAlias: actorAlias, TargetAlias: targetAlias, Channel: channel,
		ActionType: actionType, Reason: reason,
	}); err != nil {
		sugar.Errorw("dispatcher: moderation audit insert failed", "error", err)
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventModerationEvent, map[string]any{
		"type":    actionType,
		"channel": channel,
		"alias":   targetAlias,
		"actor":   actorAlias,
		"reason":  reason,
	})
	return nil
}

// Mute requires OP or above and sets a mute expiring after duration.
func Mute(actorAlias, channel, targetAlias string, duration time.Duration) error {
	actor, ok := st.Membership(channel, actorAlias)
	if !ok || !rolemodel.HasAtLeast(actor.Role, models.RoleOp) {
		return fmt.Errorf("OP or above required")
	}
	if !st.SetMemberMute(channel, targetAlias, time.Now().Add(duration)) {
		return fmt.Errorf("target is not a member")
	}
	if _, err := st.InsertModerationAction(&models.ModerationAction{
		ActorAlias: actorAlias, TargetAlias: targetAlias, Channel: channel,
		ActionType: models.ActionMute,
	}); err != nil {
		sugar.Errorw("dispatcher: moderation audit insert failed", "error", err)
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventModerationEvent, map[string]any{
		"type": models.ActionMute, "channel": channel, "alias": targetAlias, "actor": actorAlias,
	})
	return nil
}

// Unmute clears a mute immediately.
func Unmute(actorAlias, channel, targetAlias string) error {
	actor, ok := st.Membership(channel, actorAlias)
	if !ok || !rolemodel.HasAtLeast(actor.Role, models.RoleOp) {
		return fmt.Errorf("OP or above required")
	}
	if !st.SetMemberMute(channel, targetAlias, time.Time{}) {
		return fmt.Errorf("target is not a member")
	}
	if _, err := st.InsertModerationAction(&models.ModerationAction{
		ActorAlias: actorAlias, TargetAlias: targetAlias, Channel: channel,
		ActionType: models.ActionUnmute,
	}); err != nil {
		sugar.Errorw("dispatcher: moderation audit insert failed", "error", err)
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventModerationEvent, map[string]any{
		"type": models.ActionUnmute, "channel": channel, "alias": targetAlias, "actor": actorAlias,
	})
	return nil
}

// Invite admits targetAlias past +i by seeding a MEMBER row without them
// having to pass the invite-only gate in JoinChannel themselves.
func Invite(actorAlias, channel, targetAlias string) error {
	if err := requireMembership(channel, actorAlias); err != nil {
		return err
	}
	if _, err := st.UpsertMembership(channel, targetAlias, models.RoleMember); err != nil {
		return err
	}
	_ = hub.Broadcast(hub.ChannelRoom(channel), hub.EventChannelEvent, map[string]any{
		"type":    hub.ChannelInvited,
		"channel": channel,
		"alias":   targetAlias,
		"actor":   actorAlias,
	})
	if tc, ok := hub.Get(sessionForAlias(targetAlias)); ok {
		_ = tc.Send(hub.EventChannelEvent, map[string]any{
			"type": hub.ChannelInvited, "channel": channel, "actor": actorAlias,
		})
	}
	return nil
}

func requireMembership(channel, alias string) error {
	if _, ok := st.Membership(channel, alias); !ok {
		return fmt.Errorf("not a member of %s", channel)
	}
	return nil
}

func requireRole(channel, alias string, min models.Role) error {
	m, ok := st.Membership(channel, alias)
	if !ok || !rolemodel.HasAtLeast(m.Role, min) {
		return fmt.Errorf("%s or above required", min.String())
	}
	return nil
}

// sessionForAlias finds the live session ID bound to alias, or "" if offline.
func sessionForAlias(alias string) string {
	a, ok := st.Alias(alias)
	if !ok {
		return ""
	}
	return a.ActiveSessionID
}
