package hub

// Outbound event names for the gateway→client JSON envelope.
const (
	EventSessionReady    = "session_ready"
	EventAliasResult     = "alias_result"
	EventNetworkSnapshot = "network_snapshot"
	EventChannelEvent    = "channel_event"
	EventMessageEvent    = "message_event"
	EventPresenceEvent   = "presence_event"
	EventModerationEvent = "moderation_event"
	EventBotEvent        = "bot_event"
	EventHistorySnapshot = "history_snapshot"
	EventServerError     = "server_error"
)

// channel_event.type values.
const (
	ChannelCreated       = "CREATED"
	ChannelJoined        = "JOINED"
	ChannelParted        = "PARTED"
	ChannelTopicChanged  = "TOPIC_CHANGED"
	ChannelModeChanged   = "MODE_CHANGED"
	ChannelInvited       = "INVITED"
	ChannelKicked        = "KICKED"
	ChannelMemberUpdated = "MEMBER_UPDATED"
)

// message_event.type values.
const (
	MessageCreated         = "CREATED"
	MessageEdited          = "EDITED"
	MessageDeleted         = "DELETED"
	MessageReactionAdded   = "REACTION_ADDED"
	MessageReactionRemoved = "REACTION_REMOVED"
)

// server_error.code values.
const (
	ErrBadRequest       = "BAD_REQUEST"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrAliasInUse       = "ALIAS_IN_USE"
	ErrAliasInvalid     = "ALIAS_INVALID"
	ErrChannelNotFound  = "CHANNEL_NOT_FOUND"
	ErrForbidden        = "FORBIDDEN"
	ErrRateLimit        = "RATE_LIMIT"
	ErrInternal         = "INTERNAL"
)
