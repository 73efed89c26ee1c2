// Package models defines the domain shapes shared across the gateway: devices,
// aliases, sessions, channels, memberships, DM conversations, messages,
// moderation actions, bots, and audit events.
package models

import "time"

// Device is created on first hello_device and never destroyed.
type Device struct {
	DeviceID   string    `json:"deviceId"`
	PublicKey  string    `json:"publicKey"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// Alias is globally unique after normalization; reclaimable, never tombstoned.
type Alias struct {
	Alias           string    `json:"alias"`
	CurrentDeviceID string    `json:"currentDeviceId"`
	ActiveSessionID string    `json:"activeSessionId,omitempty"`
	LastIP          string    `json:"lastIp"`
	ClaimedAt       time.Time `json:"claimedAt"`
	ReclaimNonce    string    `json:"reclaimNonce"`
}

// Session is one-to-one with a live connection; the row persists after close.
type Session struct {
	SessionID      string     `json:"sessionId"`
	DeviceID       string     `json:"deviceId"`
	Alias          string     `json:"alias,omitempty"`
	IP             string     `json:"ip"`
	ConnectedAt    time.Time  `json:"connectedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
	ResumeToken    string     `json:"resumeToken"`
}

// Mode flags a channel may carry. Only the six listed below are legal.
const (
	ModeInviteOnly = "+i"
	ModeModerated  = "+m"
	ModeSecret     = "+n"
	ModeTopicLock  = "+t"
	ModeKeyed      = "+k"
	ModeLimit      = "+l"
)

// Channel is born on first join by any alias; never auto-destroyed.
type Channel struct {
	ChannelID  string    `json:"channelId"`
	Name       string    `json:"name"`
	Topic      string    `json:"topic"`
	Modes      []string  `json:"modes"`
	OwnerAlias string    `json:"ownerAlias"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Role is a strict total order: OWNER(5) > ADMIN(4) > OP(3) > VOICE(2) > MEMBER(1).
type Role int

const (
	RoleNone   Role = 0
	RoleMember Role = 1
	RoleVoice  Role = 2
	RoleOp     Role = 3
	RoleAdmin  Role = 4
	RoleOwner  Role = 5
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "OWNER"
	case RoleAdmin:
		return "ADMIN"
	case RoleOp:
		return "OP"
	case RoleVoice:
		return "VOICE"
	case RoleMember:
		return "MEMBER"
	default:
		return "NONE"
	}
}

// Membership is keyed by (channel, alias).
type Membership struct {
	Channel    string     `json:"channel"`
	Alias      string     `json:"alias"`
	Role       Role       `json:"role"`
	JoinedAt   time.Time  `json:"joinedAt"`
	MutedUntil *time.Time `json:"mutedUntil,omitempty"`
	IsBanned   bool       `json:"isBanned"`
}

// DmConversation identity is deterministic from the sorted alias pair: AliasA < AliasB.
type DmConversation struct {
	ConvoID   string    `json:"convoId"`
	AliasA    string    `json:"aliasA"`
	AliasB    string    `json:"aliasB"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageKind tags the three message varieties this gateway recognizes.
type MessageKind string

const (
	KindText   MessageKind = "TEXT"
	KindAction MessageKind = "ACTION"
	KindNotice MessageKind = "NOTICE"
)

// ScopeKind tags where a message lives.
type ScopeKind string

const (
	ScopeChannel ScopeKind = "channel"
	ScopeDM      ScopeKind = "dm"
	ScopeThread  ScopeKind = "thread"
)

// Scope identifies where a message lives: channel, DM, or thread.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	Channel  string    `json:"channel,omitempty"`
	ConvoID  string    `json:"convoId,omitempty"`
	ThreadID string    `json:"threadId,omitempty"`
}

// Key renders a scope into the flat string used for scope-indexed history lookups.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeChannel:
		return "channel:" + s.Channel
	case ScopeDM:
		return "dm:" + s.ConvoID
	case ScopeThread:
		return "thread:" + s.ThreadID
	default:
		return ""
	}
}

// EncryptedPayload is an opaque DM envelope. The gateway never inspects its bytes.
type EncryptedPayload struct {
	Algorithm             string `json:"algorithm"`
	Nonce                 string `json:"nonce"`
	Ciphertext            string `json:"ciphertext"`
	SenderPublicKey       string `json:"senderPublicKey"`
	RecipientEncryptedKey string `json:"recipientEncryptedKey"`
	SenderEncryptedKey    string `json:"senderEncryptedKey"`
}

// Reaction groups the aliases that applied one emoji to a message.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	Aliases []string `json:"aliases"`
}

// Message is born on insert; soft-deleted by author or retention sweep.
//
// Invariant: exactly one of Body or EncryptedPayload is present.
type Message struct {
	MessageID        string            `json:"messageId"`
	Scope            Scope             `json:"scope"`
	SenderAlias      string            `json:"senderAlias"`
	SenderDeviceID   string            `json:"senderDeviceId"`
	Kind             MessageKind       `json:"kind"`
	Body             string            `json:"body,omitempty"`
	EncryptedPayload *EncryptedPayload `json:"encryptedPayload,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ReplyTo          string            `json:"replyTo,omitempty"`
	ThreadID         string            `json:"threadId,omitempty"`
	Reactions        []Reaction        `json:"reactions"`
	DeletedAt        *time.Time        `json:"deletedAt,omitempty"`
}

// ActionType enumerates moderation actions.
type ActionType string

const (
	ActionKick    ActionType = "KICK"
	ActionBan     ActionType = "BAN"
	ActionUnban   ActionType = "UNBAN"
	ActionMute    ActionType = "MUTE"
	ActionUnmute  ActionType = "UNMUTE"
	ActionRoleSet ActionType = "ROLE_SET"
)

// ModerationAction is an append-only audit row for moderation effects.
type ModerationAction struct {
	ActionID    string     `json:"actionId"`
	ActorAlias  string     `json:"actorAlias"`
	TargetAlias string     `json:"targetAlias"`
	Channel     string     `json:"channel"`
	ActionType  ActionType `json:"actionType"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Bot describes an invocable bot-runner identity; invocation is supported,
// the runner itself is not implemented here.
type Bot struct {
	BotID           string    `json:"botId"`
	Name            string    `json:"name"`
	Version         string    `json:"version"`
	Permissions     []string  `json:"permissions"`
	EnabledChannels []string  `json:"enabledChannels"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AuditEvent is a generic append-only log row for category-tagged side effects.
type AuditEvent struct {
	EventID   string    `json:"eventId"`
	Category  string    `json:"category"`
	Actor     string    `json:"actor"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConfigFile mirrors the environment-derived configuration.
type ConfigFile struct {
	Host              string
	Port              string
	StatePath         string
	AllowedOrigins    []string
	RetentionDays     int
	SnowflakeWorkerID int64
	JwtSecret         string
	SelfContained     bool
	RedisAddr         string
}
