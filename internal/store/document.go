package store

import (
	"ircgateway/internal/models"
)

// document is the exact shape of the persisted JSON file. Keys are a
// one-to-one mirror of the in-memory maps/slices so Save/Load is a plain
// marshal/unmarshal with no translation layer.
type document struct {
	Devices          map[string]*models.Device                `json:"devices"`
	Aliases          map[string]*models.Alias                 `json:"aliases"`
	Sessions         map[string]*models.Session                `json:"sessions"`
	Channels         map[string]*models.Channel                `json:"channels"`
	ChannelMembers   map[string]map[string]*models.Membership  `json:"channelMembers"`
	DmConversations  map[string]*models.DmConversation         `json:"dmConversations"`
	Messages         []*models.Message                         `json:"messages"`
	ModerationActions []*models.ModerationAction                `json:"moderationActions"`
	BotApps          []*models.Bot                              `json:"botApps"`
	AuditEvents      []*models.AuditEvent                       `json:"auditEvents"`
}

func emptyDocument() *document {
	return &document{
		Devices:          make(map[string]*models.Device),
		Aliases:          make(map[string]*models.Alias),
		Sessions:         make(map[string]*models.Session),
		Channels:         make(map[string]*models.Channel),
		ChannelMembers:   make(map[string]map[string]*models.Membership),
		DmConversations:  make(map[string]*models.DmConversation),
		Messages:         nil,
		ModerationActions: nil,
		BotApps:          nil,
		AuditEvents:      nil,
	}
}
