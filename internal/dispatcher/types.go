// Package dispatcher routes decoded inbound events to handlers: it enforces
// authentication, authorization, validation, and rate limiting, then
// mutates internal/store and emits outbound events via internal/hub.
//
// Each handler follows the same validate-then-mutate-store-then-emit shape,
// structured around a tagged inbound/outbound envelope since a WebSocket
// connection is a persistent session rather than a request/response cycle.
package dispatcher

import (
	"ircgateway/internal/models"
)

// Inbound payload shapes, client→gateway.

type helloDevicePayload struct {
	DeviceID        string `json:"deviceId"`
	DevicePublicKey string `json:"devicePublicKey"`
}

type claimAliasPayload struct {
	Alias        string `json:"alias"`
	ReclaimNonce string `json:"reclaimNonce"`
}

type commandExecPayload struct {
	Raw            string `json:"raw"`
	ContextChannel string `json:"contextChannel"`
}

type joinChannelPayload struct {
	Channel string `json:"channel"`
}

type partChannelPayload struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

type sendChannelMessagePayload struct {
	Channel  string `json:"channel"`
	Body     string `json:"body"`
	Kind     string `json:"kind"`
	ReplyTo  string `json:"replyTo"`
	ThreadID string `json:"threadId"`
}

type sendDmMessagePayload struct {
	TargetAlias      string                   `json:"targetAlias"`
	EncryptedPayload *models.EncryptedPayload `json:"encryptedPayload"`
}

type reactTogglePayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type messageEditPayload struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
}

type messageDeletePayload struct {
	MessageID string `json:"messageId"`
}

type scopePayload struct {
	Kind     string `json:"kind"`
	Channel  string `json:"channel"`
	ConvoID  string `json:"convoId"`
	ThreadID string `json:"threadId"`
}

func (s scopePayload) toModel() models.Scope {
	return models.Scope{
		Kind:     models.ScopeKind(s.Kind),
		Channel:  s.Channel,
		ConvoID:  s.ConvoID,
		ThreadID: s.ThreadID,
	}
}

type historyFetchPayload struct {
	Scope  scopePayload `json:"scope"`
	Before int64        `json:"before"`
	Limit  *int         `json:"limit"`
}

type typingStatePayload struct {
	Scope  scopePayload `json:"scope"`
	Active bool         `json:"active"`
}

type botInvokePayload struct {
	BotID   string   `json:"botId"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Channel string   `json:"channel"`
}
