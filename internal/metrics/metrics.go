// Package metrics registers the gateway's Prometheus instruments, exposed
// at /metrics by internal/health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irc_gateway_connected_sessions",
		Help: "Number of currently connected sessions on both transports.",
	})

	ClaimedAliases = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irc_gateway_claimed_aliases",
		Help: "Number of aliases currently held by a live session.",
	})

	OpenChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irc_gateway_open_channels",
		Help: "Number of channels that exist in the store.",
	})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irc_gateway_messages_total",
		Help: "Messages inserted into the store, labeled by scope kind.",
	}, []string{"scope_kind"})

	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irc_gateway_moderation_actions_total",
		Help: "Moderation actions recorded, labeled by action type.",
	}, []string{"action_type"})

	ServerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irc_gateway_server_errors_total",
		Help: "server_error envelopes emitted, labeled by error code.",
	}, []string{"code"})

	StoreFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "irc_gateway_store_flush_duration_seconds",
		Help:    "Time to write the document store to disk.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)
