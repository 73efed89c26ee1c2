// Package health assembles the gateway's plain-HTTP surface: the health
// check, Prometheus metrics, the WebSocket upgrade endpoint, and the
// classical-wire endpoint, built on a chi.NewRouter with github.com/go-chi/cors
// and github.com/go-chi/httprate handling origin checks and rate shedding.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ircgateway/internal/config"
	"ircgateway/internal/dispatcher"
	"ircgateway/internal/hub"
	"ircgateway/internal/originpolicy"
	"ircgateway/internal/snowflake"
	"ircgateway/internal/wireadaptor"
)

// Setup builds the router. It does not start listening; the composition
// root wraps it in an *http.Server for graceful shutdown.
func Setup(sugar *zap.SugaredLogger, cfg config.Config, policy *originpolicy.Policy) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   policy.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.With(httprate.LimitByIP(20, time.Minute)).Get("/ws", upgradeHandler(sugar, policy))
	r.With(httprate.LimitByIP(20, time.Minute)).Get("/webirc", wireadaptor.Handle)

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// upgradeHandler mints a session ID and hands the socket to the Hub, then
// drives the read loop in its own goroutine until disconnect.
func upgradeHandler(sugar *zap.SugaredLogger, policy *originpolicy.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := snowflake.GenerateID()
		if err != nil {
			sugar.Errorw("health: minting session id failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		c, err := hub.Upgrade(w, r, policy, sessionID)
		if err != nil {
			sugar.Debugw("health: websocket upgrade failed", "error", err)
			return
		}

		go func() {
			c.ReadLoop()
			dispatcher.HandleDisconnect(c)
		}()
	}
}
