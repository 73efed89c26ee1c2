package health

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"ircgateway/internal/config"
	"ircgateway/internal/dispatcher"
	"ircgateway/internal/hub"
	"ircgateway/internal/originpolicy"
	"ircgateway/internal/store"
	"ircgateway/internal/wireadaptor"
)

func TestHealthzReportsOK(t *testing.T) {
	logger := zap.NewNop().Sugar()
	st, err := store.Setup(logger, filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("store.Setup: %v", err)
	}
	t.Cleanup(func() { _ = st.Shutdown() })

	dispatcher.Setup(logger, st, 30, nil)
	hub.Setup(logger, nil, true, dispatcher.HandleEvent)
	wireadaptor.Setup(logger, st)

	policy := originpolicy.New(nil)
	router := Setup(logger, config.Config{}, policy)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	logger := zap.NewNop().Sugar()
	st, err := store.Setup(logger, filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("store.Setup: %v", err)
	}
	t.Cleanup(func() { _ = st.Shutdown() })

	dispatcher.Setup(logger, st, 30, nil)
	hub.Setup(logger, nil, true, dispatcher.HandleEvent)
	wireadaptor.Setup(logger, st)

	policy := originpolicy.New(nil)
	router := Setup(logger, config.Config{}, policy)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
