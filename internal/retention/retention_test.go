package retention

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/models"
	"ircgateway/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := zap.NewNop().Sugar()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := store.Setup(logger, path)
	if err != nil {
		t.Fatalf("store.Setup: %v", err)
	}
	t.Cleanup(func() { _ = st.Shutdown() })
	return st
}

func TestSweepTombstonesOldMessages(t *testing.T) {
	st := newTestStore(t)
	logger := zap.NewNop().Sugar()

	msg, err := st.InsertMessage(&models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
		SenderAlias: "Alpha",
		Kind:        models.KindText,
		Body:        "old message",
	})
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	old, _ := st.FindMessage(msg.MessageID)
	old.Timestamp = time.Now().AddDate(0, 0, -60)

	sweep(logger, st, 30)

	still, ok := st.FindMessage(msg.MessageID)
	if !ok || still.DeletedAt == nil {
		t.Error("sweep should have tombstoned the old message")
	}
}

func TestRunSweepsImmediatelyThenStopsOnCancel(t *testing.T) {
	st := newTestStore(t)
	logger := zap.NewNop().Sugar()

	msg, _ := st.InsertMessage(&models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
		SenderAlias: "Alpha",
		Kind:        models.KindText,
		Body:        "old message",
	})
	old, _ := st.FindMessage(msg.MessageID)
	old.Timestamp = time.Now().AddDate(0, 0, -60)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, logger, st, 30)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	still, ok := st.FindMessage(msg.MessageID)
	if !ok || still.DeletedAt == nil {
		t.Error("Run's immediate sweep should have tombstoned the old message before returning")
	}
}
