package store

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zap.NewNop().Sugar()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Setup(logger, path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestClaimAliasAndReclaim(t *testing.T) {
	s := newTestStore(t)

	a, err := s.ClaimAlias("Alpha", "device-1", "session-1", "127.0.0.1", "")
	if err != nil {
		t.Fatalf("initial claim: %v", err)
	}
	nonce1 := a.ReclaimNonce

	s.ReleaseAlias("Alpha")

	if _, err := s.ClaimAlias("Alpha", "device-2", "session-2", "127.0.0.1", ""); err != ErrAliasUnauthorized {
		t.Fatalf("claim without nonce = %v, want ErrAliasUnauthorized", err)
	}

	a2, err := s.ClaimAlias("Alpha", "device-2", "session-2", "127.0.0.1", nonce1)
	if err != nil {
		t.Fatalf("reclaim with nonce: %v", err)
	}
	if a2.ReclaimNonce == nonce1 {
		t.Error("reclaim nonce did not rotate")
	}
	if a2.CurrentDeviceID != "device-2" {
		t.Errorf("CurrentDeviceID = %q, want device-2", a2.CurrentDeviceID)
	}
}

func TestClaimAliasInUseByLiveSession(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ClaimAlias("Alpha", "device-1", "session-1", "127.0.0.1", ""); err != nil {
		t.Fatalf("initial claim: %v", err)
	}

	if _, err := s.ClaimAlias("Alpha", "device-2", "session-2", "127.0.0.1", ""); err != ErrAliasInUse {
		t.Fatalf("claim while live = %v, want ErrAliasInUse", err)
	}
}

func TestJoinPartJoinLeavesDefaultRole(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.EnsureChannel("#lobby", "Owner"); err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}

	if _, err := s.UpsertMembership("#lobby", "Alpha", models.RoleMember); err != nil {
		t.Fatalf("UpsertMembership: %v", err)
	}
	s.SetMemberRole("#lobby", "Alpha", models.RoleOp)
	s.PartMembership("#lobby", "Alpha")

	m, err := s.UpsertMembership("#lobby", "Alpha", models.RoleMember)
	if err != nil {
		t.Fatalf("re-join: %v", err)
	}
	if m.Role != models.RoleMember {
		t.Errorf("role after rejoin = %v, want MEMBER", m.Role)
	}
}

func TestToggleReactionIdempotence(t *testing.T) {
	s := newTestStore(t)

	msg, err := s.InsertMessage(&models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
		SenderAlias: "Alpha",
		Kind:        models.KindText,
		Body:        "hi",
	})
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	added, ok := s.ToggleReaction(msg.MessageID, "Beta", "👍")
	if !ok || !added {
		t.Fatalf("first toggle: added=%v ok=%v", added, ok)
	}
	removed, ok := s.ToggleReaction(msg.MessageID, "Beta", "👍")
	if !ok || removed {
		t.Fatalf("second toggle: added=%v ok=%v, want removed", removed, ok)
	}

	got, _ := s.FindMessage(msg.MessageID)
	if len(got.Reactions) != 0 {
		t.Errorf("reactions after even toggles = %v, want empty", got.Reactions)
	}
}

func TestEditMessagePreservesIdentity(t *testing.T) {
	s := newTestStore(t)

	msg, _ := s.InsertMessage(&models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
		SenderAlias: "Alpha",
		Kind:        models.KindText,
		Body:        "hi",
	})
	_, _ = s.ToggleReaction(msg.MessageID, "Beta", "👍")

	edited, ok := s.EditMessage(msg.MessageID, "hi there")
	if !ok {
		t.Fatal("EditMessage: not found")
	}
	if edited.MessageID != msg.MessageID || edited.SenderAlias != msg.SenderAlias {
		t.Error("edit changed identity fields")
	}
	if len(edited.Reactions) != 1 {
		t.Error("edit dropped reactions")
	}
	if edited.Body != "hi there" {
		t.Errorf("Body = %q", edited.Body)
	}
}

func TestDmConversationDeterministicOrdering(t *testing.T) {
	s := newTestStore(t)

	c1, err := s.GetOrCreateDmConversation("Beta", "Alpha")
	if err != nil {
		t.Fatalf("GetOrCreateDmConversation: %v", err)
	}
	if c1.AliasA != "Alpha" || c1.AliasB != "Beta" {
		t.Errorf("AliasA/AliasB = %q/%q, want sorted Alpha/Beta", c1.AliasA, c1.AliasB)
	}

	c2, err := s.GetOrCreateDmConversation("Alpha", "Beta")
	if err != nil {
		t.Fatalf("GetOrCreateDmConversation reversed: %v", err)
	}
	if c2.ConvoID != c1.ConvoID {
		t.Error("conversation identity not deterministic across argument order")
	}
}

func TestRetentionSweepTombstonesButRetains(t *testing.T) {
	s := newTestStore(t)

	msg, _ := s.InsertMessage(&models.Message{
		Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
		SenderAlias: "Alpha",
		Kind:        models.KindText,
		Body:        "old",
	})
	// backdate the message past retention
	old, _ := s.FindMessage(msg.MessageID)
	old.Timestamp = time.Now().AddDate(0, 0, -31)

	n := s.RunRetentionCleanup(30)
	if n != 1 {
		t.Fatalf("RunRetentionCleanup tombstoned %d, want 1", n)
	}

	history := s.ListHistory(models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"}.Key(), 50, time.Time{})
	if len(history) != 0 {
		t.Errorf("history after sweep = %d entries, want 0", len(history))
	}

	still, ok := s.FindMessage(msg.MessageID)
	if !ok || still.DeletedAt == nil {
		t.Error("FindMessage should still return the tombstoned row")
	}
}

func TestListHistoryOrderingAndLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, _ = s.InsertMessage(&models.Message{
			Scope:       models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"},
			SenderAlias: "Alpha",
			Kind:        models.KindText,
			Body:        "msg",
		})
	}

	history := s.ListHistory(models.Scope{Kind: models.ScopeChannel, Channel: "#lobby"}.Key(), 3, time.Time{})
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Error("history not ascending by timestamp")
		}
	}
}
