package wireadaptor

import (
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ircgateway/internal/dispatcher"
	"ircgateway/internal/hub"
	"ircgateway/internal/models"
	"ircgateway/internal/store"
)

func TestParseLineSplitsVerbParamsAndTrailing(t *testing.T) {
	verb, params := parseLine("PRIVMSG #lobby :hello there, friend")
	if verb != "PRIVMSG" {
		t.Errorf("verb = %q", verb)
	}
	if len(params) != 2 || params[0] != "#lobby" || params[1] != "hello there, friend" {
		t.Errorf("params = %v", params)
	}
}

func TestParseLineNoTrailing(t *testing.T) {
	verb, params := parseLine("JOIN #lobby")
	if verb != "JOIN" || len(params) != 1 || params[0] != "#lobby" {
		t.Errorf("verb=%q params=%v", verb, params)
	}
}

func TestHasMode(t *testing.T) {
	modes := []string{models.ModeInviteOnly, models.ModeTopicLock}
	if !hasMode(modes, models.ModeInviteOnly) {
		t.Error("expected ModeInviteOnly to be found")
	}
	if hasMode(modes, models.ModeSecret) {
		t.Error("did not expect ModeSecret to be found")
	}
}

// fakeWriter records every write so tests can assert on the lines a session
// sent back, without needing a real socket.
type fakeWriter struct {
	lines []string
}

func (f *fakeWriter) Write(p []byte) (int, error) {
	f.lines = append(f.lines, string(p))
	return len(p), nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := zap.NewNop().Sugar()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := store.Setup(logger, path)
	if err != nil {
		t.Fatalf("store.Setup: %v", err)
	}
	t.Cleanup(func() { _ = st.Shutdown() })

	dispatcher.Setup(logger, st, 30, nil)
	hub.Setup(logger, nil, true, dispatcher.HandleEvent)
	Setup(logger, st)
	return st
}

var sessionSeq int

func newTestSessionOn(t *testing.T, st *store.Store) (*session, *fakeWriter) {
	t.Helper()
	sessionSeq++
	sessionID := fmt.Sprintf("session-%s-%d", t.Name(), sessionSeq)

	near, far := net.Pipe()
	t.Cleanup(func() { _ = near.Close() })
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := far.Read(buf); err != nil {
				return
			}
		}
	}()
	c := hub.RegisterLineClient(near, "127.0.0.1", sessionID, func(string, json.RawMessage) (string, bool) {
		return "", false
	})
	t.Cleanup(c.Close)

	w := &fakeWriter{}
	return &session{conn: w, client: c, deviceID: "device-" + sessionID}, w
}

func newTestSession(t *testing.T) (*session, *fakeWriter, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	sess, w := newTestSessionOn(t, st)
	return sess, w, st
}

func TestHandleNickClaimsAliasAndRepliesWelcome(t *testing.T) {
	sess, w, st := newTestSession(t)

	sess.handleNick([]string{"Alpha"})

	if sess.client.GetAlias() != "Alpha" {
		t.Fatalf("GetAlias = %q, want Alpha", sess.client.GetAlias())
	}
	a, ok := st.Alias("Alpha")
	if !ok || a.ActiveSessionID != sess.client.SessionID {
		t.Fatal("alias was not claimed for this session")
	}
	if len(w.lines) == 0 || !strings.Contains(w.lines[len(w.lines)-1], "001") {
		t.Errorf("expected a 001 welcome reply, got %v", w.lines)
	}
}

func TestHandleNickRejectsCollision(t *testing.T) {
	st := newTestStore(t)
	sess1, _ := newTestSessionOn(t, st)
	sess1.handleNick([]string{"Alpha"})

	sess2, w2 := newTestSessionOn(t, st)
	sess2.handleNick([]string{"Alpha"})

	if sess2.client.GetAlias() != "" {
		t.Error("second session should not have claimed the alias")
	}
	if len(w2.lines) == 0 || !strings.Contains(w2.lines[len(w2.lines)-1], "433") {
		t.Errorf("expected a 433 nickname-in-use reply, got %v", w2.lines)
	}
	if a, _ := st.Alias("Alpha"); a.ActiveSessionID != sess1.client.SessionID {
		t.Error("alias should remain bound to the first session")
	}
}

func TestHandleJoinRequiresPriorNick(t *testing.T) {
	sess, w, _ := newTestSession(t)

	sess.handleJoin([]string{"#lobby"})

	if len(w.lines) == 0 || !strings.Contains(w.lines[0], "NOTICE") {
		t.Errorf("expected a NOTICE telling the client to NICK first, got %v", w.lines)
	}
}

func TestHandleJoinThenPrivmsgWritesNoErrorReply(t *testing.T) {
	sess, w, _ := newTestSession(t)
	sess.handleNick([]string{"Alpha"})
	sess.handleJoin([]string{"#lobby"})

	joinLines := len(w.lines)
	sess.handlePrivmsg([]string{"#lobby", "hello"})

	if len(w.lines) != joinLines {
		t.Errorf("a successful channel PRIVMSG should not itself write an error reply, got %v", w.lines[joinLines:])
	}
}

func TestHandlePrivmsgToNickEchoesToSenderOnly(t *testing.T) {
	sess, w, _ := newTestSession(t)
	sess.handleNick([]string{"Alpha"})

	sess.handlePrivmsg([]string{"Beta", "hi"})

	if len(w.lines) == 0 {
		t.Fatal("expected an echoed PRIVMSG line")
	}
	last := w.lines[len(w.lines)-1]
	if !strings.Contains(last, "PRIVMSG Beta") {
		t.Errorf("expected an echoed PRIVMSG line, got %q", last)
	}
}
