package hub

import "testing"

func TestRoomKeyFormat(t *testing.T) {
	if got := AliasRoom("Alpha"); got != "alias:Alpha" {
		t.Errorf("AliasRoom = %q", got)
	}
	if got := ChannelRoom("#lobby"); got != "channel:#lobby" {
		t.Errorf("ChannelRoom = %q", got)
	}
}

func TestLocalPubSubSubscribeUnsubscribe(t *testing.T) {
	ps := &LocalPubSub{}
	ps.Setup()

	ps.Subscribe("channel:#lobby", "session-1")
	ps.Subscribe("channel:#lobby", "session-2")

	if got := len(ps.hashMap["channel:#lobby"]); got != 2 {
		t.Fatalf("subscribers = %d, want 2", got)
	}

	ps.Unsubscribe("channel:#lobby", "session-1")
	if got := len(ps.hashMap["channel:#lobby"]); got != 1 {
		t.Fatalf("subscribers after unsubscribe = %d, want 1", got)
	}

	ps.Unsubscribe("channel:#lobby", "session-2")
	if _, exists := ps.hashMap["channel:#lobby"]; exists {
		t.Error("empty room key should be deleted")
	}
}

func TestLocalPubSubUnsubscribeFromAll(t *testing.T) {
	ps := &LocalPubSub{}
	ps.Setup()

	ps.Subscribe("channel:#lobby", "session-1")
	ps.Subscribe("alias:Alpha", "session-1")
	ps.Subscribe("channel:#lobby", "session-2")

	ps.UnsubscribeFromAll("session-1")

	if got := len(ps.hashMap["channel:#lobby"]); got != 1 {
		t.Errorf("channel:#lobby subscribers = %d, want 1", got)
	}
	if _, exists := ps.hashMap["alias:Alpha"]; exists {
		t.Error("alias:Alpha should be empty and deleted")
	}
}
