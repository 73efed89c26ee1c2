package ratelimit

import (
	"testing"
	"time"
)

func TestAllowAdmitsUpToMaxCount(t *testing.T) {
	w := New(Preset{MaxCount: 25, Window: 5 * time.Second})
	base := time.Now()

	for i := 0; i < 25; i++ {
		if !w.Allow(base) {
			t.Fatalf("send %d was refused, want admitted", i+1)
		}
	}
	if w.Allow(base) {
		t.Error("26th send was admitted, want refused")
	}
}

func TestAllowExpiresOldTimestamps(t *testing.T) {
	w := New(Preset{MaxCount: 1, Window: time.Second})
	base := time.Now()

	if !w.Allow(base) {
		t.Fatal("first send refused")
	}
	if w.Allow(base.Add(500 * time.Millisecond)) {
		t.Error("second send within window was admitted")
	}
	if !w.Allow(base.Add(2 * time.Second)) {
		t.Error("send after window expiry was refused")
	}
}
