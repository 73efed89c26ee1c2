package color

import "testing"

func TestAssignDeterministic(t *testing.T) {
	a := Assign("Alpha", "127.0.0.1", nil)
	b := Assign("Alpha", "127.0.0.1", nil)
	if a != b {
		t.Errorf("Assign not deterministic: %q != %q", a, b)
	}
}

func TestAssignAvoidsInUse(t *testing.T) {
	first := Assign("Alpha", "127.0.0.1", nil)
	inUse := map[string]bool{first: true}
	second := Assign("Alpha", "127.0.0.1", inUse)
	if second == first {
		t.Errorf("Assign returned an in-use color: %q", second)
	}
}

func TestAssignFallsBackOnExhaustion(t *testing.T) {
	inUse := map[string]bool{}
	for _, c := range palette {
		inUse[c] = true
	}
	got := Assign("Alpha", "127.0.0.1", inUse)
	if got == "" {
		t.Error("Assign returned empty color on exhaustion")
	}
}
