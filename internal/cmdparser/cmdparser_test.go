package cmdparser

import (
	"reflect"
	"testing"
)

func TestParseNotACommand(t *testing.T) {
	if got := Parse("hello there"); got != nil {
		t.Errorf("Parse(plain text) = %+v, want nil", got)
	}
	if got := Parse("   "); got != nil {
		t.Errorf("Parse(blank) = %+v, want nil", got)
	}
}

func TestParseCommandOnly(t *testing.T) {
	got := Parse("/whoami")
	want := &Command{Name: "whoami"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse(/whoami) = %+v, want %+v", got, want)
	}
}

func TestParseWithArgs(t *testing.T) {
	got := Parse("/KICK Dave #room  flooding the channel")
	if got.Name != "kick" {
		t.Errorf("Name = %q, want kick", got.Name)
	}
	wantArgs := []string{"Dave", "#room", "flooding", "the", "channel"}
	if !reflect.DeepEqual(got.Args, wantArgs) {
		t.Errorf("Args = %v, want %v", got.Args, wantArgs)
	}
	if got.RawArgs != "Dave #room  flooding the channel" {
		t.Errorf("RawArgs = %q", got.RawArgs)
	}
}

func TestParsePreservesSpacingInRawArgs(t *testing.T) {
	got := Parse("/search needle in   haystack")
	if got.RawArgs != "needle in   haystack" {
		t.Errorf("RawArgs = %q", got.RawArgs)
	}
}
