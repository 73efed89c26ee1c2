package validator_test

import (
	"strings"
	"testing"

	"ircgateway/internal/validator"
)

func TestAlias(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		wantErr string
	}{
		{"valid simple", "Alpha", ""},
		{"trims whitespace", "  Alpha  ", ""},
		{"empty", "", "EMPTY"},
		{"whitespace only", "   ", "EMPTY"},
		{"exactly 24 runes accepted", strings.Repeat("a", 24), ""},
		{"25 runes rejected", strings.Repeat("a", 25), "TOO_LONG"},
		{"control char rejected", "al\x01pha", "CONTROL_CHARS"},
		{"DEL rejected", "alpha\x7f", "CONTROL_CHARS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.Alias(tc.alias)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Alias(%q) error = %v, want nil", tc.alias, err)
				}
				if got == "" {
					t.Errorf("Alias(%q) returned empty value", tc.alias)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("Alias(%q) error = %v, want %q", tc.alias, err, tc.wantErr)
			}
		})
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    string
		wantErr string
	}{
		{"valid lowercased", "#Lobby", "#lobby", ""},
		{"valid with digits and symbols", "#room_1-2", "#room_1-2", ""},
		{"missing hash", "lobby", "", "BAD_FORMAT"},
		{"empty", "", "", "EMPTY"},
		{"illegal character", "#lo bby", "", "BAD_FORMAT"},
		{"too long", "#" + strings.Repeat("a", 49), "", "BAD_FORMAT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.Channel(tc.channel)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Channel(%q) error = %v, want nil", tc.channel, err)
				}
				if got != tc.want {
					t.Errorf("Channel(%q) = %q, want %q", tc.channel, got, tc.want)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("Channel(%q) error = %v, want %q", tc.channel, err, tc.wantErr)
			}
		})
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid text", "hello there", ""},
		{"tab allowed", "hello\tthere", ""},
		{"empty", "", "EMPTY"},
		{"exactly 2000 runes accepted", strings.Repeat("a", 2000), ""},
		{"2001 runes rejected", strings.Repeat("a", 2001), "TOO_LONG"},
		{"control char rejected", "hello\x01there", "CONTROL_CHARS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Body(tc.body)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Body(%q) error = %v, want nil", tc.body, err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("Body(%q) error = %v, want %q", tc.body, err, tc.wantErr)
			}
		})
	}
}

func TestGenericText(t *testing.T) {
	if got := validator.GenericText("  hi  "); got != "hi" {
		t.Errorf("GenericText = %q, want %q", got, "hi")
	}
	if got := validator.GenericText(""); got != "" {
		t.Errorf("GenericText(empty) = %q, want empty", got)
	}
}
