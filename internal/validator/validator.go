// Package validator normalizes and bound-checks the handful of untyped input
// shapes the gateway accepts: aliases, channel names, and message bodies.
package validator

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxAliasRunes   = 24
	maxBodyRunes    = 2000
	maxChannelRunes = 48
)

var channelNameRegex = regexp.MustCompile(`^#[A-Za-z0-9_\-]{1,48}$`)

// Alias trims, bound-checks, and rejects control characters in a candidate alias.
// Returns ("", err) on failure.
func Alias(raw string) (string, error) {
	alias := strings.TrimSpace(raw)
	if alias == "" {
		return "", fmt.Errorf("EMPTY")
	}
	if len([]rune(alias)) > maxAliasRunes {
		return "", fmt.Errorf("TOO_LONG")
	}
	if hasControlChars(alias, false) {
		return "", fmt.Errorf("CONTROL_CHARS")
	}
	return alias, nil
}

// Channel trims, matches the channel-name regex, and lowercases on success.
func Channel(raw string) (string, error) {
	channel := strings.TrimSpace(raw)
	if channel == "" {
		return "", fmt.Errorf("EMPTY")
	}
	lowered := strings.ToLower(channel)
	if !channelNameRegex.MatchString(lowered) {
		return "", fmt.Errorf("BAD_FORMAT")
	}
	return lowered, nil
}

// Body trims, bound-checks, and rejects C0 control characters except TAB.
func Body(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", fmt.Errorf("EMPTY")
	}
	if len([]rune(body)) > maxBodyRunes {
		return "", fmt.Errorf("TOO_LONG")
	}
	if hasControlChars(body, true) {
		return "", fmt.Errorf("CONTROL_CHARS")
	}
	return body, nil
}

// GenericText trims only; it never fails.
func GenericText(raw string) string {
	return strings.TrimSpace(raw)
}

// hasControlChars reports whether s contains a C0 control character or DEL.
// When allowTab is set, the TAB character (0x09) is permitted.
func hasControlChars(s string, allowTab bool) bool {
	for _, r := range s {
		if r == 0x7f {
			return true
		}
		if r < 0x20 {
			if allowTab && r == '\t' {
				continue
			}
			return true
		}
	}
	return false
}
