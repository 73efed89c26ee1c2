package originpolicy

import (
	"net/http"
	"testing"
)

func TestAllow(t *testing.T) {
	p := New([]string{"https://app.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.example.com", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:5173", true},
		{"http://192.168.1.5:5173", true},
		{"http://10.0.0.2", true},
		{"http://172.20.3.4", true},
		{"https://evil.example.net", false},
		{"http://8.8.8.8", false},
	}
	for _, tt := range tests {
		if got := p.Allow(tt.origin); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestClientIPPreferenceOrder(t *testing.T) {
	r := &http.Request{Header: http.Header{}, RemoteAddr: "203.0.113.9:4000"}
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.8")
	r.Header.Set("CF-Connecting-IP", "198.51.100.9")

	if got := ClientIP(r); got != "198.51.100.7" {
		t.Errorf("ClientIP = %q, want first XFF hop", got)
	}

	r2 := &http.Request{Header: http.Header{}, RemoteAddr: "203.0.113.9:4000"}
	r2.Header.Set("X-Real-IP", "198.51.100.8")
	if got := ClientIP(r2); got != "198.51.100.8" {
		t.Errorf("ClientIP fallback = %q, want X-Real-IP", got)
	}

	r3 := &http.Request{Header: http.Header{}, RemoteAddr: "203.0.113.9:4000"}
	if got := ClientIP(r3); got != "203.0.113.9" {
		t.Errorf("ClientIP peer fallback = %q", got)
	}
}

func TestClientIPStripsIPv4MappedPrefix(t *testing.T) {
	r := &http.Request{Header: http.Header{}, RemoteAddr: "203.0.113.9:4000"}
	r.Header.Set("X-Real-IP", "::ffff:198.51.100.8")
	if got := ClientIP(r); got != "198.51.100.8" {
		t.Errorf("ClientIP = %q, want stripped mapped prefix", got)
	}
}
