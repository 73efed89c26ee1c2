// Package originpolicy implements the connection origin allow-list and
// client IP derivation, and feeds github.com/go-chi/cors for the HTTP
// surface. An Upgrade request isn't a CORS preflight, so the WebSocket path
// checks the same parsed allow-list by hand.
package originpolicy

import (
	"net"
	"net/http"
	"strings"
)

// Policy holds a parsed allow-list plus the implicit-accept rules for
// localhost and RFC-1918 private ranges.
type Policy struct {
	allowed map[string]bool
}

// New builds a Policy from the IRC_ALLOWED_ORIGINS list, already split on commas.
func New(allowedOrigins []string) *Policy {
	p := &Policy{allowed: make(map[string]bool, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			p.allowed[o] = true
		}
	}
	return p
}

// AllowedOrigins exposes the explicit list for wiring into go-chi/cors.
func (p *Policy) AllowedOrigins() []string {
	out := make([]string, 0, len(p.allowed))
	for o := range p.allowed {
		out = append(out, o)
	}
	return out
}

// Allow reports whether origin is acceptable for a connection upgrade. No
// origin header at all is accepted (native desktop/non-browser clients send
// none). Otherwise the origin must be in the explicit list, or its host must
// be localhost/127.0.0.1/::1, or an RFC-1918 private IPv4 address.
func (p *Policy) Allow(origin string) bool {
	if origin == "" {
		return true
	}
	if p.allowed[origin] {
		return true
	}

	host := origin
	if i := strings.Index(origin, "://"); i >= 0 {
		host = origin[i+3:]
	}
	if strings.HasPrefix(host, "[") {
		if j := strings.Index(host, "]"); j >= 0 {
			host = host[1:j]
		}
	} else if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}

	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	return isPrivateIPv4(ip)
}

func isPrivateIPv4(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	default:
		return false
	}
}

// ClientIP derives the originating client address from r, preferring
// X-Forwarded-For's first hop (if it parses as an IP), then X-Real-IP, then
// CF-Connecting-IP, then the TCP peer address. An IPv4-mapped IPv6 prefix
// ("::ffff:") is stripped from the result.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if net.ParseIP(first) != nil {
			return strip4in6(first)
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return strip4in6(xri)
	}
	if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" {
		return strip4in6(cf)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strip4in6(r.RemoteAddr)
	}
	return strip4in6(host)
}

func strip4in6(ip string) string {
	return strings.TrimPrefix(ip, "::ffff:")
}
