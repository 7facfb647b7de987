package logging

import (
	"log/slog"
	"regexp"
)

// Attribute keys whose values are treated as client addresses.
var clientKeys = map[string]bool{
	"client":      true,
	"client_id":   true,
	"remote_addr": true,
}

// Redactor masks the host part of IP addresses so clients stay
// distinguishable per network without being identifiable.
type Redactor struct {
	ipv4 *regexp.Regexp
	ipv6 *regexp.Regexp
}

// NewRedactor creates a Redactor.
func NewRedactor() *Redactor {
	return &Redactor{
		ipv4: regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3})\.\d{1,3}\b`),
		ipv6: regexp.MustCompile(`\b((?:[0-9a-fA-F]{1,4}:){3}[0-9a-fA-F]{1,4})(?::[0-9a-fA-F]{0,4}){1,5}\b`),
	}
}

// Redact masks every IP address in s.
//
//	203.0.113.7:51234     -> 203.0.113.x:51234
//	2001:db8:85a3:8d3::7  -> 2001:db8:85a3:8d3:x
func (r *Redactor) Redact(s string) string {
	s = r.ipv4.ReplaceAllString(s, "${1}.x")
	return r.ipv6.ReplaceAllString(s, "${1}:x")
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr that redacts client
// address attributes.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if !clientKeys[a.Key] || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, r.Redact(a.Value.String()))
}
