package middleware

import (
	"net"
	"net/http"
	"strings"

	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/telemetry/logging"
)

// ClientResolver derives the identity a request is rate limited under.
type ClientResolver struct {
	// Header, when set and present on the request, names the client.
	Header string

	// TrustForwardedFor uses the first X-Forwarded-For address. Enable only
	// behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

// NewClientResolver builds a resolver from the server configuration.
func NewClientResolver(cfg *config.ServerConfig) ClientResolver {
	return ClientResolver{
		Header:            cfg.ClientIDHeader,
		TrustForwardedFor: cfg.TrustForwardedFor,
	}
}

// Resolve returns the client identity of r. The fallback is the host part
// of RemoteAddr, so every request has a non-empty identity.
func (c ClientResolver) Resolve(r *http.Request) string {
	if c.Header != "" {
		if id := strings.TrimSpace(r.Header.Get(c.Header)); id != "" {
			return id
		}
	}

	if c.TrustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIDMiddleware stores the resolved client identity in the request
// context, where logging.GetClient reads it.
func ClientIDMiddleware(resolver ClientResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithClient(r.Context(), resolver.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
