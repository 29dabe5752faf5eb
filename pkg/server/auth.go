package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/telemetry/logging"
)

type apiKey struct {
	name string
	key  []byte
}

// Authenticator checks API keys presented in a request header.
type Authenticator struct {
	keys     []apiKey
	header   string
	readOnly bool
}

// NewAuthenticator creates an authenticator for the enabled keys of cfg,
// or returns nil when authentication is disabled.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	if !cfg.Enabled {
		return nil
	}
	a := &Authenticator{header: cfg.Header, readOnly: cfg.ReadOnly}
	if a.header == "" {
		a.header = config.DefaultAuthHeader
	}
	for _, k := range cfg.APIKeys {
		if k.Disabled || k.Key == "" {
			continue
		}
		a.keys = append(a.keys, apiKey{name: k.Name, key: []byte(k.Key)})
	}
	return a
}

// Authenticate returns the name of the key presented by r.
func (a *Authenticator) Authenticate(r *http.Request) (string, bool) {
	presented := r.Header.Get(a.header)
	if strings.EqualFold(a.header, "Authorization") {
		scheme, token, ok := strings.Cut(presented, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		presented = token
	}
	if presented == "" {
		return "", false
	}

	name, found := "", false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(k.key, []byte(presented)) == 1 {
			name, found = k.name, true
		}
	}
	return name, found
}

// requires reports whether r needs a key.
func (a *Authenticator) requires(r *http.Request) bool {
	if !a.readOnly {
		return true
	}
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}

type clientKey struct{}

// ClientName returns the name of the API key that authenticated the
// request, if any.
func ClientName(ctx context.Context) string {
	name, _ := ctx.Value(clientKey{}).(string)
	return name
}

// AuthMiddleware rejects requests without a valid API key with 401. A nil
// authenticator disables the middleware.
func AuthMiddleware(a *Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		if a == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.requires(r) {
				next.ServeHTTP(w, r)
				return
			}
			name, ok := a.Authenticate(r)
			if !ok {
				slog.WarnContext(r.Context(), "rejected request without a valid API key",
					"request_id", logging.GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				if strings.EqualFold(a.header, "Authorization") {
					w.Header().Set("WWW-Authenticate", `Bearer realm="rsql"`)
				}
				writeError(w, r, errUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), clientKey{}, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
