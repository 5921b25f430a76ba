package middleware

import (
	"net/http"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/obslog"
	"github.com/arcauth/gateway/internal/ratelimit"
)

// RateLimit wraps one internal/ratelimit.Limiter scope over a client-key
// lookup, for the control API's own endpoint groups (§6: 10/60s on auth
// endpoints, 30/60s on external endpoints) — separate scopes from the
// proxy's global limiter in internal/proxy.Server.
type RateLimit struct {
	limiter *ratelimit.Limiter
	trusted *ratelimit.TrustedProxies
}

func NewRateLimit(limiter *ratelimit.Limiter, trusted *ratelimit.TrustedProxies) *RateLimit {
	return &RateLimit{limiter: limiter, trusted: trusted}
}

func (m *RateLimit) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := m.trusted.ClientKey(r)
		if !ok {
			writeAuthError(r.Context(), w, apierr.Internal())
			return
		}
		if !m.limiter.Check(key) {
			obslog.RateLimited(r.Context(), "control api rate limit exceeded")
			writeAuthError(r.Context(), w, apierr.RateLimited())
			return
		}
		next(w, r)
	}
}
