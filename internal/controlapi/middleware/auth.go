// Package middleware implements the two auth gates the control API's
// handler chain sits behind, matching the teacher's
// services/gateway/api/internal/middleware.RequiredAuthMiddleware shape:
// a type wrapping its dependency with a Handle(next) http.HandlerFunc
// method, used as a rest.Middleware.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/identity"
	"github.com/arcauth/gateway/internal/obslog"
)

type contextKey string

const (
	adminIDKey contextKey = "admin_id"
	apiKeyKey  contextKey = "api_key"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	apiKeyHeader        = "X-API-Key"
)

// AdminAuth gates /api/admin/* behind a valid admin-JWT bearer token.
type AdminAuth struct {
	authority *authority.Authority
}

func NewAdminAuth(auth *authority.Authority) *AdminAuth {
	return &AdminAuth{authority: auth}
}

func (m *AdminAuth) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(authorizationHeader)
		if !strings.HasPrefix(header, bearerPrefix) {
			obslog.Security(r.Context(), "missing admin bearer token")
			writeAuthError(r.Context(), w, apierr.MissingToken())
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		claims, err := m.authority.ValidateAdminToken(token)
		if err != nil {
			obslog.Security(r.Context(), "admin bearer token rejected", logx.Field("error", err.Error()))
			writeAuthError(r.Context(), w, err)
			return
		}
		ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// AdminIDFromContext returns the admin id stamped by AdminAuth.
func AdminIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(adminIDKey).(string)
	return id, ok
}

// ApiKeyAuth gates /api/external/* behind a matching X-API-Key with the
// required permission scope (spec §4.6, §6).
type ApiKeyAuth struct {
	keys  *identity.ApiKeyService
	scope string
}

func NewApiKeyAuth(keys *identity.ApiKeyService, scope string) *ApiKeyAuth {
	return &ApiKeyAuth{keys: keys, scope: scope}
}

func (m *ApiKeyAuth) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(apiKeyHeader)
		if raw == "" {
			obslog.Security(r.Context(), "missing api key")
			writeAuthError(r.Context(), w, apierr.MissingToken())
			return
		}
		key, err := m.keys.Authenticate(r.Context(), raw, m.scope)
		if err != nil {
			obslog.Security(r.Context(), "api key rejected", logx.Field("scope", m.scope))
			writeAuthError(r.Context(), w, err)
			return
		}
		ctx := context.WithValue(r.Context(), apiKeyKey, key.ID)
		next(w, r.WithContext(ctx))
	}
}

// writeAuthError mirrors internal/apierr's envelope writer; middleware
// runs before the handler's own httpx.ErrorCtx path, so it writes the
// same shape directly rather than returning an error for the handler to
// translate.
func writeAuthError(_ context.Context, w http.ResponseWriter, err error) {
	envelope, status := apierr.ToEnvelope(err)
	body, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
