package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/ratelimit"
	"github.com/arcauth/gateway/internal/routecache"
)

type memRefreshStore struct {
	mu   sync.Mutex
	rows map[string]authority.RefreshTokenRecord
}

func newMemRefreshStore() *memRefreshStore {
	return &memRefreshStore{rows: make(map[string]authority.RefreshTokenRecord)}
}

func (m *memRefreshStore) InsertRefreshToken(_ context.Context, rec authority.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.TokenHash] = rec
	return nil
}

func (m *memRefreshStore) FindRefreshTokenByHash(_ context.Context, hash string) (*authority.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[hash]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memRefreshStore) RevokeRefreshTokenByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return nil
}

func newTestServer(t *testing.T, upstream string) (*Server, *authority.Authority) {
	t.Helper()
	secrets := authority.NewSecretCache("test-secret")
	auth := authority.New(secrets, newMemRefreshStore(), time.Hour, 30*24*time.Hour, 5*time.Minute)

	routes := routecache.New(upstream, "", []routecache.Route{
		{PathPrefix: "/svc/", UpstreamAddress: upstream, RequireAuth: true, StripPrefix: "/svc", Enabled: true},
		{PathPrefix: "/public/", UpstreamAddress: upstream, RequireAuth: false, Enabled: true},
	})

	global := ratelimit.New(1000, time.Minute)
	trusted, err := ratelimit.NewTrustedProxies(nil)
	require.NoError(t, err)

	return New(routes, auth, global, trusted), auth
}

func TestCORSPreflightRespondsNoContent(t *testing.T) {
	s, _ := newTestServer(t, "127.0.0.1:1")
	req := httptest.NewRequest(http.MethodOptions, "/svc/widgets", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReservedHeaderRejected(t *testing.T) {
	s, _ := newTestServer(t, "127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/public/x", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("X-User-Id", "forged")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoRouteMatchReturns404(t *testing.T) {
	s, _ := newTestServer(t, "127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireAuthMissingTokenReturns401(t *testing.T) {
	s, _ := newTestServer(t, "127.0.0.1:1")
	req := httptest.NewRequest(http.MethodGet, "/svc/widgets", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRequestForwardsWithAttributionHeaders(t *testing.T) {
	var gotPath string
	var gotUserID, gotRequestID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserID = r.Header.Get("X-User-Id")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	s, auth := newTestServer(t, upstream.Listener.Addr().String())
	tok, err := auth.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/svc/widgets?x=1", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/widgets", gotPath)
	assert.Equal(t, "user-1", gotUserID)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
