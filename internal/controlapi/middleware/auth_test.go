package middleware

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
	"github.com/arcauth/gateway/internal/identity"
)

type memRefreshStore struct {
	mu   sync.Mutex
	rows map[string]authority.RefreshTokenRecord
}

func (m *memRefreshStore) InsertRefreshToken(_ context.Context, rec authority.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]authority.RefreshTokenRecord{}
	}
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
	return nil
}

func newTestAuthority() *authority.Authority {
	return authority.New(authority.NewSecretCache("test-secret"), &memRefreshStore{}, time.Hour, 30*24*time.Hour, 5*time.Minute)
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	auth := NewAdminAuth(newTestAuthority())
	called := false
	h := auth.Handle(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthAcceptsValidToken(t *testing.T) {
	auth := newTestAuthority()
	token, err := auth.GenerateAdminToken("admin-1", "root")
	require.NoError(t, err)

	gate := NewAdminAuth(auth)
	var seenID string
	h := gate.Handle(func(w http.ResponseWriter, r *http.Request) {
		id, ok := AdminIDFromContext(r.Context())
		require.True(t, ok)
		seenID = id
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set(authorizationHeader, bearerPrefix+token)
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, "admin-1", seenID)
}

type fakeApiKeyRepo struct {
	keys map[string]identity.ApiKey // by hash
}

func (f *fakeApiKeyRepo) Create(_ context.Context, key identity.ApiKey) error {
	f.keys[key.KeyHash] = key
	return nil
}

func (f *fakeApiKeyRepo) ListByAdmin(_ context.Context, adminID string) ([]identity.ApiKey, error) {
	return nil, nil
}

func (f *fakeApiKeyRepo) Delete(_ context.Context, id, adminID string) error { return nil }

func (f *fakeApiKeyRepo) FindByHash(_ context.Context, hash string) (*identity.ApiKey, error) {
	key, ok := f.keys[hash]
	if !ok {
		return nil, nil
	}
	return &key, nil
}

func TestApiKeyAuthEnforcesScope(t *testing.T) {
	repo := &fakeApiKeyRepo{keys: map[string]identity.ApiKey{}}
	svc := identity.NewApiKeyService(repo)
	raw, _, err := svc.Create(context.Background(), "admin-1", "ci key", []string{"routes:read"})
	require.NoError(t, err)

	gate := NewApiKeyAuth(svc, "stats:read")
	called := false
	h := gate.Handle(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/external/stats", nil)
	req.Header.Set(apiKeyHeader, raw)
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApiKeyAuthAllowsMatchingScope(t *testing.T) {
	repo := &fakeApiKeyRepo{keys: map[string]identity.ApiKey{}}
	svc := identity.NewApiKeyService(repo)
	raw, _, err := svc.Create(context.Background(), "admin-1", "ci key", []string{"stats:read"})
	require.NoError(t, err)

	gate := NewApiKeyAuth(svc, "stats:read")
	called := false
	h := gate.Handle(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/external/stats", nil)
	req.Header.Set(apiKeyHeader, raw)
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.True(t, called)
}
