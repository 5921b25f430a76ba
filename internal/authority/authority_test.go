package authority

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/apierr"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]RefreshTokenRecord
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]RefreshTokenRecord)}
}

func (m *memStore) InsertRefreshToken(_ context.Context, rec RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.TokenHash] = rec
	return nil
}

func (m *memStore) FindRefreshTokenByHash(_ context.Context, hash string) (*RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[hash]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) RevokeRefreshTokenByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[hash]
	if !ok {
		return nil
	}
	rec.Revoked = true
	m.rows[hash] = rec
	return nil
}

func testAuthority(store RefreshTokenStore) *Authority {
	secrets := NewSecretCache("test-signing-secret")
	return New(secrets, store, time.Hour, 30*24*time.Hour, 5*time.Minute)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	a := testAuthority(newMemStore())
	tok, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)

	claims, err := a.ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	secrets := NewSecretCache("s")
	a := New(secrets, newMemStore(), -time.Second, time.Hour, time.Minute)
	tok, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(tok)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
}

func TestValidateAccessTokenWrongSecretIsInvalid(t *testing.T) {
	a := testAuthority(newMemStore())
	tok, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)

	a.secrets.Set("a-different-secret")
	_, err = a.ValidateAccessToken(tok)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", apiErr.Code)
}

// TestRefreshTokenLifecycle covers invariant 5: after revoke(t), validate(t)
// returns TokenRevoked, and repeating the revoke stays idempotent.
func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	a := testAuthority(newMemStore())

	tok, err := a.GenerateRefreshToken(ctx, "user-1")
	require.NoError(t, err)

	claims, err := a.ValidateRefreshToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	require.NoError(t, a.RevokeRefreshToken(ctx, tok))

	_, err = a.ValidateRefreshToken(ctx, tok)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_REVOKED", apiErr.Code)

	require.NoError(t, a.RevokeRefreshToken(ctx, tok))
	_, err = a.ValidateRefreshToken(ctx, tok)
	apiErr, ok = err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_REVOKED", apiErr.Code)
}

func TestValidateRefreshTokenUnknownHash(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := testAuthority(store)

	// Structurally valid but never persisted (forged or from another process).
	a2 := testAuthority(store)
	a2.secrets = a.secrets
	tok, err := a2.GenerateAccessToken("user-1", "u1@example.com") // wrong kind, but same signer
	require.NoError(t, err)

	_, err = a.ValidateRefreshToken(ctx, tok)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", apiErr.Code)
}

// TestSecretRotationInvalidatesAccessTokens covers invariant 9 / scenario S6.
func TestSecretRotationInvalidatesAccessTokens(t *testing.T) {
	a := testAuthority(newMemStore())
	tok, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)

	rotated, err := NewSigningSecret()
	require.NoError(t, err)
	a.secrets.Set(rotated)

	_, err = a.ValidateAccessToken(tok)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TOKEN", apiErr.Code)
}

func TestShouldRefresh(t *testing.T) {
	a := testAuthority(newMemStore())

	soon, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)
	claims, err := a.ValidateAccessToken(soon)
	require.NoError(t, err)
	assert.False(t, a.ShouldRefresh(claims), "1h TTL should not trip a 5m threshold")

	a.accessTTL = time.Minute
	fresh, err := a.GenerateAccessToken("user-1", "u1@example.com")
	require.NoError(t, err)
	claims, err = a.ValidateAccessToken(fresh)
	require.NoError(t, err)
	assert.True(t, a.ShouldRefresh(claims), "1m TTL should trip a 5m threshold")
}

func TestNewSigningSecretLength(t *testing.T) {
	s, err := NewSigningSecret()
	require.NoError(t, err)
	assert.Len(t, s, 64)
}
