package systemconfig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/authority"
)

type fakeStore struct {
	cfg SystemConfig
}

func (f *fakeStore) Load(_ context.Context) (*SystemConfig, error) {
	cp := f.cfg
	return &cp, nil
}

func (f *fakeStore) RotateSecret(_ context.Context, newSecret string) error {
	f.cfg.JWTSecret = newSecret
	f.cfg.JWTSecretUpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) UpdateSMTP(_ context.Context, cfg SystemConfig) error {
	f.cfg.SMTPHost, f.cfg.SMTPPort = cfg.SMTPHost, cfg.SMTPPort
	f.cfg.SMTPUsername, f.cfg.SMTPPassword = cfg.SMTPUsername, cfg.SMTPPassword
	f.cfg.FromEmail, f.cfg.FromName = cfg.FromEmail, cfg.FromName
	return nil
}

func TestRotateIfDueSkipsRecentSecret(t *testing.T) {
	store := &fakeStore{cfg: SystemConfig{JWTSecret: "old", JWTSecretUpdatedAt: time.Now()}}
	cache := authority.NewSecretCache("old")
	m := New(store, cache, nil)

	rotated, err := m.RotateIfDue(context.Background())
	require.NoError(t, err)
	assert.False(t, rotated)
	assert.Equal(t, "old", cache.Get())
}

func TestRotateIfDueRotatesStaleSecret(t *testing.T) {
	store := &fakeStore{cfg: SystemConfig{JWTSecret: "old", JWTSecretUpdatedAt: time.Now().Add(-31 * 24 * time.Hour)}}
	cache := authority.NewSecretCache("old")
	m := New(store, cache, nil)

	rotated, err := m.RotateIfDue(context.Background())
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.NotEqual(t, "old", cache.Get())
	assert.Len(t, cache.Get(), 64)
}

func TestRotateNowAlwaysRotates(t *testing.T) {
	store := &fakeStore{cfg: SystemConfig{JWTSecret: "old", JWTSecretUpdatedAt: time.Now()}}
	cache := authority.NewSecretCache("old")
	m := New(store, cache, nil)

	require.NoError(t, m.RotateNow(context.Background()))
	assert.NotEqual(t, "old", cache.Get())
}
