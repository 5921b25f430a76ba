// Package systemconfig owns the persistent singleton row holding the
// signing secret and SMTP settings (spec §3's SystemConfig), and the
// rotation logic that keeps internal/authority's in-memory secret cache
// consistent with it.
package systemconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/obslog"
)

const rotationAge = 30 * 24 * time.Hour

// RotationConfirmation is the literal string the control API requires in
// the request body of an on-demand rotation, per spec §6.
const RotationConfirmation = "确定刷新"

// Store is the persistence boundary Manager depends on, implemented by
// internal/store.SystemConfigStore.
type Store interface {
	Load(ctx context.Context) (*SystemConfig, error)
	RotateSecret(ctx context.Context, newSecret string) error
	UpdateSMTP(ctx context.Context, cfg SystemConfig) error
}

// SystemConfig mirrors internal/store's row shape without importing it,
// keeping this package storage-agnostic the way internal/identity does.
type SystemConfig struct {
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	FromEmail          string
	FromName           string
	JWTSecret          string
	JWTSecretUpdatedAt time.Time
	UpdatedAt          time.Time
}

const rotationChannel = "arcauth:secret-rotated"

// Manager wraps the system_config row with the cache-invalidation and
// optional cross-node notification rotation requires.
type Manager struct {
	store   Store
	cache   *authority.SecretCache
	redis   *redis.Client // optional, nil disables pub/sub per §12.5
}

func New(store Store, cache *authority.SecretCache, redisClient *redis.Client) *Manager {
	return &Manager{store: store, cache: cache, redis: redisClient}
}

// RotateIfDue rotates the signing secret when the persisted
// jwt_secret_updated_at is at least 30 days old. Called by the daily
// rotation scheduler tick.
func (m *Manager) RotateIfDue(ctx context.Context) (bool, error) {
	cfg, err := m.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load system config: %w", err)
	}
	if time.Since(cfg.JWTSecretUpdatedAt) < rotationAge {
		return false, nil
	}
	return true, m.rotate(ctx)
}

// RotateNow rotates unconditionally; used by the control API's on-demand
// rotation endpoint after the caller has verified the confirmation string.
func (m *Manager) RotateNow(ctx context.Context) error {
	return m.rotate(ctx)
}

func (m *Manager) rotate(ctx context.Context) error {
	secret, err := authority.NewSigningSecret()
	if err != nil {
		return fmt.Errorf("generate signing secret: %w", err)
	}
	if err := m.store.RotateSecret(ctx, secret); err != nil {
		return fmt.Errorf("persist rotated secret: %w", err)
	}
	m.cache.Set(secret)
	obslog.Info(ctx, "jwt signing secret rotated")
	m.publishRotation(ctx)
	return nil
}

// publishRotation is best-effort: a missed notification only means a
// peer node waits for its own next scheduled reload, which is still
// correct per spec §9's staleness-window argument.
func (m *Manager) publishRotation(ctx context.Context) {
	if m.redis == nil {
		return
	}
	if err := m.redis.Publish(ctx, rotationChannel, "rotated").Err(); err != nil {
		obslog.Infra(ctx, "failed to publish secret-rotated notification", err)
	}
}

// Subscribe starts a goroutine that reloads the cache whenever another
// node publishes a rotation, so this node's staleness window is bounded
// by pub/sub latency instead of its own next scheduled reload. No-op
// when Redis is not configured.
func (m *Manager) Subscribe(ctx context.Context) {
	if m.redis == nil {
		return
	}
	sub := m.redis.Subscribe(ctx, rotationChannel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				cfg, err := m.store.Load(ctx)
				if err != nil {
					obslog.Infra(ctx, "failed to reload system config after rotation notice", err)
					continue
				}
				m.cache.Set(cfg.JWTSecret)
				obslog.Info(ctx, "signing secret cache refreshed from peer rotation notice")
			}
		}
	}()
}

// Load returns the current singleton row; internal/mailer reads its SMTP
// settings through it (via cmd/gateway's adapter) on every send.
func (m *Manager) Load(ctx context.Context) (*SystemConfig, error) {
	return m.store.Load(ctx)
}

// UpdateSMTP persists new SMTP delivery settings; the next mailer send
// reads them through Load, since internal/mailer never caches settings
// itself (see internal/mailer.SettingsSource).
func (m *Manager) UpdateSMTP(ctx context.Context, cfg SystemConfig) error {
	return m.store.UpdateSMTP(ctx, cfg)
}
