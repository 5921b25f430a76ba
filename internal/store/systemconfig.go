package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arcauth/gateway/internal/systemconfig"
)

// systemConfigRow is the sqlx scan target; systemconfig.SystemConfig is
// the domain type callers receive, so this package carries no exported
// duplicate of it.
type systemConfigRow struct {
	SMTPHost           string    `db:"smtp_host"`
	SMTPPort           int       `db:"smtp_port"`
	SMTPUsername       string    `db:"smtp_username"`
	SMTPPassword       string    `db:"smtp_password"`
	FromEmail          string    `db:"from_email"`
	FromName           string    `db:"from_name"`
	JWTSecret          string    `db:"jwt_secret"`
	JWTSecretUpdatedAt time.Time `db:"jwt_secret_updated_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type SystemConfigStore struct {
	db *sqlx.DB
}

func NewSystemConfigStore(db *sqlx.DB) *SystemConfigStore {
	return &SystemConfigStore{db: db}
}

// EnsureSeeded inserts the singleton row if absent, seeding it with a
// freshly generated signing secret. Safe to call on every boot.
func (s *SystemConfigStore) EnsureSeeded(ctx context.Context, initialSecret string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO system_config (id, jwt_secret, jwt_secret_updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO NOTHING`,
		initialSecret,
	)
	return err
}

func (s *SystemConfigStore) Load(ctx context.Context) (*systemconfig.SystemConfig, error) {
	var row systemConfigRow
	err := s.db.GetContext(ctx, &row,
		`SELECT smtp_host, smtp_port, smtp_username, smtp_password, from_email, from_name, jwt_secret, jwt_secret_updated_at, updated_at
		 FROM system_config WHERE id = 1`,
	)
	if err != nil {
		return nil, err
	}
	return &systemconfig.SystemConfig{
		SMTPHost: row.SMTPHost, SMTPPort: row.SMTPPort, SMTPUsername: row.SMTPUsername,
		SMTPPassword: row.SMTPPassword, FromEmail: row.FromEmail, FromName: row.FromName,
		JWTSecret: row.JWTSecret, JWTSecretUpdatedAt: row.JWTSecretUpdatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

// RotateSecret is the atomic single-row update the rotation scheduler
// performs: a new secret and its timestamp are written together so a
// reader never observes one without the other.
func (s *SystemConfigStore) RotateSecret(ctx context.Context, newSecret string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE system_config SET jwt_secret = $1, jwt_secret_updated_at = now(), updated_at = now() WHERE id = 1`,
		newSecret,
	)
	return err
}

func (s *SystemConfigStore) UpdateSMTP(ctx context.Context, cfg systemconfig.SystemConfig) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE system_config SET smtp_host = $1, smtp_port = $2, smtp_username = $3, smtp_password = $4, from_email = $5, from_name = $6, updated_at = now()
		 WHERE id = 1`,
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName,
	)
	return err
}
