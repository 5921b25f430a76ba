package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/identity"
)

const bootstrapTokenTTL = 24 * time.Hour

// AdminStore implements identity.AdminRepository and
// identity.AdminRegistrationTokenRepository.
type AdminStore struct {
	db *sqlx.DB
}

func NewAdminStore(db *sqlx.DB) *AdminStore {
	return &AdminStore{db: db}
}

type adminRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r adminRow) toDomain() *identity.Admin {
	return &identity.Admin{
		ID: r.ID.String(), Username: r.Username, PasswordHash: r.PasswordHash,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*identity.Admin, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row, `SELECT id, username, password_hash, created_at, updated_at FROM admins WHERE username = $1`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logx.Errorf("failed to get admin by username: %v", err)
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *AdminStore) FindByID(ctx context.Context, id string) (*identity.Admin, error) {
	var row adminRow
	err := s.db.GetContext(ctx, &row, `SELECT id, username, password_hash, created_at, updated_at FROM admins WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logx.Errorf("failed to get admin by id: %v", err)
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *AdminStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM admins`)
	return count, err
}

// CreateWithToken implements the §4.6 bootstrap transaction: an unused,
// non-expired registration token (matched by SHA-256 of the presented
// string) is required and marked used atomically with the admin insert.
func (s *AdminStore) CreateWithToken(ctx context.Context, username, passwordHash, rawToken string) (*identity.Admin, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	digest := sha256.Sum256([]byte(rawToken))
	tokenHash := hex.EncodeToString(digest[:])

	var tokenID uuid.UUID
	err = tx.GetContext(ctx, &tokenID,
		`SELECT id FROM admin_registration_tokens
		 WHERE token_hash = $1 AND used = false AND expires_at > now()
		 FOR UPDATE SKIP LOCKED`,
		tokenHash,
	)
	if err == sql.ErrNoRows {
		return nil, identity.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admins WHERE username = $1)`, username); err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrEmailExists
	}

	id := uuid.New()
	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		id, username, passwordHash, now,
	); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE admin_registration_tokens SET used = true, used_by = $1 WHERE id = $2`,
		id, tokenID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &identity.Admin{ID: id.String(), Username: username, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *AdminStore) UpdatePassword(ctx context.Context, adminID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE admins SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, adminID)
	return err
}

// CreateBootstrapToken mints a fresh registration token; called only when
// the admin count is zero (enforced by the caller, identity.AdminService).
func (s *AdminStore) CreateBootstrapToken(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(buf)
	digest := sha256.Sum256([]byte(raw))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_registration_tokens (id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		uuid.New(), hex.EncodeToString(digest[:]), time.Now().Add(bootstrapTokenTTL),
	)
	if err != nil {
		logx.Errorf("failed to create bootstrap token: %v", err)
		return "", err
	}
	return raw, nil
}
