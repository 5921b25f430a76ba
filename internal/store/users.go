package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/identity"
)

// UserStore implements identity.UserRepository and
// identity.VerificationCodeRepository against Postgres.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	ID            uuid.UUID `db:"id"`
	Email         string    `db:"email"`
	EmailVerified bool      `db:"email_verified"`
	SRPSalt       string    `db:"srp_salt"`
	SRPVerifier   string    `db:"srp_verifier"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *identity.User {
	return &identity.User{
		ID:            r.ID.String(),
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		SRPSalt:       r.SRPSalt,
		SRPVerifier:   r.SRPVerifier,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT id, email, email_verified, srp_salt, srp_verifier, created_at, updated_at FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logx.Errorf("failed to get user by email: %v", err)
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*identity.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT id, email, email_verified, srp_salt, srp_verifier, created_at, updated_at FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logx.Errorf("failed to get user by id: %v", err)
		return nil, err
	}
	return row.toDomain(), nil
}

// ListPaged backs the /api/external/users listing, ordered newest
// first so a fixed page size keeps returning fresh signups as more arrive.
func (s *UserStore) ListPaged(ctx context.Context, limit, offset int) ([]*identity.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, email, email_verified, srp_salt, srp_verifier, created_at, updated_at
		 FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		logx.Errorf("failed to list users: %v", err)
		return nil, err
	}
	out := make([]*identity.User, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		logx.Errorf("failed to check email existence: %v", err)
		return false, err
	}
	return exists, nil
}

func (s *UserStore) Create(ctx context.Context, code identity.VerificationCode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_codes (id, email, code, code_type, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), code.Email, code.Code, string(code.CodeType), code.ExpiresAt,
	)
	if err != nil {
		logx.Errorf("failed to create verification code: %v", err)
	}
	return err
}

// RedeemRegistration implements the §6 transaction: lock the latest
// unused code row FOR UPDATE SKIP LOCKED, bump attempts, reject at the
// attempt ceiling, mark used, and insert the new user — all atomically.
func (s *UserStore) RedeemRegistration(ctx context.Context, email, code, saltHex, verifierHex string) (*identity.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row, err := lockAndCountCode(ctx, tx, email, identity.CodeTypeRegister)
	if err != nil {
		return nil, err
	}
	if row.Code != code {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, identity.ErrCodeInvalid
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrEmailExists
	}

	id := uuid.New()
	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, email_verified, srp_salt, srp_verifier, created_at, updated_at) VALUES ($1, $2, true, $3, $4, $5, $5)`,
		id, email, saltHex, verifierHex, now,
	); err != nil {
		return nil, err
	}

	if err := markCodeUsed(ctx, tx, row.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &identity.User{
		ID: id.String(), Email: email, EmailVerified: true,
		SRPSalt: saltHex, SRPVerifier: verifierHex,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// RedeemPasswordReset applies the same code-locking discipline as
// RedeemRegistration but updates an existing user's SRP credentials
// instead of inserting a new row.
func (s *UserStore) RedeemPasswordReset(ctx context.Context, email, code, saltHex, verifierHex string) (*identity.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row, err := lockAndCountCode(ctx, tx, email, identity.CodeTypePasswordReset)
	if err != nil {
		return nil, err
	}
	if row.Code != code {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, identity.ErrCodeInvalid
	}

	now := time.Now()
	var u userRow
	err = tx.GetContext(ctx, &u,
		`UPDATE users SET srp_salt = $1, srp_verifier = $2, updated_at = $3 WHERE email = $4
		 RETURNING id, email, email_verified, srp_salt, srp_verifier, created_at, updated_at`,
		saltHex, verifierHex, now, email,
	)
	if err == sql.ErrNoRows {
		return nil, identity.ErrCodeInvalid
	}
	if err != nil {
		return nil, err
	}

	if err := markCodeUsed(ctx, tx, row.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u.toDomain(), nil
}

type codeRow struct {
	ID       uuid.UUID `db:"id"`
	Code     string    `db:"code"`
	Attempts int       `db:"attempts"`
}

func lockAndCountCode(ctx context.Context, tx *sqlx.Tx, email string, codeType identity.VerificationCodeType) (codeRow, error) {
	var row codeRow
	err := tx.GetContext(ctx, &row,
		`SELECT id, code, attempts FROM verification_codes
		 WHERE email = $1 AND code_type = $2 AND used = false AND expires_at > now()
		 ORDER BY created_at DESC LIMIT 1 FOR UPDATE SKIP LOCKED`,
		email, string(codeType),
	)
	if err == sql.ErrNoRows {
		return codeRow{}, identity.ErrCodeInvalid
	}
	if err != nil {
		return codeRow{}, err
	}

	row.Attempts++
	if _, err := tx.ExecContext(ctx, `UPDATE verification_codes SET attempts = $1 WHERE id = $2`, row.Attempts, row.ID); err != nil {
		return codeRow{}, err
	}
	if row.Attempts >= identity.MaxVerificationAttempts {
		return row, identity.ErrTooManyAttempts
	}
	return row, nil
}

func markCodeUsed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE verification_codes SET used = true WHERE id = $1`, id)
	return err
}
