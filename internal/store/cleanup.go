package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CleanupStore groups the housekeeping queries the 60-minute scheduler
// runs; it does not own a domain package of its own.
type CleanupStore struct {
	db *sqlx.DB
}

func NewCleanupStore(db *sqlx.DB) *CleanupStore {
	return &CleanupStore{db: db}
}

// DeleteExpiredVerificationCodes removes codes past expiry regardless of
// whether they were ever used, per spec §6.
func (s *CleanupStore) DeleteExpiredVerificationCodes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
