package identity

import "context"

// UserRepository covers simple lookups; the compound registration and
// password-reset operations that need row locking live on
// VerificationCodeRepository instead, since they span both tables inside
// one transaction.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListPaged(ctx context.Context, limit, offset int) ([]*User, error)
}

// VerificationCodeRepository owns the transactional redemption path
// described in spec §6: lock the code row FOR UPDATE SKIP LOCKED,
// increment attempts, reject at MaxVerificationAttempts, mark used, and
// apply the resulting user mutation, all atomically.
type VerificationCodeRepository interface {
	Create(ctx context.Context, code VerificationCode) error
	RedeemRegistration(ctx context.Context, email, code, saltHex, verifierHex string) (*User, error)
	RedeemPasswordReset(ctx context.Context, email, code, saltHex, verifierHex string) (*User, error)
}

type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	FindByID(ctx context.Context, id string) (*Admin, error)
	Count(ctx context.Context) (int, error)
	CreateWithToken(ctx context.Context, username, passwordHash, rawToken string) (*Admin, error)
	UpdatePassword(ctx context.Context, adminID, passwordHash string) error
}

// AdminRegistrationTokenRepository issues the single-use bootstrap token
// described in spec §4.6: generated only when the admin count is zero.
type AdminRegistrationTokenRepository interface {
	CreateBootstrapToken(ctx context.Context) (rawToken string, err error)
}

type ApiKeyRepository interface {
	Create(ctx context.Context, key ApiKey) error
	ListByAdmin(ctx context.Context, adminID string) ([]ApiKey, error)
	Delete(ctx context.Context, id, adminID string) error
	FindByHash(ctx context.Context, keyHash string) (*ApiKey, error)
}
