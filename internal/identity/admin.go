package identity

import (
	"context"
	"strings"

	"github.com/arcauth/gateway/internal/apierr"
)

const minUsernameLen = 3

// AdminService implements the bootstrap and self-service discipline of
// spec §4.6: admin creation is always gated by a single-use registration
// token, and password changes go through the same argon2id path as
// creation.
type AdminService struct {
	admins AdminRepository
	tokens AdminRegistrationTokenRepository
}

func NewAdminService(admins AdminRepository, tokens AdminRegistrationTokenRepository) *AdminService {
	return &AdminService{admins: admins, tokens: tokens}
}

// Bootstrap is called once at boot. If no admin exists yet it mints a
// fresh 24-hour registration token and returns it for the boot banner; if
// an admin already exists it returns ("", nil) and mints nothing, per the
// spec's "no such token is generated when any admin exists" invariant.
func (s *AdminService) Bootstrap(ctx context.Context) (string, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}
	return s.tokens.CreateBootstrapToken(ctx)
}

func (s *AdminService) CreateWithToken(ctx context.Context, username, password, rawToken string) (*Admin, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return nil, apierr.InvalidRequest("username must be at least 3 characters")
	}
	if !meetsPasswordPolicy(password) {
		return nil, apierr.WeakPassword()
	}
	if rawToken == "" {
		return nil, apierr.Forbidden("registration token required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apierr.Internal()
	}

	admin, err := s.admins.CreateWithToken(ctx, username, hash, rawToken)
	switch {
	case err == nil:
		return admin, nil
	case err == ErrTokenInvalid:
		return nil, apierr.Forbidden("invalid or expired registration token")
	case err == ErrEmailExists:
		return nil, apierr.InvalidRequest("username already taken")
	default:
		return nil, apierr.Internal()
	}
}

func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*Admin, error) {
	admin, err := s.admins.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apierr.Internal()
	}
	if admin == nil || !VerifyPassword(password, admin.PasswordHash) {
		return nil, apierr.InvalidCredentials()
	}
	return admin, nil
}

func (s *AdminService) FindByID(ctx context.Context, id string) (*Admin, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		return nil, apierr.Internal()
	}
	if admin == nil {
		return nil, apierr.NotFound("admin not found")
	}
	return admin, nil
}

func (s *AdminService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	admin, err := s.FindByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !VerifyPassword(currentPassword, admin.PasswordHash) {
		return apierr.InvalidCredentials()
	}
	if !meetsPasswordPolicy(newPassword) {
		return apierr.WeakPassword()
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return apierr.Internal()
	}
	if err := s.admins.UpdatePassword(ctx, adminID, hash); err != nil {
		return apierr.Internal()
	}
	return nil
}
