package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/arcauth/gateway/internal/apierr"
)

const verificationCodeTTL = 10 * time.Minute

// UserService implements the registration, password-reset, and lookup
// operations of spec §4.6's User discipline. SRP login itself is driven by
// internal/srp via the LookupSRP adapter below; UserService owns the
// surrounding lifecycle (codes, transactional redemption, email delivery).
type UserService struct {
	users  UserRepository
	codes  VerificationCodeRepository
	mailer Mailer
	email  *EmailValidator
}

func NewUserService(users UserRepository, codes VerificationCodeRepository, mailer Mailer, email *EmailValidator) *UserService {
	return &UserService{users: users, codes: codes, mailer: mailer, email: email}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestRegistration sends a fresh 6-digit code for a not-yet-registered
// email. It does not reveal whether the email is already taken; that is
// surfaced only at verify time, matching the spec's enumeration-resistant
// framing for the parallel password-reset flow.
func (s *UserService) RequestRegistration(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !s.email.Valid(email) {
		return apierr.InvalidEmail()
	}

	code, err := generateCode()
	if err != nil {
		return apierr.Internal()
	}

	if err := s.codes.Create(ctx, VerificationCode{
		Email:     email,
		Code:      code,
		CodeType:  CodeTypeRegister,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	}); err != nil {
		return apierr.Internal()
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code, CodeTypeRegister); err != nil {
		return apierr.Internal()
	}
	return nil
}

// VerifyRegistration redeems a registration code and creates the user
// inside a single transaction managed by the repository implementation.
func (s *UserService) VerifyRegistration(ctx context.Context, email, code, saltHex, verifierHex string) (*User, error) {
	email = normalizeEmail(email)
	if saltHex == "" || verifierHex == "" {
		return nil, apierr.InvalidRequest("salt and verifier are required")
	}

	user, err := s.codes.RedeemRegistration(ctx, email, code, saltHex, verifierHex)
	switch {
	case err == nil:
		return user, nil
	case err == ErrTooManyAttempts, err == ErrCodeInvalid:
		return nil, apierr.InvalidCode()
	case err == ErrEmailExists:
		return nil, apierr.EmailExists()
	default:
		return nil, apierr.Internal()
	}
}

// RequestPasswordReset always reports success to avoid confirming whether
// an email is registered.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !s.email.Valid(email) {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil || user == nil {
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return nil
	}
	if err := s.codes.Create(ctx, VerificationCode{
		Email:     email,
		Code:      code,
		CodeType:  CodeTypePasswordReset,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	}); err != nil {
		return nil
	}
	_ = s.mailer.SendVerificationCode(ctx, email, code, CodeTypePasswordReset)
	return nil
}

func (s *UserService) ConfirmPasswordReset(ctx context.Context, email, code, saltHex, verifierHex string) (*User, error) {
	email = normalizeEmail(email)
	if saltHex == "" || verifierHex == "" {
		return nil, apierr.InvalidRequest("salt and verifier are required")
	}

	user, err := s.codes.RedeemPasswordReset(ctx, email, code, saltHex, verifierHex)
	switch {
	case err == nil:
		return user, nil
	case err == ErrTooManyAttempts, err == ErrCodeInvalid:
		return nil, apierr.InvalidCode()
	default:
		return nil, apierr.Internal()
	}
}

func (s *UserService) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apierr.Internal()
	}
	if user == nil {
		return nil, apierr.NotFound("user not found")
	}
	return user, nil
}

const maxUserListPage = 100

// ListUsers backs the external listing endpoint, clamping the page
// size so a misbehaving caller can't force an unbounded table scan.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 || limit > maxUserListPage {
		limit = maxUserListPage
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.ListPaged(ctx, limit, offset)
	if err != nil {
		return nil, apierr.Internal()
	}
	return users, nil
}

// LookupSRP adapts UserRepository to internal/srp.VerifierLookup.
func (s *UserService) LookupSRP(ctx context.Context, email string) (userID, salt, verifierHex string, err error) {
	user, findErr := s.users.FindByEmail(ctx, normalizeEmail(email))
	if findErr != nil || user == nil {
		return "", "", "", apierr.InvalidCredentials()
	}
	return user.ID, user.SRPSalt, user.SRPVerifier, nil
}
