package identity

import "context"

// Mailer is implemented by internal/mailer; kept as an interface here so
// the registration and password-reset flows never import the SMTP layer
// directly.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string, purpose VerificationCodeType) error
}
