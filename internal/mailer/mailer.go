// Package mailer delivers the one-time verification codes spec §4.6's
// identity services hand it, over SMTP using the credentials held in the
// system_config singleton.
package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/arcauth/gateway/internal/identity"
	"github.com/arcauth/gateway/internal/obslog"
)

// Settings is the subset of internal/systemconfig.SystemConfig this
// package needs, kept as its own type so mailer never imports systemconfig.
type Settings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SettingsSource is satisfied by cmd/gateway's adapter over
// internal/systemconfig.Manager, read on
// every send so an SMTP credential update from the control API takes
// effect without a restart.
type SettingsSource interface {
	CurrentSettings(ctx context.Context) (Settings, error)
}

// SMTPMailer implements identity.Mailer.
type SMTPMailer struct {
	settings SettingsSource
}

func New(settings SettingsSource) *SMTPMailer {
	return &SMTPMailer{settings: settings}
}

var _ identity.Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string, purpose identity.VerificationCodeType) error {
	settings, err := m.settings.CurrentSettings(ctx)
	if err != nil {
		return fmt.Errorf("load smtp settings: %w", err)
	}

	subject, body := renderVerificationEmail(code, purpose)

	msg := mail.NewMsg()
	if err := msg.FromFormat(settings.FromName, settings.FromEmail); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(settings.Host,
		mail.WithPort(settings.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(settings.Username),
		mail.WithPassword(settings.Password),
	)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		obslog.Infra(ctx, "verification email delivery failed", err)
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func renderVerificationEmail(code string, purpose identity.VerificationCodeType) (subject, body string) {
	switch purpose {
	case identity.CodeTypePasswordReset:
		return "Reset your password", fmt.Sprintf(
			"Use this code to reset your password: %s\n\nThis code expires in 10 minutes and can be used a maximum of %d times.",
			code, identity.MaxVerificationAttempts,
		)
	default:
		return "Verify your email", fmt.Sprintf(
			"Use this code to finish creating your account: %s\n\nThis code expires in 10 minutes and can be used a maximum of %d times.",
			code, identity.MaxVerificationAttempts,
		)
	}
}
