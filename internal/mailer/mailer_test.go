package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcauth/gateway/internal/identity"
)

func TestRenderVerificationEmailVariesByPurpose(t *testing.T) {
	subject, body := renderVerificationEmail("123456", identity.CodeTypeRegister)
	assert.Equal(t, "Verify your email", subject)
	assert.Contains(t, body, "123456")

	subject, body = renderVerificationEmail("654321", identity.CodeTypePasswordReset)
	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, body, "654321")
}

type erroringSettings struct{}

func (erroringSettings) CurrentSettings(_ context.Context) (Settings, error) {
	return Settings{}, assert.AnError
}

func TestSendVerificationCodePropagatesSettingsError(t *testing.T) {
	m := New(erroringSettings{})
	err := m.SendVerificationCode(context.Background(), "user@example.com", "111111", identity.CodeTypeRegister)
	assert.Error(t, err)
}
