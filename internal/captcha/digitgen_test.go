package captcha

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThenVerifyCorrectAnswer(t *testing.T) {
	g := NewDigitGenerator()
	id, png, err := g.New(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, png)

	answer := g.challenges[id].answer
	assert.True(t, g.Verify(context.Background(), id, answer))
}

func TestVerifyIsSingleUse(t *testing.T) {
	g := NewDigitGenerator()
	id, _, err := g.New(context.Background())
	require.NoError(t, err)
	answer := g.challenges[id].answer

	assert.True(t, g.Verify(context.Background(), id, answer))
	assert.False(t, g.Verify(context.Background(), id, answer))
}

func TestVerifyWrongAnswerFails(t *testing.T) {
	g := NewDigitGenerator()
	id, _, err := g.New(context.Background())
	require.NoError(t, err)

	assert.False(t, g.Verify(context.Background(), id, "000000"))
}

func TestVerifyExpiredChallengeFails(t *testing.T) {
	g := NewDigitGenerator()
	id, _, err := g.New(context.Background())
	require.NoError(t, err)

	g.mu.Lock()
	c := g.challenges[id]
	c.expiresAt = time.Now().Add(-time.Second)
	g.challenges[id] = c
	g.mu.Unlock()

	assert.False(t, g.Verify(context.Background(), id, c.answer))
}

func TestVerifyUnknownIDFails(t *testing.T) {
	g := NewDigitGenerator()
	assert.False(t, g.Verify(context.Background(), "nonexistent", "123456"))
}
