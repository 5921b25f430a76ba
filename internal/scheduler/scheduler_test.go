package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRotator struct {
	calls int32
}

func (f *fakeRotator) RotateIfDue(_ context.Context) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	return true, nil
}

type fakeCodeCleaner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCodeCleaner) DeleteExpiredVerificationCodes(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

type fakeTokenCleaner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTokenCleaner) CleanupExpiredOrRevoked(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func TestRunSecretRotationTicksAndStopsOnCancel(t *testing.T) {
	original := rotationTick
	rotationTick = 10 * time.Millisecond
	defer func() { rotationTick = original }()

	ctx, cancel := context.WithCancel(context.Background())
	rotator := &fakeRotator{}
	RunSecretRotation(ctx, rotator)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&rotator.calls), int32(2))
}

func TestRunCleanupTicksBothCleaners(t *testing.T) {
	original := cleanupTick
	cleanupTick = 10 * time.Millisecond
	defer func() { cleanupTick = original }()

	ctx, cancel := context.WithCancel(context.Background())
	codes := &fakeCodeCleaner{}
	tokens := &fakeTokenCleaner{}
	RunCleanup(ctx, codes, tokens)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	codes.mu.Lock()
	tokens.mu.Lock()
	defer codes.mu.Unlock()
	defer tokens.mu.Unlock()
	assert.GreaterOrEqual(t, codes.calls, 2)
	assert.GreaterOrEqual(t, tokens.calls, 2)
}
