// Package scheduler runs the two detached background loops spec §4.7
// names: a 24-hour secret-rotation tick and a 60-minute database cleanup
// tick. Both log and continue on failure rather than terminating the
// process, the same discipline the teacher's token-maker cleanup
// goroutines follow.
package scheduler

import (
	"context"
	"time"

	"github.com/arcauth/gateway/internal/obslog"
)

const (
	rotationInterval = 24 * time.Hour
	cleanupInterval  = 60 * time.Minute
	opTimeout        = 30 * time.Second
)

// tickers are package vars so tests can shrink the interval without
// exposing it on every caller's signature.
var (
	rotationTick = rotationInterval
	cleanupTick  = cleanupInterval
)

// SecretRotator is implemented by internal/systemconfig.Manager.
type SecretRotator interface {
	RotateIfDue(ctx context.Context) (bool, error)
}

// Cleaner is implemented by internal/store.CleanupStore; the sweep's other
// input, RefreshTokenCleaner, by internal/store.RefreshTokenStore.
type Cleaner interface {
	DeleteExpiredVerificationCodes(ctx context.Context) (int64, error)
}

type RefreshTokenCleaner interface {
	CleanupExpiredOrRevoked(ctx context.Context) (int64, error)
}

// RunSecretRotation starts the daily rotation tick. It returns
// immediately; the loop runs until ctx is cancelled.
func RunSecretRotation(ctx context.Context, rotator SecretRotator) {
	go func() {
		ticker := time.NewTicker(rotationTick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runWithTimeout(ctx, func(tickCtx context.Context) error {
					rotated, err := rotator.RotateIfDue(tickCtx)
					if err == nil && rotated {
						obslog.Info(tickCtx, "scheduled secret rotation completed")
					}
					return err
				})
			}
		}
	}()
}

// RunCleanup starts the hourly verification-code and refresh-token sweep.
func RunCleanup(ctx context.Context, codes Cleaner, tokens RefreshTokenCleaner) {
	go func() {
		ticker := time.NewTicker(cleanupTick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runWithTimeout(ctx, func(tickCtx context.Context) error {
					_, err := codes.DeleteExpiredVerificationCodes(tickCtx)
					return err
				})
				runWithTimeout(ctx, func(tickCtx context.Context) error {
					_, err := tokens.CleanupExpiredOrRevoked(tickCtx)
					return err
				})
			}
		}
	}()
}

func runWithTimeout(parent context.Context, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, opTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		obslog.Infra(ctx, "scheduled maintenance task failed", err)
	}
}
