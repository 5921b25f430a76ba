// Package captcha defines the CAPTCHA collaborator spec's `GET
// /auth/captcha` consumes. The spec marks the image generator itself
// out of scope; this package exposes the Generator interface plus a
// minimal reference implementation (stdlib image plus golang.org/x/image
// fonts) so the control API and
// its tests have something real to exercise end to end. An operator is
// expected to swap DigitGenerator for a production-grade library.
package captcha

import "context"

// Generator issues new challenges and verifies a submitted answer.
type Generator interface {
	// New creates a challenge, returning its id and a base64-encoded PNG.
	New(ctx context.Context) (id, pngBase64 string, err error)
	// Verify reports whether answer solves the named challenge. Each
	// challenge is single-use: a correct answer or a failed attempt both
	// consume it, matching the one-shot discipline verification codes use.
	Verify(ctx context.Context, id, answer string) bool
}
