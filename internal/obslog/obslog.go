// Package obslog wraps go-zero's logx with the five-class taxonomy from
// the error handling design: input validation and resource state log at
// info, authentication/authorization at warn with a security marker,
// rate/limit at warn, and infrastructure at error with the full error
// chain. Nothing here ever logs raw token or secret bytes.
package obslog

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
)

// Info logs input-validation and resource-state events (404/409/…).
func Info(ctx context.Context, msg string, fields ...logx.LogField) {
	logx.WithContext(ctx).Infow(msg, fields...)
}

// Security logs authentication/authorization failures. It always stamps a
// "marker":"security" field so these lines are easy to alert on, and takes
// a truncated identifier instead of full token/secret material.
func Security(ctx context.Context, msg string, fields ...logx.LogField) {
	all := append([]logx.LogField{logx.Field("marker", "security")}, fields...)
	logx.WithContext(ctx).Sloww(msg, all...)
}

// RateLimited logs a limiter rejection.
func RateLimited(ctx context.Context, msg string, fields ...logx.LogField) {
	logx.WithContext(ctx).Sloww(msg, fields...)
}

// Infra logs database/SMTP/internal failures with full debug context.
func Infra(ctx context.Context, msg string, err error, fields ...logx.LogField) {
	all := append([]logx.LogField{logx.Field("error", err.Error())}, fields...)
	logx.WithContext(ctx).Errorw(msg, all...)
}

// TruncatedHash returns the first n hex characters of a hash for safe
// logging (e.g. a refresh-token HMAC or an API key hash), never the full
// value and never the raw secret.
func TruncatedHash(hash string, n int) string {
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
