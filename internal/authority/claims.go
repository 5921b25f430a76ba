package authority

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the payload of an access token: sub, email, exp, iat,
// jti (per spec §4.2). jti lives in the standard RegisteredClaims.ID field.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims carries no payload beyond sub/exp/iat/jti; the token
// itself is opaque to the holder and only resolvable via its HMAC hash.
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
}

// AdminTokenClaims mirrors AccessTokenClaims but for the administrator
// surface; Role is always "admin" and exists so downstream consumers never
// need to special-case admin claims by shape alone.
type AdminTokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
