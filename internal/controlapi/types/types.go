// Package types holds the control API's request/response DTOs, the way
// the teacher's goctl-scaffolded internal/types/types.go does — one flat
// file of plain structs with json tags, kept separate from the logic that
// fills them in.
package types

// --- public auth endpoints (spec §6) ---

type RegisterRequest struct {
	Email string `json:"email"`
}

type RegisterVerifyRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

type LoginInitRequest struct {
	Email        string `json:"email"`
	ClientPublic string `json:"client_public"`
}

type LoginInitResponse struct {
	SessionID    string `json:"session_id"`
	Salt         string `json:"salt"`
	ServerPublic string `json:"server_public"`
}

type LoginVerifyRequest struct {
	SessionID   string `json:"session_id"`
	ClientProof string `json:"client_proof"`
}

type AuthResponse struct {
	User         UserProfile `json:"user"`
	ServerProof  string      `json:"server_proof,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

type UserProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

type CaptchaResponse struct {
	CaptchaID string `json:"captcha_id"`
	Image     string `json:"image"`
}

type OkResponse struct {
	Success bool `json:"success"`
}

// --- admin auth + self-service (§12.4) ---

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	AccessToken string      `json:"access_token"`
	Admin       AdminProfile `json:"admin"`
}

type AdminProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type AdminCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type AdminPasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ApiKeyCreateRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type ApiKeyCreateResponse struct {
	RawKey string         `json:"raw_key"`
	Key    ApiKeySummary  `json:"key"`
}

type ApiKeySummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	KeyPrefix   string   `json:"key_prefix"`
	Permissions []string `json:"permissions"`
}

type ApiKeyListResponse struct {
	Keys []ApiKeySummary `json:"keys"`
}

type ApiKeyDeleteRequest struct {
	ID string `path:"id"`
}

// --- routes / rate-limit CRUD (§12.2) ---

type RouteRequest struct {
	ID              string `path:"id,optional"`
	PathPrefix      string `json:"path_prefix"`
	UpstreamAddress string `json:"upstream_address"`
	RequireAuth     bool   `json:"require_auth"`
	StripPrefix     string `json:"strip_prefix,optional"`
	Enabled         bool   `json:"enabled"`
}

type RouteResponse struct {
	ID              string `json:"id"`
	PathPrefix      string `json:"path_prefix"`
	UpstreamAddress string `json:"upstream_address"`
	RequireAuth     bool   `json:"require_auth"`
	StripPrefix     string `json:"strip_prefix"`
	Enabled         bool   `json:"enabled"`
}

type RouteListResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type RouteIDRequest struct {
	ID string `path:"id"`
}

type RateLimitRuleRequest struct {
	ID          string `path:"id,optional"`
	Name        string `json:"name"`
	PathPattern string `json:"path_pattern"`
	LimitBy     string `json:"limit_by"`
	MaxRequests int    `json:"max_requests"`
	WindowSecs  int    `json:"window_secs"`
	Enabled     bool   `json:"enabled"`
}

type RateLimitRuleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PathPattern string `json:"path_pattern"`
	LimitBy     string `json:"limit_by"`
	MaxRequests int    `json:"max_requests"`
	WindowSecs  int    `json:"window_secs"`
	Enabled     bool   `json:"enabled"`
}

type RateLimitRuleListResponse struct {
	Rules []RateLimitRuleResponse `json:"rules"`
}

type SMTPConfigRequest struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

type SecretRotateRequest struct {
	Confirmation string `json:"confirmation"`
}

// --- external read-only listings ---

type ListUsersRequest struct {
	Limit  int `form:"limit,optional"`
	Offset int `form:"offset,optional"`
}

type UserListResponse struct {
	Users []UserProfile `json:"users"`
}

// --- stats (§12.1) ---

type StatsResponse struct {
	TotalUsers          int64            `json:"total_users"`
	UsersLast24h        int64            `json:"users_last_24h"`
	ActiveRefreshTokens int64            `json:"active_refresh_tokens"`
	TotalRequestsServed int64            `json:"total_requests_served"`
	RequestsByUpstream  map[string]int64 `json:"requests_by_upstream"`
}
