package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	email_verified BOOLEAN NOT NULL DEFAULT false,
	srp_salt TEXT NOT NULL,
	srp_verifier TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verification_codes (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	code TEXT NOT NULL,
	code_type TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	expires_at TIMESTAMPTZ NOT NULL,
	used BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_verification_codes_email_type ON verification_codes (email, code_type);

CREATE TABLE IF NOT EXISTS admins (
	id UUID PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS admin_registration_tokens (
	id UUID PRIMARY KEY,
	token_hash TEXT UNIQUE NOT NULL,
	used BOOLEAN NOT NULL DEFAULT false,
	used_by UUID,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS api_keys (
	id UUID PRIMARY KEY,
	admin_id UUID NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	key_hash TEXT UNIQUE NOT NULL,
	key_prefix TEXT NOT NULL,
	permissions TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash TEXT UNIQUE NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	revoked BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS proxy_routes (
	id UUID PRIMARY KEY,
	path_prefix TEXT NOT NULL,
	upstream_address TEXT NOT NULL,
	require_auth BOOLEAN NOT NULL DEFAULT true,
	strip_prefix TEXT,
	enabled BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rate_limit_rules (
	id UUID PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	path_pattern TEXT NOT NULL,
	limit_by TEXT NOT NULL,
	max_requests INTEGER NOT NULL,
	window_secs INTEGER NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS system_config (
	id INTEGER PRIMARY KEY DEFAULT 1,
	smtp_host TEXT NOT NULL DEFAULT '',
	smtp_port INTEGER NOT NULL DEFAULT 587,
	smtp_username TEXT NOT NULL DEFAULT '',
	smtp_password TEXT NOT NULL DEFAULT '',
	from_email TEXT NOT NULL DEFAULT '',
	from_name TEXT NOT NULL DEFAULT '',
	jwt_secret TEXT NOT NULL,
	jwt_secret_updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT system_config_singleton CHECK (id = 1)
);
`
