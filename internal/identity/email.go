package identity

import (
	"net/mail"
	"strings"
)

// MaxEmailLen is RFC 5321's overall address length ceiling.
const MaxEmailLen = 254

// EmailValidator enforces the spec's address policy: a length cap, RFC
// 5321 local/domain structure, and an optional domain allow-list.
// Built once at boot from config.Config's configured domains and shared
// by every call site that accepts an email from outside.
type EmailValidator struct {
	allowedDomains map[string]struct{}
}

// NewEmailValidator builds a validator from the configured allow-list. An
// empty list disables the domain check entirely, accepting any
// structurally valid address.
func NewEmailValidator(allowedDomains []string) *EmailValidator {
	set := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &EmailValidator{allowedDomains: set}
}

// Valid reports whether email satisfies the length cap, RFC 5321
// local/domain structure, and the domain allow-list when one is
// configured. Callers are expected to have already lower-cased and
// trimmed email (see normalizeEmail).
func (v *EmailValidator) Valid(email string) bool {
	if email == "" || len(email) > MaxEmailLen {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndexByte(email, '@')
	local, domain := email[:at], email[at+1:]
	if local == "" || domain == "" || !validDomain(domain) {
		return false
	}

	if len(v.allowedDomains) == 0 {
		return true
	}
	_, ok := v.allowedDomains[domain]
	return ok
}

// validDomain applies the RFC 5321 domain-part rules net/mail doesn't:
// at least one label separator, and every label alphanumeric-or-hyphen
// without a leading or trailing hyphen.
func validDomain(domain string) bool {
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !isAlphanumericOrHyphen(r) {
				return false
			}
		}
	}
	return true
}

func isAlphanumericOrHyphen(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-':
		return true
	default:
		return false
	}
}
