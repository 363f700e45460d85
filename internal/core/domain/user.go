package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// User is an account in the directory. A persisted user always references a
// role; whether a user is a superuser is derived solely from that role's
// name — there is no separate flag that could drift out of sync.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	IsActive     bool      `json:"is_active"`
	AvatarRef    string    `json:"avatar_ref,omitempty"`
	// LastLogin is zero until the first successful login.
	LastLogin time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// disposableEmailDomains are rejected at registration.
var disposableEmailDomains = map[string]struct{}{
	"tempmail.com":      {},
	"throwaway.email":   {},
	"10minutemail.com":  {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"trashmail.com":     {},
}

// NormalizeEmail lowercases and trims an email address. All storage and
// lookups go through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether a normalized email address is well-formed.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsDisposableEmail reports whether the email's domain is on the denylist.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, found := disposableEmailDomains[email[at+1:]]
	return found
}

// EmailLocalPart returns the text before the "@", lowercased.
func EmailLocalPart(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return strings.ToLower(email)
	}
	return strings.ToLower(email[:at])
}

// ValidateFullName normalizes and validates a full name. The name must
// decompose into at least two segments under space/underscore separation or
// CamelCase boundaries ("Jean Dupont", "Jean_Dupont" and "JeanDupont" all
// pass; "Jean" does not). Returns the normalized name and whether it passed.
func ValidateFullName(raw string) (string, bool) {
	name := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
	if name == "" {
		return "", false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '_' {
			return "", false
		}
	}
	if len(NameSegments(name)) < 2 {
		return "", false
	}
	return name, true
}

// NameSegments splits a full name into word segments: first on whitespace and
// underscores, then at CamelCase boundaries inside each word.
func NameSegments(name string) []string {
	var segments []string
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for _, word := range words {
		runes := []rune(word)
		start := 0
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
				segments = append(segments, string(runes[start:i]))
				start = i
			}
		}
		segments = append(segments, string(runes[start:]))
	}
	return segments
}

// Initials derives up to three display initials from the full name, falling
// back to the first letters of the email for degenerate names.
func (u *User) Initials() string {
	segments := NameSegments(u.FullName)
	if len(segments) >= 2 {
		var b strings.Builder
		for i, s := range segments {
			if i == 3 {
				break
			}
			b.WriteString(strings.ToUpper(s[:1]))
		}
		return b.String()
	}
	if len(segments) == 1 && len(segments[0]) >= 2 {
		return strings.ToUpper(segments[0][:2])
	}
	if len(u.Email) >= 2 {
		return strings.ToUpper(u.Email[:2])
	}
	return "US"
}
