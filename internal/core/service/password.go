package service

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// passwordSymbols is the punctuation set of which at least one character is
// required in every password.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

const minPasswordLength = 8

// PasswordContext carries the personal data a password must not contain.
type PasswordContext struct {
	FullName string
	Email    string
}

// PasswordPolicy validates and hashes credential strings. It is stateless;
// both validation and hashing are pure functions over their inputs.
type PasswordPolicy struct {
	cost int
}

// NewPasswordPolicy returns a policy hashing at bcrypt's default cost.
func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{cost: bcrypt.DefaultCost}
}

// Validate checks a password against every rule and returns all violations
// at once so a caller can show the complete list, not just the first one.
func (p *PasswordPolicy) Validate(password string, ctx PasswordContext) []string {
	var violations []string

	if len(password) < minPasswordLength {
		violations = append(violations, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(passwordSymbols, r) {
			hasSymbol = true
		}
	}
	if !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain at least one symbol")
	}

	lower := strings.ToLower(password)
	for _, segment := range domain.NameSegments(ctx.FullName) {
		if len(segment) > 2 && strings.Contains(lower, strings.ToLower(segment)) {
			violations = append(violations, "password must not contain your name")
			break
		}
	}
	if local := domain.EmailLocalPart(ctx.Email); local != "" && strings.Contains(lower, local) {
		violations = append(violations, "password must not contain your email address")
	}

	return violations
}

// Hash derives a salted adaptive-cost hash of the password.
func (p *PasswordPolicy) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash. bcrypt's
// comparison does not short-circuit on early mismatch, so verification time
// does not leak how much of the password was correct.
func (p *PasswordPolicy) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
