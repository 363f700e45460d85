package service

import (
	"strings"
	"testing"
)

func TestPasswordPolicy_Validate_AcceptsStrongPassword(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{FullName: "Jean Dupont", Email: "jean@example.com"}

	if v := p.Validate("Abc12345!", ctx); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestPasswordPolicy_Validate_RejectsNameInPassword(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{FullName: "Jean Dupont", Email: "jean@example.com"}

	v := p.Validate("Dupont1234!", ctx)
	if !containsViolation(v, "name") {
		t.Fatalf("expected a name violation, got %v", v)
	}
}

func TestPasswordPolicy_Validate_NameCheckIsCaseInsensitive(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{FullName: "Jean Dupont", Email: "x@example.com"}

	if v := p.Validate("xDUPONTx1!A", ctx); !containsViolation(v, "name") {
		t.Fatalf("expected a name violation, got %v", v)
	}
}

func TestPasswordPolicy_Validate_ShortNameSegmentsIgnored(t *testing.T) {
	p := NewPasswordPolicy()
	// Segments of two characters or fewer never match; otherwise any
	// password containing "li" would be rejected for a user named Li.
	ctx := PasswordContext{FullName: "Li Wei", Email: "li@example.com"}

	if v := p.Validate("Absolix1!", ctx); containsViolation(v, "name") {
		t.Fatalf("two-letter segment should not trigger a violation: %v", v)
	}
}

func TestPasswordPolicy_Validate_RejectsEmailLocalPart(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{FullName: "Jean Dupont", Email: "jdupont77@example.com"}

	if v := p.Validate("Xjdupont77x1!", ctx); !containsViolation(v, "email") {
		t.Fatalf("expected an email violation, got %v", v)
	}
}

func TestPasswordPolicy_Validate_CollectsAllViolations(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{FullName: "Jean Dupont", Email: "jean@example.com"}

	// too short, no uppercase, no symbol
	v := p.Validate("abcdefg1", ctx)
	if len(v) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(v), v)
	}
	if !containsViolation(v, "uppercase") || !containsViolation(v, "symbol") {
		t.Fatalf("unexpected violation set: %v", v)
	}
}

func TestPasswordPolicy_Validate_EachCharacterClass(t *testing.T) {
	p := NewPasswordPolicy()
	ctx := PasswordContext{}

	tests := []struct {
		password string
		missing  string
	}{
		{"abcdefg1!", "uppercase"},
		{"ABCDEFG1!", "lowercase"},
		{"Abcdefgh!", "digit"},
		{"Abcdefg1", "symbol"},
		{"Abc1!", "8 characters"},
	}
	for _, tt := range tests {
		if v := p.Validate(tt.password, ctx); !containsViolation(v, tt.missing) {
			t.Errorf("Validate(%q): expected %q violation, got %v", tt.password, tt.missing, v)
		}
	}
}

func TestPasswordPolicy_HashAndVerify(t *testing.T) {
	p := NewPasswordPolicy()

	hash, err := p.Hash("Abc12345!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "Abc12345!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !p.Verify("Abc12345!", hash) {
		t.Fatal("correct password should verify")
	}
	if p.Verify("Abc12345?", hash) {
		t.Fatal("wrong password should not verify")
	}

	// every single-character mutation must fail verification
	password := []byte("Abc12345!")
	for i := range password {
		mutated := append([]byte(nil), password...)
		mutated[i] ^= 0x01
		if p.Verify(string(mutated), hash) {
			t.Errorf("mutation at index %d should not verify", i)
		}
	}
}

func containsViolation(violations []string, fragment string) bool {
	for _, v := range violations {
		if strings.Contains(v, fragment) {
			return true
		}
	}
	return false
}
