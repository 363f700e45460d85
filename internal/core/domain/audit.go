package domain

import "time"

// AuditAction identifies what happened to an account.
type AuditAction string

const (
	AuditSignup         AuditAction = "signup"
	AuditLoginSuccess   AuditAction = "login_success"
	AuditLoginFailure   AuditAction = "login_failure"
	AuditLockout        AuditAction = "lockout"
	AuditLogout         AuditAction = "logout"
	AuditPasswordChange AuditAction = "password_change"
	AuditRoleChange     AuditAction = "role_change"
	AuditDeactivate     AuditAction = "deactivate"
	AuditDelete         AuditAction = "delete"
)

// AuditEvent is one entry in the account audit trail. UserID may be empty
// for failed logins against unknown emails.
type AuditEvent struct {
	UserID    string      `json:"user_id,omitempty"`
	Email     string      `json:"email"`
	Action    AuditAction `json:"action"`
	At        time.Time   `json:"at"`
	RequestID string      `json:"request_id,omitempty"`
}
