package entity

import "time"

// AuditAction tags the kind of security-relevant event.
type AuditAction string

const (
	AuditRegister      AuditAction = "REGISTER"
	AuditLogin         AuditAction = "LOGIN"
	AuditLoginFailed   AuditAction = "LOGIN_FAILED"
	AuditLogout        AuditAction = "LOGOUT"
	AuditLogoutAll     AuditAction = "LOGOUT_ALL"
	AuditTokenRefresh  AuditAction = "TOKEN_REFRESH"
	AuditTokenValidate AuditAction = "TOKEN_VALIDATE"
)

// AuditEvent is a write-once record of something that happened to an account or token.
type AuditEvent struct {
	ID              string
	UserID          *uint
	Username        string
	Action          AuditAction
	Resource        string
	Method          string
	StatusCode      int
	IPAddress       string
	UserAgent       string
	DeviceInfo      string
	ResponseMessage string
	ErrorMessage    string
	Duration        time.Duration
	CreatedAt       time.Time
}

// Failed reports whether the event describes a failed operation.
func (e *AuditEvent) Failed() bool {
	return e.ErrorMessage != "" || e.StatusCode >= 400
}
