package adapters

import (
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID                  uint       `gorm:"primaryKey"`
	Username            string     `gorm:"uniqueIndex;size:50;not null"`
	Email               string     `gorm:"uniqueIndex;size:100;not null"`
	PasswordHash        string     `gorm:"size:255;not null"`
	FirstName           string     `gorm:"size:50"`
	LastName            string     `gorm:"size:50"`
	Phone               string     `gorm:"size:20"`
	Roles               []string   `gorm:"serializer:json;type:text"`
	Active              bool       `gorm:"not null"`
	Locked              bool       `gorm:"not null"`
	FailedLoginAttempts int        `gorm:"not null"`
	LastLoginAt         *time.Time
	PasswordChangedAt   time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Phone:               m.Phone,
		Roles:               m.Roles,
		Active:              m.Active,
		Locked:              m.Locked,
		FailedLoginAttempts: m.FailedLoginAttempts,
		LastLoginAt:         m.LastLoginAt,
		PasswordChangedAt:   m.PasswordChangedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		Roles:               u.Roles,
		Active:              u.Active,
		Locked:              u.Locked,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAt:         u.LastLoginAt,
		PasswordChangedAt:   u.PasswordChangedAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// RefreshTokenModel is the GORM model for the refresh_tokens table.
// Rows are never updated except for the revoked flag, so there is no UpdatedAt.
type RefreshTokenModel struct {
	ID         uint      `gorm:"primaryKey"`
	Token      string    `gorm:"uniqueIndex;size:1024;not null"`
	UserID     uint      `gorm:"index;not null"`
	ExpiresAt  time.Time `gorm:"index;not null"`
	Revoked    bool      `gorm:"not null"`
	DeviceInfo string    `gorm:"size:255"`
	IPAddress  string    `gorm:"size:45"` // IPv6 max length
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// ToEntity converts the GORM model to a domain entity.
func (m *RefreshTokenModel) ToEntity() *entity.RefreshToken {
	return &entity.RefreshToken{
		Token:      m.Token,
		UserID:     m.UserID,
		ExpiresAt:  m.ExpiresAt,
		Revoked:    m.Revoked,
		DeviceInfo: m.DeviceInfo,
		IPAddress:  m.IPAddress,
		CreatedAt:  m.CreatedAt,
	}
}

// RefreshTokenModelFromEntity converts a domain entity to a GORM model.
func RefreshTokenModelFromEntity(t *entity.RefreshToken) *RefreshTokenModel {
	return &RefreshTokenModel{
		Token:      t.Token,
		UserID:     t.UserID,
		ExpiresAt:  t.ExpiresAt,
		Revoked:    t.Revoked,
		DeviceInfo: t.DeviceInfo,
		IPAddress:  t.IPAddress,
		CreatedAt:  t.CreatedAt,
	}
}

// AuditLogModel is the GORM model for the append-only audit_logs table.
type AuditLogModel struct {
	ID              string    `gorm:"primaryKey;size:26"`
	UserID          *uint     `gorm:"index"`
	Username        string    `gorm:"size:100"`
	Action          string    `gorm:"index;size:50;not null"`
	Resource        string    `gorm:"size:255"`
	Method          string    `gorm:"size:10"`
	StatusCode      int
	IPAddress       string    `gorm:"size:45"`
	UserAgent       string    `gorm:"size:512"`
	DeviceInfo      string    `gorm:"size:255"`
	ResponseMessage string    `gorm:"type:text"`
	ErrorMessage    string    `gorm:"type:text"`
	DurationMs      int64
	CreatedAt       time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM.
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToEntity converts the GORM model to a domain entity.
func (m *AuditLogModel) ToEntity() *entity.AuditEvent {
	return &entity.AuditEvent{
		ID:              m.ID,
		UserID:          m.UserID,
		Username:        m.Username,
		Action:          entity.AuditAction(m.Action),
		Resource:        m.Resource,
		Method:          m.Method,
		StatusCode:      m.StatusCode,
		IPAddress:       m.IPAddress,
		UserAgent:       m.UserAgent,
		DeviceInfo:      m.DeviceInfo,
		ResponseMessage: m.ResponseMessage,
		ErrorMessage:    m.ErrorMessage,
		Duration:        time.Duration(m.DurationMs) * time.Millisecond,
		CreatedAt:       m.CreatedAt,
	}
}

// AuditLogModelFromEntity converts a domain entity to a GORM model.
func AuditLogModelFromEntity(e *entity.AuditEvent) *AuditLogModel {
	return &AuditLogModel{
		ID:              e.ID,
		UserID:          e.UserID,
		Username:        e.Username,
		Action:          string(e.Action),
		Resource:        e.Resource,
		Method:          e.Method,
		StatusCode:      e.StatusCode,
		IPAddress:       e.IPAddress,
		UserAgent:       e.UserAgent,
		DeviceInfo:      e.DeviceInfo,
		ResponseMessage: e.ResponseMessage,
		ErrorMessage:    e.ErrorMessage,
		DurationMs:      e.Duration.Milliseconds(),
		CreatedAt:       e.CreatedAt,
	}
}

// Models lists every table owned by the auth feature, in migration order.
func Models() []any {
	return []any{&UserModel{}, &RefreshTokenModel{}, &AuditLogModel{}}
}
