package entity

import "time"

// Session is the cached snapshot of a validated access token.
// A missing Session never means the token is invalid; it only means the fast path missed.
type Session struct {
	UserID     uint      `json:"userId"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Roles      []string  `json:"roles"`
	LoginTime  time.Time `json:"loginTime"`
	IPAddress  string    `json:"ipAddress"`
	DeviceInfo string    `json:"deviceInfo"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IsValidAt returns true if the snapshot has not lapsed at now.
func (s *Session) IsValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// RefreshToken is the persisted record behind a refresh token string.
type RefreshToken struct {
	Token      string
	UserID     uint
	ExpiresAt  time.Time
	Revoked    bool
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}

// IsExpiredAt returns true if the token has passed its expiration time.
func (r *RefreshToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IsValidAt returns true if the token is neither expired nor revoked.
func (r *RefreshToken) IsValidAt(now time.Time) bool {
	return !r.Revoked && !r.IsExpiredAt(now)
}
