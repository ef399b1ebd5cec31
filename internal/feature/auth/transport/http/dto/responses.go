package dto

import "time"

// ValidateResponse is the body of GET /auth/validate. It is also decoded by
// services that validate tokens remotely, so its shape is a public contract.
type ValidateResponse struct {
	Valid     bool       `json:"valid"`
	UserID    uint       `json:"userId,omitempty"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Message   string     `json:"message"`
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
