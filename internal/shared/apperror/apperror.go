// Package apperror defines the tagged error type returned by the auth service
// and the single table that maps each error kind to an HTTP status code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the coarse error class. Handlers branch on Kind, never on the
// concrete cause.
type Kind uint8

const (
	Internal Kind = iota
	Conflict
	Unauthorized
	BadRequest
	Forbidden
	DownstreamUnavailable

	kindCount
)

var kindNames = [kindCount]string{
	Internal:              "internal",
	Conflict:              "conflict",
	Unauthorized:          "unauthorized",
	BadRequest:            "bad_request",
	Forbidden:             "forbidden",
	DownstreamUnavailable: "downstream_unavailable",
}

// statusByKind must have an entry for every Kind; TestHTTPStatus_Exhaustive
// fails when a new kind is added without one.
var statusByKind = [kindCount]int{
	Internal:              http.StatusInternalServerError,
	Conflict:              http.StatusConflict,
	Unauthorized:          http.StatusUnauthorized,
	BadRequest:            http.StatusBadRequest,
	Forbidden:             http.StatusForbidden,
	DownstreamUnavailable: http.StatusServiceUnavailable,
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// HTTPStatus returns the transport status for k.
func HTTPStatus(k Kind) int {
	if k >= kindCount || statusByKind[k] == 0 {
		return http.StatusInternalServerError
	}
	return statusByKind[k]
}

// Reason narrows a Kind. The empty Reason means "no further detail".
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInvalidCredentials  Reason = "INVALID_CREDENTIALS"
	ReasonAccountLocked       Reason = "ACCOUNT_LOCKED"
	ReasonInvalidToken        Reason = "INVALID_TOKEN"
	ReasonInvalidRefreshToken Reason = "INVALID_REFRESH_TOKEN"
	ReasonWrongTokenType      Reason = "INVALID_TOKEN_TYPE"
	ReasonTokenNotFound       Reason = "TOKEN_NOT_FOUND"
	ReasonUserNotFound        Reason = "USER_NOT_FOUND"
	ReasonAccountInactive     Reason = "ACCOUNT_INACTIVE"
	ReasonUsernameExists      Reason = "USERNAME_EXISTS"
	ReasonEmailExists         Reason = "EMAIL_EXISTS"
)

// Error is the error value surfaced by the usecase layer.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, reason Reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Wrap builds an Error around cause.
func Wrap(kind Kind, reason Reason, message string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, Err: cause}
}

// KindOf reports the Kind carried by err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ReasonOf reports the Reason carried by err.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

// MessageOf returns the user-facing message. Causes are never exposed.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}

// Is reports whether err carries the given kind and reason.
func Is(err error, kind Kind, reason Reason) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind && e.Reason == reason
}
