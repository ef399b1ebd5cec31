// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Token verification failures. The codec returns exactly one of these so
// callers can tell a forged token from an expired one.
var (
	// ErrTokenMalformed indicates the token is not a well-formed compact JWS.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenSignatureInvalid indicates the signature does not match the configured secret.
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")

	// ErrTokenExpired indicates the exp claim is in the past.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenUnsupported indicates a signing algorithm or claim set the codec does not accept.
	ErrTokenUnsupported = errors.New("token is unsupported")

	// ErrWrongTokenType indicates an access token was presented where a refresh token
	// was expected, or the other way round.
	ErrWrongTokenType = errors.New("wrong token type")
)
