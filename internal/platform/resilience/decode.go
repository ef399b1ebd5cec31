package resilience

import (
	"encoding/json"
	"net/http"

	"auth_backend/internal/shared/apperror"
)

const defaultDownstreamMessage = "Service temporarily unavailable"

// DecodeStatus maps a downstream response onto an apperror kind. It returns
// nil for 2xx. The message is taken from an {"error": "..."} or
// {"message": "..."} body when present.
func DecodeStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := downstreamMessage(body)

	switch {
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		return apperror.New(apperror.BadRequest, apperror.ReasonNone, msg)
	case status == http.StatusUnauthorized:
		return apperror.New(apperror.Unauthorized, apperror.ReasonNone, msg)
	case status == http.StatusForbidden:
		return apperror.New(apperror.Forbidden, apperror.ReasonNone, msg)
	case status >= 500:
		return apperror.New(apperror.Internal, apperror.ReasonNone, "Downstream service error: "+msg)
	default:
		return apperror.New(apperror.Internal, apperror.ReasonNone, msg)
	}
}

func downstreamMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return defaultDownstreamMessage
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Message != "" {
		return payload.Message
	}
	return defaultDownstreamMessage
}
