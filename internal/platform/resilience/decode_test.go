package resilience

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"auth_backend/internal/shared/apperror"
)

func TestDecodeStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		kind    apperror.Kind
		message string
	}{
		{"bad request", 400, `{"error":"missing field"}`, apperror.BadRequest, "missing field"},
		{"not found", 404, ``, apperror.BadRequest, "Service temporarily unavailable"},
		{"unauthorized", 401, `{"message":"expired"}`, apperror.Unauthorized, "expired"},
		{"forbidden", 403, `{"error":"denied"}`, apperror.Forbidden, "denied"},
		{"internal", 500, `{"error":"db down"}`, apperror.Internal, "Downstream service error: db down"},
		{"bad gateway without body", 502, ``, apperror.Internal, "Downstream service error: Service temporarily unavailable"},
		{"non json body", 503, `<html>oops</html>`, apperror.Internal, "Downstream service error: Service temporarily unavailable"},
		{"unexpected status", 409, `{"error":"conflict"}`, apperror.Internal, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := DecodeStatus(tt.status, []byte(tt.body))

			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.Equal(t, tt.message, apperror.MessageOf(err))
		})
	}
}

func TestDecodeStatus_Success(t *testing.T) {
	t.Parallel()

	for _, status := range []int{200, 201, 204} {
		assert.NoError(t, DecodeStatus(status, nil))
	}
}
