package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_Exhaustive(t *testing.T) {
	t.Parallel()

	for k := Kind(0); k < kindCount; k++ {
		assert.NotZero(t, statusByKind[k], "kind %d has no status mapping", k)
		assert.NotEmpty(t, kindNames[k], "kind %d has no name", k)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{Internal, http.StatusInternalServerError},
		{Conflict, http.StatusConflict},
		{Unauthorized, http.StatusUnauthorized},
		{BadRequest, http.StatusBadRequest},
		{Forbidden, http.StatusForbidden},
		{DownstreamUnavailable, http.StatusServiceUnavailable},
		{Kind(200), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestKindAndReasonOf_Wrapped(t *testing.T) {
	t.Parallel()

	base := New(Unauthorized, ReasonAccountLocked, "Account is locked")
	wrapped := fmt.Errorf("login: %w", base)

	assert.Equal(t, Unauthorized, KindOf(wrapped))
	assert.Equal(t, ReasonAccountLocked, ReasonOf(wrapped))
	assert.Equal(t, "Account is locked", MessageOf(wrapped))
	assert.True(t, Is(wrapped, Unauthorized, ReasonAccountLocked))
	assert.False(t, Is(wrapped, Unauthorized, ReasonInvalidCredentials))
}

func TestKindOf_PlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, ReasonNone, ReasonOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
}

func TestError_UnwrapAndMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := Wrap(DownstreamUnavailable, ReasonNone, "Unable to connect to downstream service", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Unable to connect to downstream service: dial tcp: refused", err.Error())
	assert.Equal(t, "conflict", New(Conflict, ReasonNone, "").Error())
}
