// Package resilience wraps outbound calls with bounded retries and maps
// downstream failures onto apperror kinds.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"auth_backend/internal/shared/apperror"
)

// MsgDownstreamUnavailable is returned once every attempt has failed.
const MsgDownstreamUnavailable = "Unable to connect to downstream service. Please try again later."

// Policy is the retry budget of a Caller.
type Policy struct {
	// MaxAttempts counts the first call, so 3 means two retries.
	MaxAttempts    int
	BaseInterval   time.Duration
	MaxInterval    time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

// DefaultPolicy returns three attempts backing off 1s then 1.5s, capped at 2s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseInterval:   time.Second,
		MaxInterval:    2 * time.Second,
		Multiplier:     1.5,
		AttemptTimeout: 5 * time.Second,
	}
}

// RetryObserver counts retries.
type RetryObserver interface {
	IncRemoteRetry()
}

// Caller runs operations under a Policy.
type Caller struct {
	policy   Policy
	observer RetryObserver

	// notify is called before each wait with the delay about to be slept.
	notify func(err error, delay time.Duration)
}

// NewCaller creates a Caller. Zero fields of p take their DefaultPolicy value.
// A nil observer is allowed.
func NewCaller(p Policy, observer RetryObserver) *Caller {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseInterval <= 0 {
		p.BaseInterval = def.BaseInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = def.MaxInterval
	}
	if p.MaxInterval < p.BaseInterval {
		p.MaxInterval = p.BaseInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}
	return &Caller{policy: p, observer: observer}
}

// Policy returns the effective policy.
func (c *Caller) Policy() Policy { return c.policy }

// Call runs op until it succeeds, returns an *apperror.Error, or the attempt
// budget is spent. Each attempt gets its own AttemptTimeout. Errors already
// classified by the downstream (see DecodeStatus) are returned as is; anything
// else that survives every attempt becomes DownstreamUnavailable.
func Call[T any](ctx context.Context, c *Caller, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		actx, cancel := context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()

		v, err := op(actx)
		if err == nil {
			return v, nil
		}
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.policy.BaseInterval,
		RandomizationFactor: 0,
		Multiplier:          c.policy.Multiplier,
		MaxInterval:         c.policy.MaxInterval,
	}

	v, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			slog.Warn("downstream call failed, retrying", "error", err, "retry_in", delay)
			if c.observer != nil {
				c.observer.IncRemoteRetry()
			}
			if c.notify != nil {
				c.notify(err, delay)
			}
		}),
	)
	if err == nil {
		return v, nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return v, err
	}
	slog.Error("downstream call failed after retries", "attempts", c.policy.MaxAttempts, "error", err)
	var zero T
	return zero, apperror.Wrap(apperror.DownstreamUnavailable, apperror.ReasonNone, MsgDownstreamUnavailable, err)
}
