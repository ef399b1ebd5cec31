package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_backend/internal/shared/apperror"
)

type retryCounter struct{ n atomic.Int64 }

func (r *retryCounter) IncRemoteRetry() { r.n.Add(1) }

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseInterval:   10 * time.Millisecond,
		MaxInterval:    20 * time.Millisecond,
		Multiplier:     1.5,
		AttemptTimeout: 50 * time.Millisecond,
	}
}

func TestCall_SucceedsFirstTime(t *testing.T) {
	obs := &retryCounter{}
	c := NewCaller(fastPolicy(), obs)

	calls := 0
	got, err := Call(context.Background(), c, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Zero(t, obs.n.Load())
}

func TestCall_RetriesTransientFailures(t *testing.T) {
	obs := &retryCounter{}
	c := NewCaller(fastPolicy(), obs)
	var delays []time.Duration
	c.notify = func(_ error, d time.Duration) { delays = append(delays, d) }

	calls := 0
	got, err := Call(context.Background(), c, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(2), obs.n.Load())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, delays)
}

func TestCall_BackoffIsCapped(t *testing.T) {
	p := fastPolicy()
	p.MaxAttempts = 5
	c := NewCaller(p, nil)
	var delays []time.Duration
	c.notify = func(_ error, d time.Duration) { delays = append(delays, d) }

	_, err := Call(context.Background(), c, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		15 * time.Millisecond,
		20 * time.Millisecond,
		20 * time.Millisecond,
	}, delays)
}

func TestCall_ExhaustedBecomesDownstreamUnavailable(t *testing.T) {
	c := NewCaller(fastPolicy(), nil)
	cause := errors.New("connection refused")

	calls := 0
	_, err := Call(context.Background(), c, func(context.Context) (string, error) {
		calls++
		return "", cause
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, apperror.DownstreamUnavailable, apperror.KindOf(err))
	assert.Equal(t, MsgDownstreamUnavailable, apperror.MessageOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestCall_ClassifiedErrorsAreNotRetried(t *testing.T) {
	obs := &retryCounter{}
	c := NewCaller(fastPolicy(), obs)

	calls := 0
	_, err := Call(context.Background(), c, func(context.Context) (string, error) {
		calls++
		return "", DecodeStatus(403, []byte(`{"error":"nope"}`))
	})

	assert.Equal(t, 1, calls)
	assert.Zero(t, obs.n.Load())
	assert.Equal(t, apperror.Forbidden, apperror.KindOf(err))
	assert.Equal(t, "nope", apperror.MessageOf(err))
}

func TestCall_AttemptTimeoutCountsAsFailure(t *testing.T) {
	c := NewCaller(fastPolicy(), nil)

	calls := 0
	got, err := Call(context.Background(), c, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "late", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "late", got)
	assert.Equal(t, 2, calls)
}

func TestCall_ParentCancellation(t *testing.T) {
	p := fastPolicy()
	p.BaseInterval = time.Second
	p.MaxInterval = time.Second
	c := NewCaller(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.notify = func(error, time.Duration) { cancel() }

	start := time.Now()
	_, err := Call(ctx, c, func(context.Context) (string, error) {
		return "", errors.New("connection refused")
	})

	assert.Less(t, time.Since(start), 500*time.Millisecond, "should not wait out the backoff")
	assert.Equal(t, apperror.DownstreamUnavailable, apperror.KindOf(err))
}

func TestNewCaller_Defaults(t *testing.T) {
	c := NewCaller(Policy{}, nil)

	assert.Equal(t, DefaultPolicy(), c.Policy())
}

func TestNewCaller_ZeroCapUsesDefault(t *testing.T) {
	c := NewCaller(Policy{MaxAttempts: 4, BaseInterval: 10 * time.Millisecond, Multiplier: 1.5}, nil)
	var delays []time.Duration
	c.notify = func(_ error, d time.Duration) { delays = append(delays, d) }

	_, err := Call(context.Background(), c, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 2*time.Second, c.Policy().MaxInterval)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		15 * time.Millisecond,
		22500 * time.Microsecond,
	}, delays)
}

func TestNewCaller_CapBelowBaseIsRaised(t *testing.T) {
	c := NewCaller(Policy{BaseInterval: time.Second, MaxInterval: 500 * time.Millisecond}, nil)

	assert.Equal(t, time.Second, c.Policy().MaxInterval)
}
