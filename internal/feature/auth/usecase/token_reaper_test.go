package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

func seedTokens(t *testing.T, repo *memRefreshTokenRepository, now time.Time) {
	t.Helper()
	for i, exp := range []time.Duration{-48 * time.Hour, -time.Minute, time.Minute, 24 * time.Hour} {
		err := repo.Create(context.Background(), &entity.RefreshToken{
			Token:     string(rune('a' + i)),
			UserID:    1,
			ExpiresAt: now.Add(exp),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestTokenReaper_RunOnce(t *testing.T) {
	t.Run("deletes only expired tokens", func(t *testing.T) {
		now := time.Date(2026, 5, 1, 2, 0, 0, 0, time.UTC)
		repo := newMemRefreshTokenRepository()
		seedTokens(t, repo, now)
		obs := newCountingObserver()

		r := NewTokenReaper(repo, ReaperConfig{}, obs)
		r.now = func() time.Time { return now }

		deleted, err := r.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted, got %d", deleted)
		}
		if repo.len() != 2 {
			t.Errorf("expected 2 remaining, got %d", repo.len())
		}
		if obs.runs() != 1 || obs.deleted != 2 {
			t.Errorf("expected one observed run deleting 2, got runs=%d deleted=%d", obs.runs(), obs.deleted)
		}
	})

	t.Run("repository failure is reported", func(t *testing.T) {
		repo := newMemRefreshTokenRepository()
		repo.DeleteErr = errors.New("db down")
		obs := newCountingObserver()

		r := NewTokenReaper(repo, ReaperConfig{}, obs)

		if _, err := r.RunOnce(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if obs.reaperErrs != 1 {
			t.Errorf("expected failed run to be observed, got %d", obs.reaperErrs)
		}
	})
}

func TestNewTokenReaper_Defaults(t *testing.T) {
	r := NewTokenReaper(newMemRefreshTokenRepository(), ReaperConfig{}, nil)

	if r.cfg.Interval != 24*time.Hour {
		t.Errorf("expected 24h interval, got %v", r.cfg.Interval)
	}
	if r.cfg.Location != time.UTC {
		t.Errorf("expected UTC, got %v", r.cfg.Location)
	}
	if r.observer == nil {
		t.Error("expected a non-nil observer")
	}
}

func TestTokenReaper_Run(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	obs := newCountingObserver()
	r := NewTokenReaper(repo, ReaperConfig{Interval: 10 * time.Millisecond, Hour: 2}, obs)

	// A clock just before 02:00 makes the first run fire almost immediately.
	start := time.Date(2026, 5, 1, 1, 59, 59, 990_000_000, time.UTC)
	r.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for obs.runs() < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("expected at least 3 runs, got %d", obs.runs())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestTokenReaper_RunStopsBeforeFirstTick(t *testing.T) {
	r := NewTokenReaper(newMemRefreshTokenRepository(), ReaperConfig{Hour: 3}, nil)
	r.now = func() time.Time { return time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for a cancelled context")
	}
}
