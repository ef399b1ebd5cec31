package usecase

import (
	"context"
	"log/slog"
	"time"

	"auth_backend/internal/platform/schedule"
)

// ReaperConfig controls when TokenReaper runs.
type ReaperConfig struct {
	// Interval between runs after the first one.
	Interval time.Duration
	// Hour of day of the first run in Location.
	Hour     int
	Location *time.Location
}

// TokenReaper periodically deletes expired refresh token records.
type TokenReaper struct {
	tokens   RefreshTokenRepository
	cfg      ReaperConfig
	observer ReaperObserver
	now      func() time.Time
}

// NewTokenReaper creates a TokenReaper. A nil observer is allowed.
func NewTokenReaper(tokens RefreshTokenRepository, cfg ReaperConfig, observer ReaperObserver) *TokenReaper {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &TokenReaper{tokens: tokens, cfg: cfg, observer: observer, now: time.Now}
}

// RunOnce deletes every refresh token that expired before now.
func (r *TokenReaper) RunOnce(ctx context.Context) (int64, error) {
	started := r.now()
	deleted, err := r.tokens.DeleteExpired(ctx, started)
	r.observer.ObserveReaperRun(deleted, err)
	if err != nil {
		slog.Error("failed to delete expired refresh tokens", "error", err)
		return 0, err
	}
	slog.Info("expired refresh tokens deleted", "deleted", deleted, "duration", r.now().Sub(started))
	return deleted, nil
}

// Run blocks until ctx is done. The first run happens at the configured hour,
// later runs every Interval. Runs never overlap because the next timer is only
// armed after the previous run returns.
func (r *TokenReaper) Run(ctx context.Context) {
	delay := schedule.TimeUntilNextHour(r.now(), r.cfg.Hour, r.cfg.Location)
	slog.Info("token reaper scheduled", "first_run_in", delay, "interval", r.cfg.Interval)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("token reaper stopped")
			return
		case <-timer.C:
		}

		// A failed run is retried at the next tick.
		_, _ = r.RunOnce(ctx)
		timer.Reset(r.cfg.Interval)
	}
}
