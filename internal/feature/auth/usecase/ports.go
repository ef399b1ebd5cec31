package usecase

import (
	"context"
	"fmt"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// CacheOutcome classifies a session cache lookup.
type CacheOutcome int

const (
	// CacheMiss means the cache answered and holds no entry for the token.
	CacheMiss CacheOutcome = iota
	// CacheHit means an entry was found. Its expiry still has to be checked.
	CacheHit
	// CacheUnavailable means the cache could not answer at all.
	CacheUnavailable
)

func (o CacheOutcome) String() string {
	switch o {
	case CacheHit:
		return "hit"
	case CacheMiss:
		return "miss"
	case CacheUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CacheLookup is the result of SessionCache.Lookup. Err is set only for CacheUnavailable.
type CacheLookup struct {
	Outcome CacheOutcome
	Session *entity.Session
	Err     error
}

// SessionCache holds advisory snapshots of issued access tokens.
type SessionCache interface {
	Lookup(ctx context.Context, token string) CacheLookup
	Put(ctx context.Context, token string, session *entity.Session) error
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	IssueAccess(sub entity.TokenSubject) (entity.IssuedToken, error)
	IssueRefresh(sub entity.TokenSubject) (entity.IssuedToken, error)
	Parse(token string) (*entity.TokenClaims, error)
	AccessTTL() time.Duration
}

// PasswordHasher is the one-way credential verifier. Verify returns a non-nil
// error for any mismatch; an empty hash must still cost a full comparison.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// AuditRecorder accepts audit events without blocking and without failing.
type AuditRecorder interface {
	Record(ctx context.Context, event entity.AuditEvent)
}

// Observer receives counters for validation and login outcomes.
type Observer interface {
	IncValidation(state string)
	IncLogin(result string)
}

// ReaperObserver receives the result of each reaper run.
type ReaperObserver interface {
	ObserveReaperRun(deleted int64, err error)
}

type noopObserver struct{}

func (noopObserver) IncValidation(string)          {}
func (noopObserver) IncLogin(string)               {}
func (noopObserver) ObserveReaperRun(int64, error) {}
