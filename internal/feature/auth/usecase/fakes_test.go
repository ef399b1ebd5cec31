package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// memUserRepository is an in-memory UserRepository for testing.
type memUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*entity.User

	// FindErr, when set, is returned by every lookup.
	FindErr error
	// UpdateErr, when set, is returned by UpdateLoginState.
	UpdateErr error
	updates   int
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[uint]*entity.User{}}
}

func (r *memUserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrUserAlreadyExists
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, r.FindErr
}

func (r *memUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, r.FindErr
}

func (r *memUserRepository) FindActiveByUsernameOrEmail(_ context.Context, identifier string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	for _, u := range r.users {
		if u.Active && (u.Username == identifier || u.Email == identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepository) FindByID(_ context.Context, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepository) UpdateLoginState(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	stored, ok := r.users[u.ID]
	if !ok {
		return ErrUserNotFound
	}
	stored.FailedLoginAttempts = u.FailedLoginAttempts
	stored.Locked = u.Locked
	stored.LastLoginAt = u.LastLoginAt
	return nil
}

// get returns the stored copy of a user.
func (r *memUserRepository) get(id uint) entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

func (r *memUserRepository) mutate(id uint, fn func(u *entity.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.users[id])
}

// memRefreshTokenRepository is an in-memory RefreshTokenRepository for testing.
type memRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*entity.RefreshToken

	CreateErr error
	RevokeErr error
	DeleteErr error
}

func newMemRefreshTokenRepository() *memRefreshTokenRepository {
	return &memRefreshTokenRepository{tokens: map[string]*entity.RefreshToken{}}
}

func (r *memRefreshTokenRepository) Create(_ context.Context, t *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	cp := *t
	r.tokens[t.Token] = &cp
	return nil
}

func (r *memRefreshTokenRepository) FindByToken(_ context.Context, token string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memRefreshTokenRepository) RevokeAllByUserID(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RevokeErr != nil {
		return 0, r.RevokeErr
	}
	var n int64
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return 0, r.DeleteErr
	}
	var n int64
	for k, t := range r.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepository) mutate(token string, fn func(t *entity.RefreshToken)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.tokens[token])
}

func (r *memRefreshTokenRepository) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// memSessionCache is an in-memory SessionCache for testing.
type memSessionCache struct {
	mu       sync.Mutex
	sessions map[string]entity.Session

	// Unavailable makes every call fail like an unreachable Redis.
	Unavailable error
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{sessions: map[string]entity.Session{}}
}

func (c *memSessionCache) Lookup(_ context.Context, token string) CacheLookup {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable != nil {
		return CacheLookup{Outcome: CacheUnavailable, Err: c.Unavailable}
	}
	s, ok := c.sessions[token]
	if !ok {
		return CacheLookup{Outcome: CacheMiss}
	}
	return CacheLookup{Outcome: CacheHit, Session: &s}
}

func (c *memSessionCache) Put(_ context.Context, token string, s *entity.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable != nil {
		return c.Unavailable
	}
	c.sessions[token] = *s
	return nil
}

func (c *memSessionCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable != nil {
		return c.Unavailable
	}
	delete(c.sessions, token)
	return nil
}

func (c *memSessionCache) DeleteByUserID(_ context.Context, userID uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable != nil {
		return 0, c.Unavailable
	}
	var n int64
	for k, s := range c.sessions {
		if s.UserID == userID {
			delete(c.sessions, k)
			n++
		}
	}
	return n, nil
}

func (c *memSessionCache) has(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[token]
	return ok
}

func (c *memSessionCache) set(token string, s entity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = s
}

// recordingAudit collects audit events synchronously.
type recordingAudit struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, ev entity.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) all() []entity.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]entity.AuditEvent, len(a.events))
	copy(out, a.events)
	return out
}

func (a *recordingAudit) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = nil
}

// countingObserver counts observer callbacks.
type countingObserver struct {
	mu          sync.Mutex
	validations map[string]int
	logins      map[string]int
	reaperRuns  int
	reaperErrs  int
	deleted     int64
}

func newCountingObserver() *countingObserver {
	return &countingObserver{validations: map[string]int{}, logins: map[string]int{}}
}

func (o *countingObserver) IncValidation(state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validations[state]++
}

func (o *countingObserver) IncLogin(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logins[result]++
}

func (o *countingObserver) ObserveReaperRun(deleted int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reaperRuns++
	if err != nil {
		o.reaperErrs++
		return
	}
	o.deleted += deleted
}

func (o *countingObserver) runs() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reaperRuns
}
