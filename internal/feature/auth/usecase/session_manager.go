package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/shared/apperror"
)

const (
	// TokenTypeBearer is the token_type returned with every token pair.
	TokenTypeBearer = "Bearer"

	// DefaultLockoutThreshold is the number of consecutive failed logins that locks an account.
	DefaultLockoutThreshold = 5

	maxDeviceInfoLength = 255
	unknownDevice       = "Unknown"
)

// User-facing messages. Credential failures share one message so callers
// cannot tell an unknown user from a wrong password.
const (
	msgInvalidCredentials  = "Invalid credentials"
	msgAccountLocked       = "Account is locked due to multiple failed login attempts"
	msgUsernameExists      = "Username already exists"
	msgEmailExists         = "Email already exists"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgWrongTokenType      = "Invalid token type"
	msgTokenNotFound       = "Refresh token not found"
	msgRefreshUnusable     = "Refresh token is expired or revoked"
	msgUserNotFound        = "User not found"
	msgAccountInactive     = "User account is inactive or locked"
	msgInvalidToken        = "Token is invalid or expired"
	msgTokenValid          = "Token is valid"
	msgLogoutAllFailed     = "Failed to logout from all devices"
	msgInternal            = "Internal server error"
)

// Config tunes SessionManager behaviour.
type Config struct {
	// LockoutThreshold is the failed-login count at which an account is locked.
	LockoutThreshold int
	// AuditValidations also records a TOKEN_VALIDATE event for every Validate call.
	AuditValidations bool
}

// Dependencies are the collaborators of SessionManager.
type Dependencies struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Cache         SessionCache
	Codec         TokenCodec
	Passwords     PasswordHasher
	Audit         AuditRecorder
	Observer      Observer
}

// ClientInfo is the request metadata recorded with tokens and audit events.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	Method    string
	Path      string
}

// DeviceInfo returns the user agent clipped for storage, or "Unknown".
func (c ClientInfo) DeviceInfo() string {
	if c.UserAgent == "" {
		return unknownDevice
	}
	if len(c.UserAgent) > maxDeviceInfoLength {
		return c.UserAgent[:maxDeviceInfoLength]
	}
	return c.UserAgent
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserInfo is the redacted user projection returned to clients.
type UserInfo struct {
	ID        uint     `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// AuthResponse bundles an issued token pair.
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         UserInfo  `json:"user"`
}

// ValidationState is the state an access token is observed in at validation time.
type ValidationState int

const (
	StateInvalid ValidationState = iota
	StateCacheHitValid
	StateStatelessValid
)

func (s ValidationState) String() string {
	switch s {
	case StateCacheHitValid:
		return "cache_hit_valid"
	case StateStatelessValid:
		return "stateless_valid"
	default:
		return "invalid"
	}
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid     bool
	UserID    uint
	Username  string
	Email     string
	Roles     []string
	ExpiresAt time.Time
	Message   string

	State ValidationState
	// Cache is the raw cache outcome. A CacheHit with State StatelessValid
	// means the cached entry had lapsed.
	Cache CacheOutcome
	// Err is the token error behind an invalid result.
	Err error
}

// SessionManager orchestrates the token and session lifecycle.
type SessionManager struct {
	users         UserRepository
	refreshTokens RefreshTokenRepository
	cache         SessionCache
	codec         TokenCodec
	passwords     PasswordHasher
	audit         AuditRecorder
	observer      Observer
	cfg           Config
	now           func() time.Time
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(deps Dependencies, cfg Config) *SessionManager {
	if cfg.LockoutThreshold <= 0 {
		cfg.LockoutThreshold = DefaultLockoutThreshold
	}
	obs := deps.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	return &SessionManager{
		users:         deps.Users,
		refreshTokens: deps.RefreshTokens,
		cache:         deps.Cache,
		codec:         deps.Codec,
		passwords:     deps.Passwords,
		audit:         deps.Audit,
		observer:      obs,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Register creates a USER account and authenticates it immediately.
func (m *SessionManager) Register(ctx context.Context, in RegisterInput, client ClientInfo) (resp *AuthResponse, err error) {
	ev := m.newEvent(entity.AuditRegister, client)
	ev.Username = in.Username
	defer func() { m.emit(ctx, &ev, resp, err) }()

	taken, err := m.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, internal(err)
	}
	if taken {
		return nil, apperror.New(apperror.Conflict, apperror.ReasonUsernameExists, msgUsernameExists)
	}
	taken, err = m.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, internal(err)
	}
	if taken {
		return nil, apperror.New(apperror.Conflict, apperror.ReasonEmailExists, msgEmailExists)
	}

	hash, err := m.passwords.Hash(in.Password)
	if err != nil {
		return nil, internal(err)
	}
	now := m.now()
	user := &entity.User{
		Username:          in.Username,
		Email:             in.Email,
		PasswordHash:      hash,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Phone:             in.Phone,
		Roles:             []string{entity.RoleUser},
		Active:            true,
		PasswordChangedAt: now,
	}
	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			// Lost a race with a concurrent registration.
			return nil, apperror.Wrap(apperror.Conflict, apperror.ReasonNone, "Username or email already exists", err)
		}
		return nil, internal(err)
	}
	ev.UserID = &user.ID

	user.RecordSuccessfulLogin(now)
	if err := m.users.UpdateLoginState(ctx, user); err != nil {
		slog.Error("failed to record login after registration", "user_id", user.ID, "error", err)
	}

	resp, err = m.issueTokenPair(ctx, user, client)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID, "username", user.Username, "remote_addr", client.IPAddress)
	return resp, nil
}

// Login authenticates identifier (username or email) with password.
func (m *SessionManager) Login(ctx context.Context, identifier, password string, client ClientInfo) (resp *AuthResponse, err error) {
	ev := m.newEvent(entity.AuditLogin, client)
	ev.Username = identifier
	defer func() {
		if err != nil {
			ev.Action = entity.AuditLoginFailed
			m.observer.IncLogin("failure")
		} else {
			m.observer.IncLogin("success")
		}
		m.emit(ctx, &ev, resp, err)
	}()

	user, err := m.users.FindActiveByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		// Burn a comparison so an unknown user costs the same as a wrong password.
		_ = m.passwords.Verify("", password)
		ev.ErrorMessage = "User not found or inactive"
		return nil, apperror.New(apperror.Unauthorized, apperror.ReasonInvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return nil, internal(err)
	}
	ev.UserID = &user.ID
	ev.Username = user.Username

	if user.Locked {
		ev.ErrorMessage = "Account locked"
		return nil, apperror.New(apperror.Unauthorized, apperror.ReasonAccountLocked, msgAccountLocked)
	}

	if verr := m.passwords.Verify(user.PasswordHash, password); verr != nil {
		locked := user.RecordFailedLogin(m.cfg.LockoutThreshold)
		if err := m.users.UpdateLoginState(ctx, user); err != nil {
			slog.Error("failed to persist failed login", "user_id", user.ID, "error", err)
		}
		ev.ErrorMessage = "Invalid password"
		if locked {
			slog.Warn("account locked after failed logins", "user_id", user.ID, "attempts", user.FailedLoginAttempts)
			return nil, apperror.New(apperror.Unauthorized, apperror.ReasonAccountLocked, msgAccountLocked)
		}
		return nil, apperror.New(apperror.Unauthorized, apperror.ReasonInvalidCredentials, msgInvalidCredentials)
	}

	user.RecordSuccessfulLogin(m.now())
	if err := m.users.UpdateLoginState(ctx, user); err != nil {
		slog.Error("failed to record successful login", "user_id", user.ID, "error", err)
	}

	return m.issueTokenPair(ctx, user, client)
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is returned unchanged.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (resp *AuthResponse, err error) {
	ev := m.newEvent(entity.AuditTokenRefresh, client)
	defer func() { m.emit(ctx, &ev, resp, err) }()

	claims, err := m.codec.Parse(refreshToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthorized, apperror.ReasonInvalidRefreshToken, msgInvalidRefreshToken, err)
	}
	if claims.Type != entity.TokenTypeRefresh {
		return nil, apperror.Wrap(apperror.Unauthorized, apperror.ReasonWrongTokenType, msgWrongTokenType, domain.ErrWrongTokenType)
	}
	ev.UserID = &claims.Subject.UserID
	ev.Username = claims.Subject.Username

	stored, err := m.refreshTokens.FindByToken(ctx, refreshToken)
	if errors.Is(err, ErrRefreshTokenNotFound) {
		return nil, apperror.Wrap(apperror.Unauthorized, apperror.ReasonTokenNotFound, msgTokenNotFound, err)
	}
	if err != nil {
		return nil, internal(err)
	}
	if !stored.IsValidAt(m.now()) {
		return nil, apperror.New(apperror.Unauthorized, apperror.ReasonInvalidRefreshToken, msgRefreshUnusable)
	}

	user, err := m.users.FindByID(ctx, stored.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperror.Wrap(apperror.Unauthorized, apperror.ReasonUserNotFound, msgUserNotFound, err)
	}
	if err != nil {
		return nil, internal(err)
	}
	if !user.CanAuthenticate() {
		return nil, apperror.New(apperror.Unauthorized, apperror.ReasonAccountInactive, msgAccountInactive)
	}

	access, err := m.codec.IssueAccess(user.Subject())
	if err != nil {
		return nil, internal(err)
	}
	m.cacheSession(ctx, access, user, client)
	return m.buildResponse(access, refreshToken, user), nil
}

// Validate reports whether accessToken is a usable access token. The cache is
// consulted first; any cache failure falls back to the token's own claims.
func (m *SessionManager) Validate(ctx context.Context, accessToken string) ValidationResult {
	res := m.validate(ctx, accessToken)
	m.observer.IncValidation(res.State.String())

	if m.cfg.AuditValidations {
		ev := m.newEvent(entity.AuditTokenValidate, ClientInfo{})
		if res.Valid {
			ev.UserID = &res.UserID
			ev.Username = res.Username
			ev.StatusCode = http.StatusOK
		} else {
			ev.StatusCode = http.StatusUnauthorized
			ev.ErrorMessage = errText(res.Err)
		}
		ev.ResponseMessage = res.Message
		ev.Duration = m.now().Sub(ev.CreatedAt)
		m.audit.Record(ctx, ev)
	}
	return res
}

func (m *SessionManager) validate(ctx context.Context, accessToken string) ValidationResult {
	claims, err := m.codec.Parse(accessToken)
	if err != nil {
		return ValidationResult{State: StateInvalid, Message: msgInvalidToken, Err: err}
	}
	if claims.Type != entity.TokenTypeAccess {
		return ValidationResult{State: StateInvalid, Message: "Wrong token type", Err: domain.ErrWrongTokenType}
	}

	lookup := m.cache.Lookup(ctx, accessToken)
	switch lookup.Outcome {
	case CacheHit:
		s := lookup.Session
		if s != nil && s.UserID == claims.Subject.UserID && s.IsValidAt(m.now()) {
			return ValidationResult{
				Valid:     true,
				UserID:    s.UserID,
				Username:  s.Username,
				Email:     s.Email,
				Roles:     s.Roles,
				ExpiresAt: s.ExpiresAt,
				Message:   msgTokenValid,
				State:     StateCacheHitValid,
				Cache:     CacheHit,
			}
		}
	case CacheUnavailable:
		slog.Warn("session cache unavailable, validating statelessly", "error", lookup.Err)
	}

	return ValidationResult{
		Valid:     true,
		UserID:    claims.Subject.UserID,
		Username:  claims.Subject.Username,
		Email:     claims.Subject.Email,
		Roles:     claims.Subject.Roles,
		ExpiresAt: claims.ExpiresAt,
		Message:   msgTokenValid,
		State:     StateStatelessValid,
		Cache:     lookup.Outcome,
	}
}

// Authenticate converts a valid access token into a Principal.
func (m *SessionManager) Authenticate(ctx context.Context, accessToken string) (entity.Principal, error) {
	res := m.Validate(ctx, accessToken)
	if !res.Valid {
		reason := apperror.ReasonInvalidToken
		if errors.Is(res.Err, domain.ErrWrongTokenType) {
			reason = apperror.ReasonWrongTokenType
		}
		return entity.Principal{}, apperror.Wrap(apperror.Unauthorized, reason, res.Message, res.Err)
	}
	return entity.Principal{
		UserID:    res.UserID,
		Username:  res.Username,
		Email:     res.Email,
		Roles:     res.Roles,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// Logout drops the cached session for accessToken. It never fails.
func (m *SessionManager) Logout(ctx context.Context, accessToken string, client ClientInfo) {
	ev := m.newEvent(entity.AuditLogout, client)
	defer func() {
		ev.StatusCode = http.StatusOK
		ev.ResponseMessage = "Logout successful"
		ev.Duration = m.now().Sub(ev.CreatedAt)
		m.audit.Record(ctx, ev)
	}()

	if claims, err := m.codec.Parse(accessToken); err != nil {
		ev.ErrorMessage = "token could not be decoded: " + err.Error()
	} else {
		ev.UserID = &claims.Subject.UserID
		ev.Username = claims.Subject.Username
	}

	if accessToken == "" {
		return
	}
	if err := m.cache.Delete(ctx, accessToken); err != nil {
		slog.Warn("failed to delete cached session on logout", "error", err)
	}
}

// LogoutAll revokes every refresh token of userID and drops its cached sessions.
func (m *SessionManager) LogoutAll(ctx context.Context, userID uint, client ClientInfo) (err error) {
	ev := m.newEvent(entity.AuditLogoutAll, client)
	ev.UserID = &userID
	defer func() { m.emit(ctx, &ev, nil, err) }()

	revoked, err := m.refreshTokens.RevokeAllByUserID(ctx, userID)
	if err != nil {
		return apperror.Wrap(apperror.Internal, apperror.ReasonNone, msgLogoutAllFailed, err)
	}

	cleared, cerr := m.cache.DeleteByUserID(ctx, userID)
	if cerr != nil {
		slog.Warn("failed to clear cached sessions on logout-all", "user_id", userID, "error", cerr)
	}
	slog.Info("logged out from all devices", "user_id", userID, "revoked_tokens", revoked, "cleared_sessions", cleared)
	return nil
}

// issueTokenPair signs both tokens, persists the refresh token and caches the session.
func (m *SessionManager) issueTokenPair(ctx context.Context, user *entity.User, client ClientInfo) (*AuthResponse, error) {
	sub := user.Subject()
	access, err := m.codec.IssueAccess(sub)
	if err != nil {
		return nil, internal(err)
	}
	refresh, err := m.codec.IssueRefresh(sub)
	if err != nil {
		return nil, internal(err)
	}

	record := &entity.RefreshToken{
		Token:      refresh.Token,
		UserID:     user.ID,
		ExpiresAt:  refresh.ExpiresAt,
		DeviceInfo: client.DeviceInfo(),
		IPAddress:  client.IPAddress,
		CreatedAt:  m.now(),
	}
	if err := m.refreshTokens.Create(ctx, record); err != nil {
		return nil, internal(fmt.Errorf("failed to persist refresh token: %w", err))
	}

	m.cacheSession(ctx, access, user, client)
	return m.buildResponse(access, refresh.Token, user), nil
}

// cacheSession writes the snapshot for access. Failures only cost the fast path.
func (m *SessionManager) cacheSession(ctx context.Context, access entity.IssuedToken, user *entity.User, client ClientInfo) {
	s := &entity.Session{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Roles:      user.Roles,
		LoginTime:  m.now(),
		IPAddress:  client.IPAddress,
		DeviceInfo: client.DeviceInfo(),
		ExpiresAt:  access.ExpiresAt,
	}
	if err := m.cache.Put(ctx, access.Token, s); err != nil {
		slog.Warn("failed to cache session", "user_id", user.ID, "error", err)
	}
}

func (m *SessionManager) buildResponse(access entity.IssuedToken, refreshToken string, user *entity.User) *AuthResponse {
	return &AuthResponse{
		AccessToken:  access.Token,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(m.codec.AccessTTL() / time.Second),
		ExpiresAt:    access.ExpiresAt,
		User: UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Roles:     user.Roles,
		},
	}
}

func (m *SessionManager) newEvent(action entity.AuditAction, client ClientInfo) entity.AuditEvent {
	return entity.AuditEvent{
		Action:     action,
		Resource:   client.Path,
		Method:     client.Method,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		DeviceInfo: client.DeviceInfo(),
		CreatedAt:  m.now(),
	}
}

// emit completes ev from the operation result and hands it to the recorder.
func (m *SessionManager) emit(ctx context.Context, ev *entity.AuditEvent, resp *AuthResponse, err error) {
	ev.Duration = m.now().Sub(ev.CreatedAt)
	if err != nil {
		ev.StatusCode = apperror.HTTPStatus(apperror.KindOf(err))
		ev.ResponseMessage = apperror.MessageOf(err)
		if ev.ErrorMessage == "" {
			ev.ErrorMessage = err.Error()
		}
	} else {
		ev.StatusCode = http.StatusOK
		if ev.Action == entity.AuditRegister {
			ev.StatusCode = http.StatusCreated
		}
		ev.ResponseMessage = "OK"
		if resp != nil && ev.UserID == nil {
			ev.UserID = &resp.User.ID
			ev.Username = resp.User.Username
		}
	}
	m.audit.Record(ctx, *ev)
}

func internal(err error) error {
	return apperror.Wrap(apperror.Internal, apperror.ReasonNone, msgInternal, err)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
