// Package client は別プロセスの認証サービスに対するHTTPクライアントを提供します。
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/resilience"
	"auth_backend/internal/shared/apperror"
)

// maxBodyBytes caps how much of a downstream response is read.
const maxBodyBytes = 1 << 20

// RemoteValidator は GET {baseURL}/auth/validate を呼び出してトークンを検証します。
type RemoteValidator struct {
	baseURL string
	client  *http.Client
	caller  *resilience.Caller
}

// RemoteValidatorがAuthenticatorを実装していることをコンパイル時に検証します。
var _ jwtmw.Authenticator = (*RemoteValidator)(nil)

// NewRemoteValidator はRemoteValidatorの新しいインスタンスを生成します。
func NewRemoteValidator(baseURL string, client *http.Client, caller *resilience.Caller) *RemoteValidator {
	return &RemoteValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		caller:  caller,
	}
}

// Validate はトークンの検証結果を返します。
// 通信エラーとタイムアウトはリトライされ、使い切るとDownstreamUnavailableになります。
// 下流が返したエラーステータスはリトライせずapperrorに変換します。
func (v *RemoteValidator) Validate(ctx context.Context, token string) (*dto.ValidateResponse, error) {
	return resilience.Call(ctx, v.caller, func(ctx context.Context) (*dto.ValidateResponse, error) {
		return v.fetch(ctx, token)
	})
}

func (v *RemoteValidator) fetch(ctx context.Context, token string) (*dto.ValidateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/validate", nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, apperror.ReasonNone, "invalid auth service url", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read validate response: %w", err)
	}
	if err := resilience.DecodeStatus(res.StatusCode, body); err != nil {
		return nil, err
	}

	var out dto.ValidateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperror.Wrap(apperror.Internal, apperror.ReasonNone, "malformed validate response", err)
	}
	return &out, nil
}

// Authenticate はjwtmw.Authenticatorの実装です。無効なトークンはUnauthorizedになります。
func (v *RemoteValidator) Authenticate(ctx context.Context, token string) (entity.Principal, error) {
	res, err := v.Validate(ctx, token)
	if err != nil {
		return entity.Principal{}, err
	}
	if !res.Valid {
		return entity.Principal{}, apperror.New(apperror.Unauthorized, apperror.ReasonInvalidToken, res.Message)
	}
	p := entity.Principal{
		UserID:   res.UserID,
		Username: res.Username,
		Email:    res.Email,
		Roles:    res.Roles,
	}
	if res.ExpiresAt != nil {
		p.ExpiresAt = *res.ExpiresAt
	}
	return p, nil
}
