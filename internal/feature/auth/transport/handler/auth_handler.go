// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/transport/http/dto"
	"auth_backend/internal/feature/auth/usecase"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/shared/apperror"
)

// RefreshTokenHeader carries the refresh token as an alternative to the JSON body.
const RefreshTokenHeader = "Refresh-Token"

// SessionService は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type SessionService interface {
	Register(ctx context.Context, in usecase.RegisterInput, client usecase.ClientInfo) (*usecase.AuthResponse, error)
	Login(ctx context.Context, identifier, password string, client usecase.ClientInfo) (*usecase.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, client usecase.ClientInfo) (*usecase.AuthResponse, error)
	Validate(ctx context.Context, accessToken string) usecase.ValidationResult
	Logout(ctx context.Context, accessToken string, client usecase.ClientInfo)
	LogoutAll(ctx context.Context, userID uint, client usecase.ClientInfo) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	sessions SessionService
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(sessions SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - ユーザー名・メール重複時は409を返却
// - 成功時はトークンペア付きで201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	resp, err := h.sessions.Register(c.Request.Context(), usecase.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, clientInfo(c))
	if err != nil {
		slog.Warn("register failed", "error", err, "username", req.Username, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 認証失敗の理由はユーザー列挙を防ぐため、存在しないユーザーとパスワード誤りで同じメッセージになります。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	resp, err := h.sessions.Login(c.Request.Context(), req.UsernameOrEmail, req.Password, clientInfo(c))
	if err != nil {
		slog.Warn("login failed", "error", err, "identifier", req.UsernameOrEmail, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user login successful", "user_id", resp.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, resp)
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行します。
// トークンは Refresh-Token ヘッダー、なければJSONボディから読み取ります。
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := strings.TrimSpace(c.GetHeader(RefreshTokenHeader))
	if token == "" {
		var req dto.RefreshReq
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
				return
			}
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "refresh token is required"})
		return
	}

	resp, err := h.sessions.Refresh(c.Request.Context(), token, clientInfo(c))
	if err != nil {
		slog.Warn("token refresh failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Validate はアクセストークンの有効性を返します。結果に関わらず常に200を返却します。
func (h *AuthHandler) Validate(c *gin.Context) {
	token, ok := jwtmw.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusOK, dto.ValidateResponse{Valid: false, Message: "missing bearer token"})
		return
	}

	res := h.sessions.Validate(c.Request.Context(), token)
	if !res.Valid {
		c.JSON(http.StatusOK, dto.ValidateResponse{Valid: false, Message: res.Message})
		return
	}
	exp := res.ExpiresAt
	c.JSON(http.StatusOK, dto.ValidateResponse{
		Valid:     true,
		UserID:    res.UserID,
		Username:  res.Username,
		Email:     res.Email,
		Roles:     res.Roles,
		ExpiresAt: &exp,
		Message:   res.Message,
	})
}

// Logout はセッションキャッシュからアクセストークンを削除します。常に200を返却します。
func (h *AuthHandler) Logout(c *gin.Context) {
	// トークンがなくても監査イベントを残すため常に呼び出す
	token, _ := jwtmw.BearerToken(c.GetHeader("Authorization"))
	h.sessions.Logout(c.Request.Context(), token, clientInfo(c))
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logout successful"})
}

// LogoutAll は認証済みユーザーの全リフレッシュトークンを失効させます。
// AuthRequired ミドルウェアの後ろに配置する必要があります。
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	p, ok := jwtmw.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Authentication required"})
		return
	}
	if err := h.sessions.LogoutAll(c.Request.Context(), p.UserID, clientInfo(c)); err != nil {
		slog.Error("logout-all failed", "error", err, "user_id", p.UserID)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out from all devices"})
}

// Health は認証サービス自身の稼働確認です。
func (h *AuthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "auth"})
}

// writeError はアプリケーションエラーをステータスコードとErrorResponseに変換します。
func writeError(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(apperror.KindOf(err)), dto.ErrorResponse{
		Error:  apperror.MessageOf(err),
		Reason: string(apperror.ReasonOf(err)),
	})
}

// clientInfo はリクエストから監査用のクライアント情報を取り出します。
// プロキシ経由の場合は X-Forwarded-For の先頭を優先します。
func clientInfo(c *gin.Context) usecase.ClientInfo {
	return usecase.ClientInfo{
		IPAddress: ClientIP(c),
		UserAgent: c.Request.UserAgent(),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
	}
}

// ClientIP returns the first X-Forwarded-For entry, or gin's view of the remote address.
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}
