// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// RegisterReq は/auth/registerエンドポイントのリクエストボディを表します。
type RegisterReq struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
	Phone     string `json:"phone" binding:"max=20"`
}

// LoginReq は/auth/loginエンドポイントのリクエストボディを表します。
// usernameOrEmail にはユーザー名とメールアドレスのどちらでも指定できます。
type LoginReq struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// RefreshReq represents the body of /auth/refresh. The token may also be sent
// in the Refresh-Token header, so the field is optional here.
type RefreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
