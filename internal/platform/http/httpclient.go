// Package http はサービス間呼び出し用の HTTP クライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig は NewHTTPClient の設定です。ゼロ値のフィールドは既定値を使います。
type ClientConfig struct {
	// Timeout はリクエスト全体の上限です。試行ごとの期限は context 側で与えます。
	Timeout time.Duration
	// MaxIdleConnsPerHost は同一ホストへの再利用可能な接続数です。
	MaxIdleConnsPerHost int
}

// NewHTTPClient は認証サービスなど内部サービス呼び出し用の HTTP クライアントを作成します。
//
// 注意:
//   - http.DefaultClient にはタイムアウトがないため使用しない
//   - 呼び出し先は単一ホストなので、ホスト単位のアイドル接続数を多めに確保する
//   - レスポンスヘッダー待ちにも上限を設け、応答しない相手で接続を占有し続けない
func NewHTTPClient(cfg ClientConfig) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 32
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: t}
}
