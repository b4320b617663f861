package http

import (
	"net"
	"net/http"
	"time"
)

// ConfigureTransport は外部API（メール送信など）呼び出し用の接続設定を適用します。
// AWS SDKの BuildableClient.WithTransportOptions にそのまま渡せます。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - MaxIdleConns: 最大アイドル接続数
//   - IdleConnTimeout: アイドル接続の維持期間
//   - TLSHandshakeTimeout: HTTPSハンドシェイクの最大時間
//
// 注意:
//   - TLSClientConfig には触れない（AWS_CA_BUNDLE などSDK側の設定を残すため）
func ConfigureTransport(t *http.Transport) {
	t.Proxy = http.ProxyFromEnvironment
	t.MaxIdleConns = 20
	t.IdleConnTimeout = 90 * time.Second
	t.TLSHandshakeTimeout = 5 * time.Second
	t.ForceAttemptHTTP2 = true
}

// ConfigureDialer はTCP接続のタイムアウトをデフォルトより短く設定します。
func ConfigureDialer(d *net.Dialer) {
	d.Timeout = 5 * time.Second
	d.KeepAlive = 30 * time.Second
}
