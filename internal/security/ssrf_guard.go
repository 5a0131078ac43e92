// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrResponseTooLarge はダウンロードサイズが上限を超えた場合に返される。
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// SSRFGuardService は外部URLへのアクセスを安全に行うためのインターフェース。
// 画像プロバイダーが返すURLのダウンロードと、病院ブログRSSの取得で使用される。
type SSRFGuardService interface {
	// NewSafeClient はプライベートIP等への接続を拒否するHTTPクライアントを生成する。
	// 接続先の検証はDNS解決後のIPアドレスに対して行われるため、
	// 公開ホスト名が内部アドレスに解決される場合も拒否される。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決を伴わない静的な検証を行う。
	// スキーム、空ホスト、IPリテラル、localhost系ホスト名を確認し、
	// 問題があればエラーを返す。病院が登録したブログURLの保存前チェックに使う。
	ValidateURL(rawURL string) error
}

var allowedSchemes = []string{"http", "https"}

// blockedNetworks は静的検証で拒否するネットワーク範囲。
// init で一度だけパースし、ValidateURL がIPリテラルの照合に使う。
// 接続時の検証はこの表ではなく、safeurlがDialerのControlフックで行う。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// RFC 1918 のプライベート範囲（社内DBやストレージのゲートウェイ）
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック
		"127.0.0.0/8",
		// リンクローカル。169.254.169.254 のクラウドメタデータを含む
		"169.254.0.0/16",
		// 「このネットワーク」。0.0.0.0 は多くのOSでローカルホストに届く
		"0.0.0.0/8",
		// IPv6 のループバック、リンクローカル、ユニークローカル
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// ssrfGuard は状態を持たない。設定はクライアント生成のたびに組み立てる。
type ssrfGuard struct{}

// NewSSRFGuard はSSRFGuardServiceを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを返す。
// safeurlのデフォルト設定で次の宛先への接続が拒否される:
//   - プライベートIPアドレスとループバック
//   - リンクローカル（メタデータエンドポイントを含む）
//   - IPv6の内部向けアドレス
//
// 加えてスキームをhttp/https、接続先ポートを80/443に限定する。
// リダイレクト先も同じDialerを通るので、外部URLから内部へ転送させる攻撃も防げる。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はスキーム、ホスト、IPアドレスを検証する。
// 静的な検査のみでDNSは引かない。ホスト名が後から内部アドレスに
// 解決される場合はNewSafeClientのクライアント側で止まる。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// file: や gopher: などはここで落とす
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	// IPリテラルはブロック範囲と照合し、ホスト名の検査は行わない
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

// FetchLimited はclientでrawURLをGETし、最大maxBytesまで本文を読み込む。
// 200以外のステータスと上限超過はエラーとする。
// 上限判定のためmaxBytes+1バイトまで読み、超えていればErrResponseTooLargeを返す。
// 2番目の戻り値はレスポンスのContent-Type。
func FetchLimited(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, "", ErrResponseTooLarge
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// isAllowedScheme はスキームが許可リストにあるかを大文字小文字を区別せずに判定する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isBlockedIP はIPがblockedNetworksのいずれかに含まれるかを返す。
// IPv4射影IPv6アドレスもnet.IPNet.ContainsがIPv4として照合する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
