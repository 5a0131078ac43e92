// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/hospiblog/internal/model"
)

const (
	// HospitalCookieName は病院セッションのCookie名。
	HospitalCookieName = "session"
	// AdminCookieName は管理者セッションのCookie名。
	AdminCookieName = "admin_session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var identityContextKey = contextKey("identity")

// TokenDecoder はセッショントークンの検証に必要なインターフェース。
// auth.TokenCodecが満たす。
type TokenDecoder interface {
	Decode(token string, expected model.Role) (*model.Identity, error)
}

// SessionGate はCookieのセッショントークンを検証し、Identityをコンテキストに注入する。
type SessionGate struct {
	decoder TokenDecoder
}

// NewSessionGate はSessionGateを生成する。
func NewSessionGate(decoder TokenDecoder) *SessionGate {
	return &SessionGate{decoder: decoder}
}

// CookieNameFor は種別に対応するセッションCookie名を返す。
func CookieNameFor(role model.Role) string {
	if role == model.RoleAdmin {
		return AdminCookieName
	}
	return HospitalCookieName
}

// RequireHospital は有効な病院セッションがないリクエストに401を返すミドルウェア。
func (g *SessionGate) RequireHospital() func(next http.Handler) http.Handler {
	return g.require(model.RoleHospital)
}

// RequireAdmin は有効な管理者セッションがないリクエストに401を返すミドルウェア。
func (g *SessionGate) RequireAdmin() func(next http.Handler) http.Handler {
	return g.require(model.RoleAdmin)
}

// OptionalHospital は病院セッションがあればIdentityを注入し、なければそのまま通過させる。
func (g *SessionGate) OptionalHospital() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := g.identify(r, model.RoleHospital); identity != nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *SessionGate) require(role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := g.identify(r, role)
			if identity == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// identify は種別に対応するCookieを読み、検証済みIdentityを返す。無効ならnil。
func (g *SessionGate) identify(r *http.Request, role model.Role) *model.Identity {
	cookie, err := r.Cookie(CookieNameFor(role))
	if err != nil || cookie.Value == "" {
		return nil
	}
	identity, err := g.decoder.Decode(cookie.Value, role)
	if err != nil {
		return nil
	}
	annotateRequestLog(r.Context(), identity)
	return identity
}

// IdentityFromContext はゲートが注入したIdentityを返す。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
