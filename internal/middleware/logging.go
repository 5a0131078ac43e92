package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
)

// requestLogContextKey はリクエストごとのrequestLogをコンテキストに載せるキー。
var requestLogContextKey = contextKey("request_log")

// requestLog はログ出力のために下流のミドルウェアが書き込む値を保持する。
// セッションゲートはロギングより内側で動くため、コンテキストの値を
// 書き換えても外側には見えない。ポインタを共有して結果を受け取る。
type requestLog struct {
	subject string
	role    model.Role
}

// annotateRequestLog は認証済み主体をリクエストログに記録する。
// ロギングミドルウェアの外側では何もしない。
func annotateRequestLog(ctx context.Context, identity *model.Identity) {
	if rl, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		rl.subject = identity.Subject
		rl.role = identity.Role
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
// 最初に書かれたステータスだけを保持する。WriteHeaderを呼ばずにWriteした場合は200。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、認証済みの場合はsubjectとroleを含む。
//
// ログレベルはステータスで決まる:
//   - 5xx はERROR
//   - 4xx はWARN
//   - それ以外はINFO
//
// pathにクエリ文字列は含めない。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rl := &requestLog{}
			r = r.WithContext(context.WithValue(r.Context(), requestLogContextKey, rl))
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			durationMs := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}
			if rl.subject != "" {
				args = append(args,
					slog.String("subject", rl.subject),
					slog.String("role", string(rl.role)),
				)
			}

			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
