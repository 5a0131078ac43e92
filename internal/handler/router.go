package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hospiblog/internal/metrics"
	"github.com/hitoshi/hospiblog/internal/middleware"
)

// HealthChecker はヘルスチェックでDB疎通を確認するためのインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Gate              *middleware.SessionGate
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFEnabled       bool
	CSRFConfig        middleware.CSRFConfig

	// インフラ
	HealthChecker   HealthChecker
	Metrics         metrics.MetricsCollector
	MetricsHandler  http.Handler
	AuthConfig      AuthHandlerConfig
	AuthService     AuthServiceInterface
	BlogService     BlogServiceInterface
	ImageService    ImageServiceInterface
	TopicService    TopicServiceInterface
	SettingsService SettingsServiceInterface
	AdminService    AdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (CSRF) → Gate → RateLimit
//
// ログインとヘルスチェックはセッションゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(metrics.StatusMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	blogHandler := NewBlogHandler(deps.BlogService)
	imageHandler := NewImageHandler(deps.ImageService)
	topicHandler := NewTopicHandler(deps.TopicService)
	settingsHandler := NewSettingsHandler(deps.SettingsService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- インフラ ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		}

		general := deps.RateLimiter.GeneralMiddleware()
		generation := deps.RateLimiter.GenerationMiddleware()

		// --- 病院認証 ---
		r.Route("/auth", func(r chi.Router) {
			r.With(general).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(deps.Gate.RequireHospital())
				r.Use(general)
				r.Get("/session", authHandler.Session)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		// 本文生成はセッション任意（未ログインは保存しない）
		r.With(deps.Gate.OptionalHospital(), generation).Post("/generate-blog", blogHandler.GenerateBlog)

		// --- 病院コンテンツ ---
		r.Group(func(r chi.Router) {
			r.Use(deps.Gate.RequireHospital())
			r.Use(general)

			r.With(generation).Post("/generate-images", imageHandler.GenerateImages)
			r.With(generation).Post("/topics/recommend", topicHandler.Recommend)

			r.Route("/blog-posts", func(r chi.Router) {
				r.Get("/", blogHandler.ListPosts)
				r.Put("/", blogHandler.UpdatePost)
				r.Get("/{id}/images", imageHandler.ListImages)
			})

			r.Route("/hospital/settings", func(r chi.Router) {
				r.Get("/", settingsHandler.GetSettings)
				r.Put("/", settingsHandler.UpdateSettings)
			})
		})

		// --- 管理者 ---
		r.Route("/admin", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(general).Post("/login", authHandler.AdminLogin)
				r.Post("/logout", authHandler.AdminLogout)
				r.With(deps.Gate.RequireAdmin()).Get("/session", authHandler.AdminSession)
			})

			r.Group(func(r chi.Router) {
				r.Use(deps.Gate.RequireAdmin())
				r.Use(general)

				r.Route("/hospitals", func(r chi.Router) {
					r.Post("/", adminHandler.CreateHospital)
					r.Get("/", adminHandler.ListHospitals)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", adminHandler.GetHospital)
						r.Put("/", adminHandler.UpdateHospital)
						r.Post("/reset-password", adminHandler.ResetPassword)
						r.Get("/posts", adminHandler.ListHospitalPosts)
					})
				})
			})
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
