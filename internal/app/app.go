package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/hospiblog/internal/admin"
	"github.com/hitoshi/hospiblog/internal/ai"
	"github.com/hitoshi/hospiblog/internal/auth"
	"github.com/hitoshi/hospiblog/internal/blog"
	"github.com/hitoshi/hospiblog/internal/config"
	"github.com/hitoshi/hospiblog/internal/database"
	"github.com/hitoshi/hospiblog/internal/handler"
	"github.com/hitoshi/hospiblog/internal/hospital"
	"github.com/hitoshi/hospiblog/internal/image"
	"github.com/hitoshi/hospiblog/internal/logger"
	"github.com/hitoshi/hospiblog/internal/metrics"
	"github.com/hitoshi/hospiblog/internal/middleware"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
	"github.com/hitoshi/hospiblog/internal/security"
	"github.com/hitoshi/hospiblog/internal/storage"
	"github.com/hitoshi/hospiblog/internal/topic"
	"github.com/hitoshi/hospiblog/internal/worker/cleanup"
)

const (
	storageTimeout  = 30 * time.Second
	feedTimeout     = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefaultWithLevel(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	// 引数の誤りは設定読み込みより先に検出する
	var seed AdminSeed
	if cmd == CommandCreateAdmin {
		var ok bool
		if seed, ok = ParseAdminSeed(args); !ok {
			return fmt.Errorf("usage: create-admin <username> <password> [full_name]")
		}
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateAdmin:
		return runCreateAdmin(cfg, seed)
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// newStorageClient は画像バケットのストレージクライアントを生成する。
func newStorageClient(cfg *config.Config, collector metrics.MetricsCollector) *storage.Client {
	return storage.NewClient(
		&http.Client{Timeout: storageTimeout},
		slog.Default(),
		collector,
		cfg.SupabaseStorageURL(),
		cfg.SupabaseServiceRoleKey,
		cfg.StorageBucket,
	)
}

// server はrunServeが起動するHTTPハンドラーと、停止時に解放するリソースをまとめる。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newServer は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
// DBへの接続はリクエスト時まで行わない。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*server, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. リポジトリの初期化
	hospitalRepo := repository.NewPostgresHospitalRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)
	postRepo := repository.NewPostgresBlogPostRepo(db)
	imageRepo := repository.NewPostgresBlogImageRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()
	credentialKey := cfg.BlogCredentialKey
	if credentialKey == "" {
		credentialKey = cfg.SessionSecret
	}
	sealer, err := security.NewCredentialSealer(credentialKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential sealer: %w", err)
	}
	tokens := auth.NewTokenCodec(cfg.SessionSecret)

	// 4. 外部APIクライアントの初期化
	anthropic := ai.NewAnthropicClient(&http.Client{Timeout: cfg.AITimeout}, slog.Default(), collector, ai.AnthropicConfig{
		APIKey:  cfg.AnthropicAPIKey,
		Model:   cfg.AnthropicModel,
		Timeout: cfg.AITimeout,
	})
	openai := ai.NewOpenAIClient(&http.Client{Timeout: cfg.AITimeout}, slog.Default(), collector, ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIImageModel,
		Size:    cfg.OpenAIImageSize,
		Timeout: cfg.AITimeout,
	})
	blobs := newStorageClient(cfg, collector)
	downloader := image.NewDownloader(ssrfGuard, cfg.AITimeout, cfg.ImageMaxDownloadSize)
	feedReader := topic.NewBlogFeedReader(ssrfGuard, ssrfGuard.NewSafeClient(feedTimeout))

	// 5. ドメインサービスの初期化
	authService := auth.NewService(hospitalRepo, adminRepo, tokens, auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge})
	hospitalService := hospital.NewService(hospitalRepo, sanitizer, sealer)
	adminService := admin.NewService(hospitalRepo, postRepo, hospitalService)
	blogService := blog.NewService(anthropic, hospitalRepo, postRepo, sanitizer, collector, cfg.AnthropicMaxTokens)
	imageService := image.NewService(openai, blobs, downloader, hospitalRepo, postRepo, imageRepo, collector,
		image.Config{MaxConcurrent: cfg.ImageMaxConcurrent})
	topicService := topic.NewService(anthropic, hospitalRepo, postRepo, feedReader, cfg.AnthropicTopicMaxTokens)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitGeneration),
	)
	rateLimiter.OnLimited = collector.RecordRateLimited

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Gate:              middleware.NewSessionGate(tokens),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFEnabled:       cfg.CSRFProtection,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		BlogService:     handler.NewBlogServiceAdapter(blogService),
		ImageService:    handler.NewImageServiceAdapter(imageService),
		TopicService:    handler.NewTopicServiceAdapter(topicService),
		SettingsService: hospitalService,
		AdminService:    adminService,
	}

	return &server{handler: handler.NewRouter(deps), rateLimiter: rateLimiter}, nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "hospiblog"),
	)

	srv, err := newServer(cfg, db, reg)
	if err != nil {
		return err
	}
	defer srv.rateLimiter.Stop()

	// 生成系は外部APIの待ち時間を含むため、書き込みタイムアウトに余裕を持たせる
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCreateAdmin は管理者アカウントを作成する。同名の管理者が存在する場合は上書きする。
func runCreateAdmin(cfg *config.Config, seed AdminSeed) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return createAdmin(context.Background(), repository.NewPostgresAdminRepo(db), seed, time.Now())
}

// adminUpserter は管理者の作成・更新を行うインターフェース。
type adminUpserter interface {
	Upsert(ctx context.Context, a *model.Admin) error
}

func createAdmin(ctx context.Context, repo adminUpserter, seed AdminSeed, now time.Time) error {
	hash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	a := &model.Admin{
		ID:           uuid.NewString(),
		Username:     seed.Username,
		PasswordHash: hash,
		FullName:     seed.FullName,
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := repo.Upsert(ctx, a); err != nil {
		return fmt.Errorf("failed to save admin: %w", err)
	}

	slog.Info("admin account saved", slog.String("username", seed.Username))
	return nil
}

// runCleanup は孤立画像ブロブの削除を1回実行する。
// 定期実行は外部のスケジューラ（cron等）から行う。
func runCleanup(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sweeper := cleanup.NewOrphanSweeper(
		newStorageClient(cfg, metrics.NopCollector{}),
		repository.NewPostgresBlogImageRepo(db),
		slog.Default(),
		metrics.NopCollector{},
	)
	sweeper.GracePeriod = cfg.CleanupGracePeriod

	if _, err := sweeper.Run(context.Background()); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
