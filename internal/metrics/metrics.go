// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 外部プロバイダ呼び出しの結果ラベル。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// MetricsCollector はメトリクス収集のインターフェース。
// AIクライアント、生成サービス、ストレージ、クリーンアップから利用する。
type MetricsCollector interface {
	RecordProviderCall(provider, operation, outcome string, duration time.Duration)
	RecordPostGenerated(persisted bool)
	RecordImageGenerated(outcome string)
	RecordStorageFailure(operation string)
	RecordHTTPStatus(statusCode int)
	RecordRateLimited(limitType string)
	RecordOrphansRemoved(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	postsGenerated  *prometheus.CounterVec
	imagesGenerated *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	orphansRemoved  prometheus.Counter
}

// NewCollector はCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_provider_calls_total",
			Help: "AIプロバイダ呼び出し数（provider, operation, outcome別）",
		}, []string{"provider", "operation", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hospiblog_provider_latency_seconds",
			Help:    "AIプロバイダ呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		}, []string{"provider", "operation"}),
		postsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_posts_generated_total",
			Help: "生成されたブログ本文の数（保存有無別）",
		}, []string{"persisted"}),
		imagesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_images_generated_total",
			Help: "画像生成の結果別件数",
		}, []string{"outcome"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_storage_failures_total",
			Help: "ブロブストレージ操作の失敗数",
		}, []string{"operation"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospiblog_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limit_type"}),
		orphansRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hospiblog_orphan_blobs_removed_total",
			Help: "クリーンアップで削除された孤立ブロブの数",
		}),
	}

	reg.MustRegister(
		c.providerCalls,
		c.providerLatency,
		c.postsGenerated,
		c.imagesGenerated,
		c.storageFailures,
		c.httpStatus,
		c.rateLimited,
		c.orphansRemoved,
	)

	return c
}

// RecordProviderCall はAIプロバイダ呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordProviderCall(provider, operation, outcome string, duration time.Duration) {
	c.providerCalls.WithLabelValues(provider, operation, outcome).Inc()
	c.providerLatency.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordPostGenerated は本文生成を記録する。
func (c *Collector) RecordPostGenerated(persisted bool) {
	c.postsGenerated.WithLabelValues(strconv.FormatBool(persisted)).Inc()
}

// RecordImageGenerated は画像1枚分の生成結果を記録する。
func (c *Collector) RecordImageGenerated(outcome string) {
	c.imagesGenerated.WithLabelValues(outcome).Inc()
}

// RecordStorageFailure はストレージ操作の失敗を記録する。
func (c *Collector) RecordStorageFailure(operation string) {
	c.storageFailures.WithLabelValues(operation).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// RecordOrphansRemoved は削除した孤立ブロブ数を記録する。
func (c *Collector) RecordOrphansRemoved(count int) {
	c.orphansRemoved.Add(float64(count))
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordProviderCall(string, string, string, time.Duration) {}
func (NopCollector) RecordPostGenerated(bool) {}
func (NopCollector) RecordImageGenerated(string) {}
func (NopCollector) RecordStorageFailure(string) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordRateLimited(string) {}
func (NopCollector) RecordOrphansRemoved(int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// statusWriter はレスポンスのステータスコードを記録する。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// StatusMiddleware はレスポンスのステータスコードをcollectorに記録するミドルウェアを返す。
func StatusMiddleware(collector MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			collector.RecordHTTPStatus(sw.status)
		})
	}
}
