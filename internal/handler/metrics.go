package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/adilhusain01/campayn/internal/youtube"
)

// Metrics holds all Prometheus collectors for the campayn backend.
var Metrics = struct {
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	YouTubeRequests    *prometheus.CounterVec
	QuotaUsed          prometheus.GaugeFunc
	QuotaRemaining     prometheus.GaugeFunc
	RefreshOutcomes    *prometheus.CounterVec
	SettlementOutcomes *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	DBPoolActive       prometheus.GaugeFunc
	DBPoolIdle         prometheus.GaugeFunc
}{}

// InitMetrics registers all Prometheus metrics on reg. Call once at startup.
// pool is nil for the Mongo store; quota is nil only in tests.
func InitMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, quota *youtube.QuotaTracker) {
	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campayn_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "campayn_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.YouTubeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campayn_youtube_requests_total",
			Help: "YouTube Data API calls, by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	Metrics.RefreshOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campayn_refresh_videos_total",
			Help: "Videos processed by the metrics refresh, by outcome.",
		},
		[]string{"outcome"},
	)

	Metrics.SettlementOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campayn_settlement_campaigns_total",
			Help: "Campaigns examined by the settlement job, by outcome.",
		},
		[]string{"outcome"},
	)

	Metrics.JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campayn_job_duration_seconds",
			Help:    "Duration of scheduled job cycles.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"job", "status"},
	)

	reg.MustRegister(
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.YouTubeRequests,
		Metrics.RefreshOutcomes,
		Metrics.SettlementOutcomes,
		Metrics.JobDuration,
	)

	if quota != nil {
		Metrics.QuotaUsed = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "campayn_youtube_quota_used",
				Help: "Quota units committed today.",
			},
			func() float64 {
				return float64(quota.Status().Used)
			},
		)

		Metrics.QuotaRemaining = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "campayn_youtube_quota_remaining",
				Help: "Quota units left today.",
			},
			func() float64 {
				return float64(quota.Status().Remaining)
			},
		)

		reg.MustRegister(Metrics.QuotaUsed, Metrics.QuotaRemaining)
	}

	// DB pool gauges — read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "campayn_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "campayn_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		reg.MustRegister(Metrics.DBPoolActive, Metrics.DBPoolIdle)
	}
}

// ObserveYouTube counts one provider call. It is handed to the YouTube
// client as its observer.
func ObserveYouTube(endpoint, outcome string) {
	if Metrics.YouTubeRequests == nil {
		return
	}
	Metrics.YouTubeRequests.WithLabelValues(endpoint, outcome).Inc()
}

// JobRecorder feeds job outcomes into the Prometheus collectors.
type JobRecorder struct{}

func (JobRecorder) RecordRefresh(outcome string) {
	if Metrics.RefreshOutcomes == nil {
		return
	}
	Metrics.RefreshOutcomes.WithLabelValues(outcome).Inc()
}

func (JobRecorder) RecordSettlement(outcome string) {
	if Metrics.SettlementOutcomes == nil {
		return
	}
	Metrics.SettlementOutcomes.WithLabelValues(outcome).Inc()
}

func (JobRecorder) ObserveJob(job string, d time.Duration, err error) {
	if Metrics.JobDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	Metrics.JobDuration.WithLabelValues(job, status).Observe(d.Seconds())
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if rest, ok := strings.CutPrefix(path, "/api/campaigns/"); ok && rest != "" {
		if _, tail, found := strings.Cut(rest, "/"); found {
			return "/api/campaigns/:id/" + tail
		}
		return "/api/campaigns/:id"
	}
	return path
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	return MetricsHandlerFor(prometheus.DefaultGatherer)
}

// MetricsHandlerFor serves the collectors of g.
func MetricsHandlerFor(g prometheus.Gatherer) fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
