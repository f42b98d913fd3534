package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewsync", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewsync", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	Retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "retries_total", Help: "Outbound retries by cause."},
		[]string{"service", "cause"},
	)
	RetriesExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "retries_exhausted_total", Help: "Requests that ran out of attempts."},
		[]string{"service"},
	)
	Pages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "pages_total", Help: "Pages visited by resource and result."},
		[]string{"resource", "result"}, // result: ok|schema_error|error
	)
	RecordsRetained = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "records_retained_total", Help: "Records kept after dedup."},
		[]string{"resource"},
	)
	BusinessOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "business_outcomes_total", Help: "Per-business sync outcomes."},
		[]string{"status"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsync", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// NewMetricsServer returns a server exposing reg under /metrics.
func NewMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve exposes reg on addr in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	srv := NewMetricsServer(addr, reg)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		Retries, RetriesExhausted, Pages, RecordsRetained, BusinessOutcomes, CacheEvents)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one outbound attempt. status 0 means no response.
func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveRetry(service, cause string) { Retries.WithLabelValues(service, cause).Inc() }

func ObserveExhausted(service string) { RetriesExhausted.WithLabelValues(service).Inc() }

func ObservePage(resource, result string) { Pages.WithLabelValues(resource, result).Inc() }

func ObserveRetained(resource string, n int) {
	RecordsRetained.WithLabelValues(resource).Add(float64(n))
}

func ObserveOutcome(status string) { BusinessOutcomes.WithLabelValues(status).Inc() }

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
