// Package metrics объявляет метрики Prometheus, которые отдаются на /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weatherdash"

var (
	// HTTPRequestDuration - длительность обработки запросов по маршруту и коду ответа.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests by route pattern and status code",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})

	// UpstreamRequests - обращения к внешним провайдерам.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Count of requests to weather, currency and payment providers",
	}, []string{"provider", "outcome"})

	// CacheLookups - попадания и промахи кеша по типу данных.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Count of cache lookups by kind and result",
	}, []string{"kind", "result"})

	// WebhookEvents - полученные события платёжного провайдера.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "billing",
		Name:      "webhook_events_total",
		Help:      "Count of payment webhook events by type and outcome",
	}, []string{"type", "outcome"})

	// SubscriptionChanges - изменения тарифа пользователей.
	SubscriptionChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "billing",
		Name:      "subscription_changes_total",
		Help:      "Count of subscription status changes by event type",
	}, []string{"event"})
)

// Значения метки outcome.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeIgnored  = "ignored"
)

// ObserveUpstream учитывает обращение к внешнему провайдеру.
func ObserveUpstream(provider string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	UpstreamRequests.WithLabelValues(provider, outcome).Inc()
}

// ObserveCache учитывает обращение к кешу.
func ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(kind, result).Inc()
}

// Middleware замеряет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы параметры пути не порождали новые серии.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
