// Package metrics объявляет Prometheus-метрики сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qa_tracker"

var (
	activitiesSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activities",
		Name:      "submitted_total",
		Help:      "Number of activities persisted, by activity type.",
	}, []string{"activity_type"})

	activitySubmittedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "activities",
		Name:      "last_submitted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})

	summaryRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "summary",
		Name:      "requests_total",
		Help:      "Summary generation requests, by outcome.",
	}, []string{"outcome"})

	summaryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "summary",
		Name:      "upstream_duration_seconds",
		Help:      "Latency of calls to the text-generation service.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Activity events handed to the broker, by broker and outcome.",
	}, []string{"broker", "outcome"})

	notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Notification e-mails, by outcome.",
	}, []string{"outcome"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		activitiesSubmitted,
		activitySubmittedGauge,
		summaryRequests,
		summaryDuration,
		eventsPublished,
		notificationsSent,
		httpDuration,
	)
}

// RecordActivitySubmitted учитывает сохранённую активность.
func RecordActivitySubmitted(activityType string, ts time.Time) {
	activitiesSubmitted.WithLabelValues(activityType).Inc()
	if !ts.IsZero() {
		activitySubmittedGauge.Set(float64(ts.Unix()))
	}
}

// RecordSummary учитывает запрос сводки с исходом outcome и длительностью вызова внешнего сервиса.
// Нулевая длительность означает, что внешний сервис не вызывался.
func RecordSummary(outcome string, upstream time.Duration) {
	summaryRequests.WithLabelValues(outcome).Inc()
	if upstream > 0 {
		summaryDuration.Observe(upstream.Seconds())
	}
}

// RecordEventPublished учитывает публикацию события в брокер.
func RecordEventPublished(broker string, err error) {
	eventsPublished.WithLabelValues(broker, outcome(err)).Inc()
}

// RecordNotification учитывает отправку письма.
func RecordNotification(err error) {
	notificationsSent.WithLabelValues(outcome(err)).Inc()
}

// ObserveHTTP записывает длительность обработанного HTTP-запроса.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
