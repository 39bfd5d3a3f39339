package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы подпротокола обновления (label result).
const (
	refreshOK       = "ok"
	refreshNoToken  = "no_token"
	refreshFailed   = "failed"
	refreshShared   = "shared"
	refreshCanceled = "canceled"
	refreshNotSent  = "not_sent"
)

// Metrics — счётчики клиента. Nil-значение безопасно и ничего не пишет.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	refresh  *prometheus.CounterVec
	retries  prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики. reg == nil — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paybudz",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound requests by method and response code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paybudz",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outbound request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paybudz",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paybudz",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests reissued after a successful token refresh.",
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.refresh, m.retries)

	return m
}

func (m *Metrics) observe(method string, status int, dur time.Duration) {
	if m == nil {
		return
	}

	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}

	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(dur.Seconds())
}

func (m *Metrics) refreshed(result string) {
	if m == nil {
		return
	}

	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}

	m.retries.Inc()
}
