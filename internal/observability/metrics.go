package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. All methods are safe on a
// nil receiver so callers never branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aiRequests *prometheus.CounterVec
	aiLatency  *prometheus.HistogramVec

	quizBuilds       *prometheus.CounterVec
	quizDropped      prometheus.Counter
	distributions    prometheus.Counter
	distRecipients   *prometheus.CounterVec
	feedbackPersists *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edubot_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edubot_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edubot_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edubot_ai_requests_total",
			Help: "Model requests by provider/use case/status.",
		}, []string{"provider", "use_case", "status"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edubot_ai_request_duration_seconds",
			Help:    "Model request latency in seconds by provider/use case.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider", "use_case"}),
		quizBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edubot_quiz_builds_total",
			Help: "Quiz builds by outcome (ok, fallback).",
		}, []string{"outcome"}),
		quizDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edubot_quiz_questions_dropped_total",
			Help: "Generated questions dropped by validation.",
		}),
		distributions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edubot_distributions_total",
			Help: "Lesson distribution events.",
		}),
		distRecipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edubot_distribution_recipients_total",
			Help: "Distribution recipients by result (assigned, not_found).",
		}, []string{"result"}),
		feedbackPersists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edubot_score_persist_total",
			Help: "Score persistence attempts by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.aiRequests,
		m.aiLatency,
		m.quizBuilds,
		m.quizDropped,
		m.distributions,
		m.distRecipients,
		m.feedbackPersists,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAIRequest(provider, useCase, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(provider, useCase, status).Inc()
	m.aiLatency.WithLabelValues(provider, useCase).Observe(dur.Seconds())
}

func (m *Metrics) ObserveQuizBuild(fallback bool, dropped int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	m.quizBuilds.WithLabelValues(outcome).Inc()
	if dropped > 0 {
		m.quizDropped.Add(float64(dropped))
	}
}

func (m *Metrics) ObserveDistribution(assigned, notFound int) {
	if m == nil {
		return
	}
	m.distributions.Inc()
	m.distRecipients.WithLabelValues("assigned").Add(float64(assigned))
	m.distRecipients.WithLabelValues("not_found").Add(float64(notFound))
}

func (m *Metrics) ObserveScorePersist(status string) {
	if m == nil {
		return
	}
	m.feedbackPersists.WithLabelValues(status).Inc()
}
