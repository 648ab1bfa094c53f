package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	OrdersCreated     prometheus.Counter
	CallOutcomes      *prometheus.CounterVec
	LLMRequests       *prometheus.CounterVec
	LLMLatency        *prometheus.HistogramVec
	TelephonyRequests *prometheus.CounterVec
	TelephonyLatency  *prometheus.HistogramVec
	TTSRequests       *prometheus.CounterVec
	TTSLatency        *prometheus.HistogramVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Total orders created from customer messages.",
			}),
			CallOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "call_outcomes_total",
				Help:      "Total classified call replies by decision.",
			}, []string{"decision"}),
			LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total completion-service requests by outcome.",
			}, []string{"status"}),
			LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Latency distribution for completion-service calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			TelephonyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "telephony_requests_total",
				Help:      "Total telephony API requests by endpoint and status.",
			}, []string{"endpoint", "status"}),
			TelephonyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "telephony_request_duration_seconds",
				Help:      "Latency distribution for telephony API requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint", "status"}),
			TTSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tts_requests_total",
				Help:      "Total speech-synthesis requests by outcome.",
			}, []string{"status"}),
			TTSLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tts_request_duration_seconds",
				Help:      "Latency distribution for speech-synthesis calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.OrdersCreated,
			metricsInstance.CallOutcomes,
			metricsInstance.LLMRequests,
			metricsInstance.LLMLatency,
			metricsInstance.TelephonyRequests,
			metricsInstance.TelephonyLatency,
			metricsInstance.TTSRequests,
			metricsInstance.TTSLatency,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
