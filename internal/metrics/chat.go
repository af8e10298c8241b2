package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat completion Prometheus metrics.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parchment",
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	ChatStreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parchment",
			Name:      "chat_stream_duration_seconds",
			Help:      "Chat stream duration from request to final token in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	GuardrailRefusalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parchment",
			Name:      "guardrail_refusals_total",
			Help:      "Structural guardrail refusals served without a chat call",
		},
	)

	CitationsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parchment",
			Name:      "citations_dropped_total",
			Help:      "Model-emitted citations dropped by validation",
		},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers Prometheus chat metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ChatStreamDuration)
	prometheus.MustRegister(GuardrailRefusalsTotal)
	prometheus.MustRegister(CitationsDroppedTotal)
	chatMetricsRegistered = true
}
