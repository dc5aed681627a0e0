// Package observability exports Prometheus metrics for vendor calls.
package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aiautotool/chathub/internal/llmclient"
)

// Metrics holds the vendor call collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chathub_vendor_requests_total",
				Help: "Total number of chat calls sent to LLM vendors",
			},
			[]string{"provider", "model", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chathub_vendor_request_duration_seconds",
				Help:    "Latency of chat calls sent to LLM vendors",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider", "model"},
		),
	}
}

// Hooks returns llmclient hooks that record every vendor call.
// A nil receiver yields empty hooks.
func (m *Metrics) Hooks() llmclient.Hooks {
	if m == nil {
		return llmclient.Hooks{}
	}
	return llmclient.Hooks{OnCallDone: m.observe}
}

func (m *Metrics) observe(_ context.Context, info llmclient.CallInfo) {
	m.requests.WithLabelValues(info.Provider, info.Model, statusLabel(info)).Inc()
	m.duration.WithLabelValues(info.Provider, info.Model).Observe(info.Duration.Seconds())
}

// statusLabel is the upstream status code, or "error" when none was received.
func statusLabel(info llmclient.CallInfo) string {
	if info.StatusCode == 0 {
		return "error"
	}
	return strconv.Itoa(info.StatusCode)
}
