package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ModelOther labels generations whose model is not on the configured allowlist.
const ModelOther = "other"

var (
	// Generations
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_generations_total",
			Help: "Generation requests by model and result code",
		},
		// model: an allowlisted model name, or ModelOther
		[]string{"model", "result"}, // result: ok|<error code>
	)
	GenerationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uigen_generation_duration_seconds",
			Help:    "End-to-end duration of generation requests",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s..256s
		},
		[]string{"result"},
	)

	// Output validation
	OutputChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_output_checks_total",
			Help: "Completeness checks on generated output by result",
		},
		[]string{"result"}, // result: pass|fail
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_llm_requests_total",
			Help: "Number of completion requests by provider",
		},
		[]string{"provider"},
	)
	LLMDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uigen_llm_request_duration_seconds",
			Help:    "Duration of completion requests",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)
	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_llm_tokens_total",
			Help: "Tokens consumed by completion requests",
		},
		[]string{"provider", "direction"}, // direction: input|output
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	HTTPDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uigen_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		OutputChecks,
		LLMRequests,
		LLMDurationSeconds,
		LLMTokens,
		HTTPRequests,
		HTTPDurationSeconds,
		Errors,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Generations
func ObserveGeneration(model, result string, d time.Duration) {
	Generations.WithLabelValues(model, result).Inc()
	GenerationDurationSeconds.WithLabelValues(result).Observe(d.Seconds())
}

func IncOutputCheck(result string) {
	OutputChecks.WithLabelValues(result).Inc()
}

// LLM
func IncLLMRequest(provider string) {
	LLMRequests.WithLabelValues(provider).Inc()
}

func ObserveLLMDuration(provider string, d time.Duration) {
	LLMDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

func AddTokens(provider string, input, output int64) {
	if input > 0 {
		LLMTokens.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		LLMTokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}

// HTTP
func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, path, status).Inc()
	HTTPDurationSeconds.WithLabelValues(method, path).Observe(d.Seconds())
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
