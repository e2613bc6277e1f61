package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationJobsTotal, generationLatencyMs, promptTokensEstimated)
}

var generationJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_jobs_total",
		Help: "Generation jobs finished, labeled by job type and terminal status.",
	},
	[]string{"job_type", "status"},
)

var generationLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "generation_latency_ms",
		Help:    "Backend generation call latency in milliseconds.",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 80000},
	},
	[]string{"job_type", "success"},
)

var promptTokensEstimated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_prompt_tokens_estimated",
		Help: "Sum of estimated prompt tokens submitted to the text backend.",
	},
	[]string{"job_type"},
)

func IncGenerationJob(jobType, status string) {
	generationJobsTotal.WithLabelValues(norm(jobType), norm(status)).Inc()
}

func ObserveGeneration(jobType string, latencyMs int, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	generationLatencyMs.WithLabelValues(norm(jobType), lbl).Observe(float64(latencyMs))
}

func AddPromptTokens(jobType string, tokens int) {
	promptTokensEstimated.WithLabelValues(norm(jobType)).Add(float64(tokens))
}
