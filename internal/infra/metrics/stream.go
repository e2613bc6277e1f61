package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(chatStreamFrames, chatStreamDecodeErrors, chatTurnLatencyMs)
}

var chatStreamFrames = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_stream_frames_total",
		Help: "Decoded chat stream frames by kind (delta/error/done).",
	},
	[]string{"kind"},
)

var chatStreamDecodeErrors = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chat_stream_decode_errors_total",
		Help: "Malformed data lines skipped by the stream decoder.",
	},
)

var chatTurnLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chat_turn_latency_ms",
		Help:    "Full chat turn latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
	},
	[]string{"success"},
)

func IncStreamFrame(kind string) {
	chatStreamFrames.WithLabelValues(norm(kind)).Inc()
}

func IncStreamDecodeError() {
	chatStreamDecodeErrors.Inc()
}

func ObserveChatTurn(latencyMs int, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	chatTurnLatencyMs.WithLabelValues(lbl).Observe(float64(latencyMs))
}
