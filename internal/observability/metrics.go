package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jspeak_active_sessions",
		Help: "Number of active dictation sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jspeak_sessions_total",
		Help: "Total number of dictation sessions started",
	})

	utteranceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jspeak_utterance_duration_seconds",
		Help:    "Duration of completed utterances in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 60},
	})

	// Request metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jspeak_requests_total",
		Help: "Total number of protocol requests",
	}, []string{"method", "status"})

	// Transcription metrics
	transcriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jspeak_transcriptions_total",
		Help: "Total number of transcription engine calls",
	}, []string{"kind", "status"}) // kind: partial|final

	transcriptionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jspeak_transcription_latency_seconds",
		Help:    "Transcription engine call latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"kind"})

	// Audio metrics
	audioBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jspeak_audio_bytes_total",
		Help: "Total decoded audio bytes pushed into sessions",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jspeak_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// RecordSessionStart records a new session
func RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records a session removal
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordRequest records a handled protocol request
func RecordRequest(method string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	requestsTotal.WithLabelValues(method, status).Inc()
}

// RecordTranscription records a transcription engine call
func RecordTranscription(kind string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	transcriptionsTotal.WithLabelValues(kind, status).Inc()
	transcriptionLatency.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// RecordUtterance records a completed utterance duration
func RecordUtterance(d time.Duration) {
	utteranceDuration.Observe(d.Seconds())
}

// RecordAudioBytes records decoded audio bytes pushed into a session
func RecordAudioBytes(n int) {
	audioBytesReceived.Add(float64(n))
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
