package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ingestLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cohortctl",
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Text input lines by section and outcome.",
		},
		[]string{"section", "outcome"},
	)
	codecOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cohortctl",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Binary encode/decode operations by result.",
		},
		[]string{"op", "result"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cohortctl",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Bytes written or read by the binary codec.",
		},
		[]string{"op"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cohortctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cohortctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ingestLines, codecOps, codecBytes, httpRequests, httpDuration)
	})
}

func RecordIngestLine(section, outcome string) {
	RegisterMetrics()
	ingestLines.WithLabelValues(section, outcome).Inc()
}

func RecordCodec(op string, bytes int64, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	codecOps.WithLabelValues(op, result).Inc()
	if bytes > 0 {
		codecBytes.WithLabelValues(op).Add(float64(bytes))
	}
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// WriteTextfile dumps the default registry in Prometheus text format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
