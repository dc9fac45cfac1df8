// Package metrics defines the Prometheus collectors for the Tubely API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload pipeline metrics
var (
	// UploadsTotal counts uploads by kind (thumbnail, video) and status.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "uploads_total",
			Help:      "Total number of asset uploads",
		},
		[]string{"kind", "status"},
	)

	// UploadDuration tracks end-to-end video upload handling time.
	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tubely",
			Name:      "upload_duration_seconds",
			Help:      "Time taken to handle an upload request",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"kind"},
	)

	// ProbeDuration tracks ffprobe execution time.
	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tubely",
			Name:      "probe_duration_seconds",
			Help:      "Time taken by ffprobe to inspect an upload",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// TranscodeDuration tracks ffmpeg fast-start remux time.
	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tubely",
			Name:      "transcode_duration_seconds",
			Help:      "Time taken by ffmpeg to remux an upload for fast start",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120},
		},
	)

	// TranscodeFallbacks counts uploads stored without fast-start processing.
	TranscodeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "transcode_fallbacks_total",
			Help:      "Uploads stored from the original file after a failed remux",
		},
	)

	// ProbeFallbacks counts uploads classified as "other" after a failed probe.
	ProbeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tubely",
			Name:      "probe_fallbacks_total",
			Help:      "Uploads classified as other after a failed aspect probe",
		},
	)

	// ObjectStoreDuration tracks S3 PutObject time.
	ObjectStoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tubely",
			Name:      "object_store_put_duration_seconds",
			Help:      "Time taken to upload an object to storage",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120},
		},
	)
)

// API metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubely",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tubely",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AuthFailures counts authentication failures by reason.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubely",
			Subsystem: "api",
			Name:      "auth_failures_total",
			Help:      "Total number of authentication failures",
		},
		[]string{"reason"},
	)
)

// RecordUploadSuccess records a successful upload of the given kind.
func RecordUploadSuccess(kind string) {
	UploadsTotal.WithLabelValues(kind, "success").Inc()
}

// RecordUploadFailure records a failed upload of the given kind.
func RecordUploadFailure(kind string) {
	UploadsTotal.WithLabelValues(kind, "failed").Inc()
}
