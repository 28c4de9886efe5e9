package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	essayGradesTotal      prometheus.Counter
	publishedTotal        prometheus.Counter
	autoGradedAnswers     prometheus.Counter
	uploadsTotal          *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	gradingQueueCacheHits *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of assignment submissions recorded.",
		}, []string{"pending_grading"})

		essayGradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "essay_grades_total",
			Help: "Total number of essay answers graded by teachers.",
		})

		publishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submissions_published_total",
			Help: "Total number of submissions published to students.",
		})

		autoGradedAnswers = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auto_graded_answers_total",
			Help: "Total number of multiple-choice answers graded by the batch re-grader.",
		})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of accepted attachment uploads.",
		}, []string{"mime"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_rejected_total",
			Help: "Total number of rejected attachment uploads.",
		}, []string{"reason"})

		gradingQueueCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_queue_cache_total",
			Help: "Cache hits and misses for the pending-grading queue.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			essayGradesTotal,
			publishedTotal,
			autoGradedAnswers,
			uploadsTotal,
			uploadRejectedTotal,
			gradingQueueCacheHits,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsTotal exposes the submission counter, labelled by whether the
// attempt still awaits essay grading.
func SubmissionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// EssayGradesTotal exposes the essay grading counter.
func EssayGradesTotal() prometheus.Counter {
	RegisterMetrics()
	return essayGradesTotal
}

// SubmissionsPublishedTotal exposes the publication counter.
func SubmissionsPublishedTotal() prometheus.Counter {
	RegisterMetrics()
	return publishedTotal
}

// AutoGradedAnswersTotal exposes the batch re-grade counter.
func AutoGradedAnswersTotal() prometheus.Counter {
	RegisterMetrics()
	return autoGradedAnswers
}

// UploadsTotal exposes the accepted upload counter.
func UploadsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// UploadsRejectedTotal exposes the rejected upload counter.
func UploadsRejectedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// GradingQueueCache exposes the pending-grading cache counter.
func GradingQueueCache() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingQueueCacheHits
}
