package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countTasksInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_tasks_in_queue",
	Help: "Number of vectorize tasks in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "qa_sessions_total",
	Help: "Finished question sessions labelled by pipeline and success",
}, []string{"pipeline", "success"})

var fragmentsStreamed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "answer_fragments_streamed_total",
	Help: "Answer fragments relayed to callers",
})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE handlers can stream through
// the recorder.
func (r *HttpStatusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func IncrementTasksInQueue() {
	countTasksInQueue.Inc()
}

func DecrementTasksInQueue() {
	countTasksInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CaptureSessionOutcome(pipeline string, success bool) {
	sessionsTotal.WithLabelValues(pipeline, strconv.FormatBool(success)).Inc()
}

func CaptureFragmentStreamed() {
	fragmentsStreamed.Inc()
}

var taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vectorize_task_duration_seconds",
	Help:    "Total time spent processing one vectorize task.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureTaskMetrics(label string, timeElapsed time.Duration) {
	taskDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
