package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (p *Pool) executeTask(currentTask taskModel.VectorizeTask) {
	start := time.Now()
	status := "complete"
	defer func() {
		// Record total time at the end
		metrics.CaptureTaskMetrics(status, time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentTask.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.VectorizeTimeout)
	defer cancel()

	log := p.logger.With("traceId", currentTask.TraceId, "taskId", currentTask.Id)
	log.Debug("Processing vectorize task", "documentId", currentTask.DocumentId)

	err := p.vectorizerService.Vectorize(ctx, currentTask)
	if err == nil {
		return
	}

	status = "error"
	log.Error("Vectorize task failed", "error", err, "attempt", currentTask.Attempt)

	//permanent failures (missing document, unreadable file) never heal on a
	//second pass, so only transient ones go back into the queue
	if currentTask.Attempt < config.MaxVectorizeAttempts && isTransientFailure(err) {
		p.taskService.Requeue(currentTask)
	}
}

func isTransientFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.Aborted:
			return true
		}
	}
	return false
}

func (p *Pool) removeWorker(reason string) {
	p.workerWaitGroup.Done()
	atomic.AddInt64(&p.currentWorkerCount, -1)
	p.logger.Info("Removed worker ", "reason", reason, "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}
