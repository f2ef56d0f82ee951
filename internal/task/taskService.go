package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"github.com/google/uuid"
)

// Service is the explicit vectorization queue. Producers enqueue, the worker
// pool drains TaskChannel; DispatcherChannel asks the pool to grow.
type Service struct {
	TaskChannel       chan taskModel.VectorizeTask
	DispatcherChannel chan bool
	RequestCount      int64
	Documents         taskModel.DocumentStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	TaskChannel       chan taskModel.VectorizeTask
	DispatcherChannel chan bool
	Documents         taskModel.DocumentStore
}

func InitTaskService(cfg ServiceConfig) *Service {
	return &Service{
		TaskChannel:       cfg.TaskChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		Documents:         cfg.Documents,
		logger:            logger_i.NewLogger("TaskService"),
	}
}

// Enqueue marks the document pending and queues a fresh vectorize task.
// The send is blocking so a full queue applies backpressure to uploads.
func (s *Service) Enqueue(ctx context.Context, documentId string, ownerId string, traceId string) (taskModel.VectorizeTask, error) {
	log := s.logger.With("traceId", traceId, "documentId", documentId)

	if err := s.Documents.SetVectorStatus(ctx, documentId, docModel.VectorPending); err != nil {
		return taskModel.VectorizeTask{}, err
	}

	newTask := taskModel.VectorizeTask{
		Id:          uuid.New().String(),
		DocumentId:  documentId,
		OwnerId:     ownerId,
		TraceId:     traceId,
		Attempt:     1,
		CreatedTime: time.Now(),
	}

	metrics.IncrementTasksInQueue()
	s.TaskChannel <- newTask
	log.Info("Queued vectorize task", "taskId", newTask.Id)

	//a new worker is signalled every N queued tasks; idle workers retire on
	//their own, so the pool stays at one worker most of the time
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.TasksPerNewWorkerCount == 0 {
		metrics.StartDispatcherSignalCount()
		s.DispatcherChannel <- true
	}
	return newTask, nil
}

// Requeue puts a failed task back with its attempt count bumped. Used by the
// worker for one retry on transient failures.
func (s *Service) Requeue(failed taskModel.VectorizeTask) {
	failed.Attempt++
	metrics.IncrementTasksInQueue()
	s.TaskChannel <- failed
	s.logger.Info("Requeued vectorize task", "taskId", failed.Id, "attempt", failed.Attempt)
}
