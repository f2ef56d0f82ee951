package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/internal/rag/vectorizer"
	"github.com/akolanti/NotesRAG/internal/task"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

// Pool drains the vectorize queue. It starts with one worker, grows on
// dispatcher signals up to MaxWorkerCount, and idle workers retire.
type Pool struct {
	taskService        *task.Service
	vectorizerService  *vectorizer.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	logger             *logger_i.Logger
}

func InitWorkerPool(taskService *task.Service, vectorizerService *vectorizer.Service, stopWorkerChan chan bool, waitGroup *sync.WaitGroup) *Pool {
	pool := &Pool{
		taskService:       taskService,
		vectorizerService: vectorizerService,
		stopWorkerChannel: stopWorkerChan,
		workerWaitGroup:   waitGroup,
		logger:            logger_i.NewLogger("WorkerPool"),
	}
	pool.logger.Info("Initializing worker pool")
	go pool.dispatcher()
	return pool
}

func (p *Pool) dispatcher() {
	p.createWorker()
	p.logger.Info("Dispatcher started")
	for range p.taskService.DispatcherChannel {
		if atomic.LoadInt64(&p.currentWorkerCount) < config.MaxWorkerCount {
			p.logger.Info("Creating new worker", "WorkerCount :", atomic.LoadInt64(&p.currentWorkerCount))
			p.createWorker()
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	go p.worker()
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	p.logger.Info("Created new worker")
}

func (p *Pool) worker() {
	for {
		select {
		case currentTask := <-p.taskService.TaskChannel:
			p.executeTask(currentTask)
			metrics.DecrementTasksInQueue()

		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// Worker was idle for too long, decrement counter and retire
			if atomic.LoadInt64(&p.currentWorkerCount) > config.MinWorkerCount {
				p.removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}
