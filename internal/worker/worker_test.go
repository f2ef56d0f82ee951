package worker

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/rag/vectorDB"
	"github.com/akolanti/NotesRAG/internal/rag/vectorizer"
	"github.com/akolanti/NotesRAG/internal/task"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubEmbedder struct {
	BatchCalls int32
	FailWith   error
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (s *stubEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	atomic.AddInt32(&s.BatchCalls, 1)
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return make([][]float32, len(chunks)), nil
}

type stubIndex struct{}

func (s *stubIndex) Search(ctx context.Context, v []float32, f vectorDB.SearchFilter, k int) ([]vectorDB.RankedPassage, error) {
	return nil, nil
}
func (s *stubIndex) UpsertBatch(ctx context.Context, chunks []docModel.Chunk, vectors [][]float32) error {
	return nil
}
func (s *stubIndex) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	return nil
}
func (s *stubIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

type stubProvider struct{}

func (s *stubProvider) Complete(ctx context.Context, system string, prompt string) (string, error) {
	return "a summary", nil
}
func (s *stubProvider) Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

type stubDocStore struct {
	mu   sync.Mutex
	docs map[string]docModel.Document
	Done int32
}

func newStubDocStore(docs ...docModel.Document) *stubDocStore {
	s := &stubDocStore{docs: make(map[string]docModel.Document)}
	for _, d := range docs {
		s.docs[d.Id] = d
	}
	return s
}

func (s *stubDocStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Id] = doc
	return nil
}

func (s *stubDocStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, found := s.docs[id]
	return doc, found
}

func (s *stubDocStore) ListSummaries(ctx context.Context, ownerId string) ([]docModel.DocumentSummary, error) {
	return nil, nil
}

func (s *stubDocStore) SetVectorStatus(ctx context.Context, id string, status docModel.VectorStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[id]
	doc.VectorStatus = status
	s.docs[id] = doc
	return nil
}

func (s *stubDocStore) SetVectorized(ctx context.Context, id string, shortSummary string, generation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.AddInt32(&s.Done, 1)
	doc := s.docs[id]
	doc.VectorStatus = docModel.VectorCompleted
	s.docs[id] = doc
	return nil
}

func testSetup(docStore taskModel.DocumentStore, embedder *stubEmbedder) (*task.Service, *Pool, chan bool, *sync.WaitGroup) {
	logger_i.Init()
	taskSvc := task.InitTaskService(task.ServiceConfig{
		TaskChannel:       make(chan taskModel.VectorizeTask, 10),
		DispatcherChannel: make(chan bool, 10),
		Documents:         docStore,
	})
	vecSvc := vectorizer.NewService(embedder, &stubIndex{}, docStore, &stubProvider{})

	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}
	pool := InitWorkerPool(taskSvc, vecSvc, stopChan, wg)
	return taskSvc, pool, stopChan, wg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWorkerPool_Flow(t *testing.T) {
	docStore := newStubDocStore(docModel.Document{
		Id: "doc-1", OwnerId: "u1", Name: "notes", InlineContent: "some inline text", VectorStatus: docModel.VectorPending,
	})
	embedder := &stubEmbedder{}
	taskSvc, pool, stopChan, wg := testSetup(docStore, embedder)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		taskSvc.DispatcherChannel <- true

		waitFor(t, "worker creation", func() bool {
			return atomic.LoadInt64(&pool.currentWorkerCount) >= 1
		})
	})

	t.Run("Worker processes a task", func(t *testing.T) {
		taskSvc.TaskChannel <- taskModel.VectorizeTask{Id: "t1", DocumentId: "doc-1", OwnerId: "u1", Attempt: 1}

		waitFor(t, "task completion", func() bool {
			return atomic.LoadInt32(&docStore.Done) == 1
		})

		doc, _ := docStore.GetDocument(context.Background(), "doc-1")
		if doc.VectorStatus != docModel.VectorCompleted {
			t.Errorf("document status got %s, want completed", doc.VectorStatus)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_RetriesOnceOnTransientFailure(t *testing.T) {
	docStore := newStubDocStore(docModel.Document{
		Id: "doc-1", OwnerId: "u1", Name: "notes", InlineContent: "some inline text", VectorStatus: docModel.VectorPending,
	})
	embedder := &stubEmbedder{FailWith: status.Error(codes.ResourceExhausted, "embedding quota exhausted")}
	taskSvc, _, stopChan, wg := testSetup(docStore, embedder)

	taskSvc.TaskChannel <- taskModel.VectorizeTask{Id: "t1", DocumentId: "doc-1", OwnerId: "u1", Attempt: 1}

	//attempt 1 fails and requeues, attempt 2 fails and gives up
	waitFor(t, "both attempts", func() bool {
		return atomic.LoadInt32(&embedder.BatchCalls) == 2
	})

	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&embedder.BatchCalls); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}

	doc, _ := docStore.GetDocument(context.Background(), "doc-1")
	if doc.VectorStatus != docModel.VectorFailed {
		t.Errorf("document status got %s, want failed", doc.VectorStatus)
	}

	close(stopChan)
	wg.Wait()
}

func TestWorker_DoesNotRetryPermanentFailure(t *testing.T) {
	docStore := newStubDocStore(docModel.Document{
		Id: "doc-1", OwnerId: "u1", Name: "notes", InlineContent: "some inline text", VectorStatus: docModel.VectorPending,
	})
	embedder := &stubEmbedder{FailWith: errors.New("malformed content")}
	taskSvc, _, stopChan, wg := testSetup(docStore, embedder)

	taskSvc.TaskChannel <- taskModel.VectorizeTask{Id: "t1", DocumentId: "doc-1", OwnerId: "u1", Attempt: 1}

	waitFor(t, "first attempt", func() bool {
		return atomic.LoadInt32(&embedder.BatchCalls) == 1
	})

	//no requeue: the single attempt is the only one
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&embedder.BatchCalls); got != 1 {
		t.Errorf("permanent failure must not be retried, got %d attempts", got)
	}

	doc, _ := docStore.GetDocument(context.Background(), "doc-1")
	if doc.VectorStatus != docModel.VectorFailed {
		t.Errorf("document status got %s, want failed", doc.VectorStatus)
	}

	close(stopChan)
	wg.Wait()
}
