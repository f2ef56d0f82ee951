package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/rag/classifier"
	"github.com/akolanti/NotesRAG/internal/rag/retriever"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

type mockClassifier struct {
	OnClassify func(ctx context.Context, question string, available classifier.AvailableContext) (ragModel.ClassificationDecision, error)
	Calls      int
}

func (m *mockClassifier) Classify(ctx context.Context, question string, available classifier.AvailableContext) (ragModel.ClassificationDecision, error) {
	m.Calls++
	if m.OnClassify != nil {
		return m.OnClassify(ctx, question, available)
	}
	return ragModel.ClassificationDecision{UseCorpus: false, Reasoning: "default"}, nil
}

type mockRetriever struct {
	OnRetrieve func(ctx context.Context, question string, scope retriever.Scope) (ragModel.RetrievedContext, error)
	Calls      int
	LastScope  retriever.Scope
}

func (m *mockRetriever) Retrieve(ctx context.Context, question string, scope retriever.Scope) (ragModel.RetrievedContext, error) {
	m.Calls++
	m.LastScope = scope
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, question, scope)
	}
	return ragModel.RetrievedContext{}, nil
}

type mockStreamer struct {
	Events        []ragModel.StreamEvent
	LastMode      ragModel.PipelineMode
	LastRetrieved ragModel.RetrievedContext
}

func (m *mockStreamer) Stream(ctx context.Context, question string, mode ragModel.PipelineMode, retrieved ragModel.RetrievedContext) <-chan ragModel.StreamEvent {
	m.LastMode = mode
	m.LastRetrieved = retrieved
	out := make(chan ragModel.StreamEvent)
	go func() {
		defer close(out)
		for _, e := range m.Events {
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type mockDocumentStore struct {
	Summaries []docModel.DocumentSummary
	Documents map[string]docModel.Document
}

func (m *mockDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	return nil
}

func (m *mockDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	doc, found := m.Documents[id]
	return doc, found
}

func (m *mockDocumentStore) ListSummaries(ctx context.Context, ownerId string) ([]docModel.DocumentSummary, error) {
	return m.Summaries, nil
}

func (m *mockDocumentStore) SetVectorStatus(ctx context.Context, id string, status docModel.VectorStatus) error {
	return nil
}

func (m *mockDocumentStore) SetVectorized(ctx context.Context, id string, shortSummary string, generation string) error {
	return nil
}

func successEvents(mode ragModel.PipelineMode, answer string) []ragModel.StreamEvent {
	return []ragModel.StreamEvent{
		ragModel.FragmentEvent(answer),
		ragModel.DoneEvent(answer, mode, true, nil),
	}
}

func TestAsk_Scenarios(t *testing.T) {
	logger_i.Init()

	tests := []struct {
		name           string
		question       ragModel.Question
		setup          func(c *mockClassifier, r *mockRetriever, s *mockStreamer)
		wantMode       ragModel.PipelineMode
		wantRetrievals int
		wantSuccess    bool
	}{
		{
			name:     "Corpus_Question_Runs_RAG_Pipeline",
			question: ragModel.Question{Text: "what do my notes say about photosynthesis?", DocumentID: "doc-1", UserID: "u1"},
			setup: func(c *mockClassifier, r *mockRetriever, s *mockStreamer) {
				c.OnClassify = func(ctx context.Context, q string, a classifier.AvailableContext) (ragModel.ClassificationDecision, error) {
					return ragModel.ClassificationDecision{UseCorpus: true, Reasoning: "mentions notes"}, nil
				}
				r.OnRetrieve = func(ctx context.Context, q string, scope retriever.Scope) (ragModel.RetrievedContext, error) {
					return ragModel.RetrievedContext{Passages: []ragModel.Passage{{ChunkID: "c1", Text: "light reactions"}}}, nil
				}
				s.Events = successEvents(ragModel.PipelineRAG, "It converts light into energy.")
			},
			wantMode:       ragModel.PipelineRAG,
			wantRetrievals: 1,
			wantSuccess:    true,
		},
		{
			name:     "General_Question_Skips_Retrieval",
			question: ragModel.Question{Text: "what is the capital of France?", UserID: "u1"},
			setup: func(c *mockClassifier, r *mockRetriever, s *mockStreamer) {
				s.Events = successEvents(ragModel.PipelineExternal, "Paris.")
			},
			wantMode:       ragModel.PipelineExternal,
			wantRetrievals: 0,
			wantSuccess:    true,
		},
		{
			name:     "Classifier_Failure_Falls_Back_To_External",
			question: ragModel.Question{Text: "anything", UserID: "u1"},
			setup: func(c *mockClassifier, r *mockRetriever, s *mockStreamer) {
				c.OnClassify = func(ctx context.Context, q string, a classifier.AvailableContext) (ragModel.ClassificationDecision, error) {
					return ragModel.ClassificationDecision{}, errors.New("garbage output")
				}
				s.Events = successEvents(ragModel.PipelineExternal, "best effort answer")
			},
			wantMode:       ragModel.PipelineExternal,
			wantRetrievals: 0,
			wantSuccess:    true,
		},
		{
			name:     "Retrieval_Failure_Degrades_To_Empty_Context",
			question: ragModel.Question{Text: "summarize my notes", UserID: "u1"},
			setup: func(c *mockClassifier, r *mockRetriever, s *mockStreamer) {
				c.OnClassify = func(ctx context.Context, q string, a classifier.AvailableContext) (ragModel.ClassificationDecision, error) {
					return ragModel.ClassificationDecision{UseCorpus: true}, nil
				}
				r.OnRetrieve = func(ctx context.Context, q string, scope retriever.Scope) (ragModel.RetrievedContext, error) {
					return ragModel.RetrievedContext{}, ragModel.ErrRetrievalUnavailable
				}
				s.Events = successEvents(ragModel.PipelineRAG, "I could not find that in the notes.")
			},
			wantMode:       ragModel.PipelineRAG,
			wantRetrievals: 1,
			wantSuccess:    true,
		},
		{
			name:     "Generation_Failure_Is_Terminal",
			question: ragModel.Question{Text: "anything", UserID: "u1"},
			setup: func(c *mockClassifier, r *mockRetriever, s *mockStreamer) {
				s.Events = []ragModel.StreamEvent{
					ragModel.FragmentEvent("partial "),
					ragModel.DoneEvent("partial ", ragModel.PipelineExternal, false, ragModel.ErrGenerationInterrupted),
				}
			},
			wantMode:       ragModel.PipelineExternal,
			wantRetrievals: 0,
			wantSuccess:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mClassify := &mockClassifier{}
			mRetrieve := &mockRetriever{}
			mStream := &mockStreamer{}
			tt.setup(mClassify, mRetrieve, mStream)

			controller := NewController(mClassify, mRetrieve, mStream, &mockDocumentStore{})

			var events []ragModel.StreamEvent
			for e := range controller.Ask(context.Background(), tt.question) {
				events = append(events, e)
			}

			if mClassify.Calls != 1 {
				t.Errorf("expected 1 classification, got %d", mClassify.Calls)
			}
			if mRetrieve.Calls != tt.wantRetrievals {
				t.Errorf("retrieval calls got %d, want %d", mRetrieve.Calls, tt.wantRetrievals)
			}
			if mStream.LastMode != tt.wantMode {
				t.Errorf("pipeline mode got %s, want %s", mStream.LastMode, tt.wantMode)
			}

			if len(events) == 0 {
				t.Fatal("no events relayed")
			}
			terminal := events[len(events)-1]
			if !terminal.Done {
				t.Fatalf("last event is not terminal: %+v", terminal)
			}
			if terminal.Success != tt.wantSuccess {
				t.Errorf("Success got %v, want %v", terminal.Success, tt.wantSuccess)
			}
		})
	}
}

func TestAsk_TargetedDocumentScopesRetrieval(t *testing.T) {
	mClassify := &mockClassifier{
		OnClassify: func(ctx context.Context, q string, a classifier.AvailableContext) (ragModel.ClassificationDecision, error) {
			return ragModel.ClassificationDecision{UseCorpus: true}, nil
		},
	}
	mRetrieve := &mockRetriever{}
	mStream := &mockStreamer{Events: successEvents(ragModel.PipelineRAG, "ok")}

	controller := NewController(mClassify, mRetrieve, mStream, &mockDocumentStore{})

	question := ragModel.Question{Text: "q", DocumentID: "doc-42", UserID: "u1"}
	for range controller.Ask(context.Background(), question) {
	}

	if mRetrieve.LastScope.UserID != "u1" {
		t.Errorf("scope user got %s, want u1", mRetrieve.LastScope.UserID)
	}
	if len(mRetrieve.LastScope.DocumentIDs) != 1 || mRetrieve.LastScope.DocumentIDs[0] != "doc-42" {
		t.Errorf("scope documents got %v, want [doc-42]", mRetrieve.LastScope.DocumentIDs)
	}
}

func TestAsk_CancellationClosesStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mStream := &mockStreamer{Events: []ragModel.StreamEvent{
		ragModel.FragmentEvent("one"),
		ragModel.FragmentEvent("two"),
		ragModel.DoneEvent("onetwo", ragModel.PipelineExternal, true, nil),
	}}
	controller := NewController(&mockClassifier{}, &mockRetriever{}, mStream, &mockDocumentStore{})

	events := controller.Ask(ctx, ragModel.Question{Text: "q", UserID: "u1"})

	<-events //first fragment
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return //closed without hanging
			}
		case <-deadline:
			t.Fatal("session stream did not close after cancellation")
		}
	}
}
