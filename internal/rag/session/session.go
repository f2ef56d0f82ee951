package session

import (
	"context"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/internal/rag/classifier"
	"github.com/akolanti/NotesRAG/internal/rag/retriever"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

type State string

const (
	StateReceived          State = "Received"
	StateClassifying       State = "Classifying"
	StateRetrievingContext State = "RetrievingContext"
	StateGenerating        State = "Generating"
	StateCompleted         State = "Completed"
	StateFailed            State = "Failed"
)

// Interfaces kept small so tests can swap the stages without touching the
// real pipeline (same reason the worker only sees rag.Service upstream).
type Classifier interface {
	Classify(ctx context.Context, question string, available classifier.AvailableContext) (ragModel.ClassificationDecision, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, question string, scope retriever.Scope) (ragModel.RetrievedContext, error)
}

type Streamer interface {
	Stream(ctx context.Context, question string, mode ragModel.PipelineMode, retrieved ragModel.RetrievedContext) <-chan ragModel.StreamEvent
}

// Controller owns one question end-to-end. Instances share nothing mutable;
// concurrent questions just call Ask on the same controller.
type Controller struct {
	classifier Classifier
	retriever  Retriever
	streamer   Streamer
	documents  taskModel.DocumentStore
	logger     *logger_i.Logger
}

func NewController(c Classifier, r Retriever, s Streamer, documents taskModel.DocumentStore) *Controller {
	return &Controller{
		classifier: c,
		retriever:  r,
		streamer:   s,
		documents:  documents,
		logger:     logger_i.NewLogger("Session Controller"),
	}
}

// Ask runs Received -> Classifying -> [RetrievingContext] -> Generating and
// relays the answer stream. The channel closes after the terminal event, or
// early without one when ctx is cancelled.
func (c *Controller) Ask(ctx context.Context, question ragModel.Question) <-chan ragModel.StreamEvent {
	out := make(chan ragModel.StreamEvent)
	go c.run(ctx, question, out)
	return out
}

func (c *Controller) run(ctx context.Context, question ragModel.Question, out chan<- ragModel.StreamEvent) {
	defer close(out)
	log := c.logger.With("traceId", question.TraceID, "userId", question.UserID)

	state := StateReceived
	state = c.transition(state, StateClassifying, log)

	decision := c.executeClassifyStep(ctx, log, question)

	mode := ragModel.PipelineExternal
	var retrieved ragModel.RetrievedContext

	if decision.UseCorpus {
		state = c.transition(state, StateRetrievingContext, log)
		mode = ragModel.PipelineRAG
		//empty context is a valid outcome here, generation still runs
		retrieved = c.executeRetrieveStep(ctx, log, question)
	}

	state = c.transition(state, StateGenerating, log)

	generateCtx, cancel := context.WithTimeout(ctx, config.GenerateTimeout)
	defer cancel()

	for event := range c.streamer.Stream(generateCtx, question.Text, mode, retrieved) {
		select {
		case out <- event:
		case <-ctx.Done():
			log.Debug("Caller gone, aborting session", "state", state)
			return
		}
		if event.Done {
			if event.Success {
				state = c.transition(state, StateCompleted, log)
			} else {
				state = c.transition(state, StateFailed, log)
			}
			metrics.CaptureSessionOutcome(string(mode), event.Success)
			return
		}
	}
}

func (c *Controller) transition(from State, to State, log *logger_i.Logger) State {
	log.Debug("Session state", "from", from, "to", to)
	return to
}
