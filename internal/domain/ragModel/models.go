package ragModel

import "errors"

// failure taxonomy - classification and retrieval failures degrade locally,
// generation failures surface as a terminal stream event
var (
	ErrMalformedModelOutput  = errors.New("malformed model output")
	ErrRetrievalUnavailable  = errors.New("retrieval unavailable")
	ErrGenerationInterrupted = errors.New("generation interrupted")
	ErrVectorizationFailed   = errors.New("vectorization failed")
)

type PipelineMode string

const (
	PipelineRAG      PipelineMode = "rag"
	PipelineExternal PipelineMode = "external"
)

// Question is immutable once submitted. UserID arrives pre-authenticated
// from the fronting gateway.
type Question struct {
	Text       string
	DocumentID string
	UserID     string
	TraceID    string
}

type ClassificationDecision struct {
	UseCorpus bool
	Reasoning string
}

type Passage struct {
	ChunkID       string
	Text          string
	Score         float32
	SequenceIndex int
}

// RetrievedContext holds passages in relevance-descending order, ties broken
// by ascending SequenceIndex. Zero passages is a valid state, not an error.
type RetrievedContext struct {
	Passages []Passage
}

func (rc RetrievedContext) Empty() bool {
	return len(rc.Passages) == 0
}

// StreamEvent is one element of an AnswerStream: either a fragment or the
// terminal record. After an event with Done=true no further events arrive.
type StreamEvent struct {
	Fragment string

	Done         bool
	Answer       string
	PipelineUsed PipelineMode
	Success      bool
	Err          error
}

func FragmentEvent(text string) StreamEvent {
	return StreamEvent{Fragment: text}
}

func DoneEvent(answer string, mode PipelineMode, success bool, err error) StreamEvent {
	return StreamEvent{
		Done:         true,
		Answer:       answer,
		PipelineUsed: mode,
		Success:      success,
		Err:          err,
	}
}
