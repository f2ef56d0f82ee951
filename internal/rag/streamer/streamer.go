package streamer

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

const ragSystemInstruction = config.ModelContext + `
Answer the question ONLY from the note passages supplied in the prompt, in 2-3 sentences.
Do not add citation markers.
If no passages are supplied, or they do not cover the question, say so explicitly and answer briefly from the question alone - never present an unsourced statement as coming from the notes.`

const externalSystemInstruction = config.ModelContext + `
Answer the question from general knowledge in 2-4 sentences.`

type Streamer struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

func New(provider llm.Provider) *Streamer {
	return &Streamer{
		provider: provider,
		logger:   logger_i.NewLogger("Answer Streamer"),
	}
}

// Stream drives one generation call and forwards fragments in arrival order.
// The returned channel is single-consumer, closes after the terminal event,
// and stops early (no terminal event) once ctx cancellation is observed.
func (s *Streamer) Stream(ctx context.Context, question string, mode ragModel.PipelineMode, retrieved ragModel.RetrievedContext) <-chan ragModel.StreamEvent {
	events := make(chan ragModel.StreamEvent)
	go s.run(ctx, question, mode, retrieved, events)
	return events
}

func (s *Streamer) run(ctx context.Context, question string, mode ragModel.PipelineMode, retrieved ragModel.RetrievedContext, events chan<- ragModel.StreamEvent) {
	defer close(events)
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	system, prompt := buildPrompt(question, mode, retrieved)

	var full strings.Builder
	var streamErr error

	for fragment, err := range s.provider.Stream(ctx, system, prompt) {
		if err != nil {
			streamErr = err
			break
		}
		full.WriteString(fragment)
		select {
		case events <- ragModel.FragmentEvent(fragment):
		case <-ctx.Done():
			log.Debug("Stream cancelled by caller")
			return
		}
	}

	if streamErr != nil {
		log.Error("Generation interrupted", "error", streamErr, "partialLen", full.Len())
		terminal := ragModel.DoneEvent(full.String(), mode, false,
			fmt.Errorf("%w: %v", ragModel.ErrGenerationInterrupted, streamErr))
		select {
		case events <- terminal:
		case <-ctx.Done():
		}
		return
	}

	log.Debug("Generation complete", "answerLen", full.Len())
	select {
	case events <- ragModel.DoneEvent(full.String(), mode, true, nil):
	case <-ctx.Done():
	}
}

func buildPrompt(question string, mode ragModel.PipelineMode, retrieved ragModel.RetrievedContext) (system string, prompt string) {
	if mode == ragModel.PipelineExternal {
		return externalSystemInstruction, fmt.Sprintf("User Question: %s", question)
	}

	if retrieved.Empty() {
		return ragSystemInstruction, fmt.Sprintf("No passages were retrieved from the user's notes.\n\nUser Question: %s", question)
	}

	var contextText strings.Builder
	for _, p := range retrieved.Passages {
		contextText.WriteString(p.Text)
		contextText.WriteString("\n")
	}
	return ragSystemInstruction, fmt.Sprintf("Context:\n%s\nUser Question: %s", contextText.String(), question)
}
