package classifier

import (
	"fmt"
	"strings"

	"context"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

const systemInstruction = `You are a routing classifier for a note-taking assistant.
Decide whether the user's question should be answered from their own documents or from general knowledge.
Respond with JSON ONLY, no prose, no markdown fences:
{"use_documents": true|false, "reasoning": "<one short sentence>"}`

// AvailableContext is the compact digest of what the user's corpus holds.
type AvailableContext struct {
	Documents        []docModel.DocumentSummary
	PrimaryHasInline bool
}

type Classifier struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

func New(provider llm.Provider) *Classifier {
	return &Classifier{
		provider: provider,
		logger:   logger_i.NewLogger("Classifier"),
	}
}

// Classify issues exactly one non-streaming model call. The caller falls back
// to general knowledge when the error wraps ErrMalformedModelOutput.
func (c *Classifier) Classify(ctx context.Context, question string, available AvailableContext) (ragModel.ClassificationDecision, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	raw, err := c.provider.Complete(ctx, systemInstruction, buildPrompt(question, available))
	if err != nil {
		log.Error("Classifier model call failed", "error", err)
		return ragModel.ClassificationDecision{}, fmt.Errorf("%w: %v", ragModel.ErrMalformedModelOutput, err)
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		log.Error("Classifier returned unparseable output", "error", err)
		return ragModel.ClassificationDecision{}, err
	}

	log.Debug("Classified question", "useCorpus", decision.UseCorpus, "reasoning", decision.Reasoning)
	return decision, nil
}

func buildPrompt(question string, available AvailableContext) string {
	var digest strings.Builder
	if len(available.Documents) == 0 {
		digest.WriteString("(no documents attached)\n")
	}
	for _, doc := range available.Documents {
		digest.WriteString("- ")
		digest.WriteString(doc.Name)
		digest.WriteString(" [")
		digest.WriteString(string(doc.VectorStatus))
		digest.WriteString("]")
		if doc.ShortSummary != "" {
			digest.WriteString(": ")
			digest.WriteString(doc.ShortSummary)
		}
		digest.WriteString("\n")
	}

	inline := "no"
	if available.PrimaryHasInline {
		inline = "yes"
	}

	return fmt.Sprintf("Available documents:\n%s\nPrimary document has inline text content: %s\n\nUser Question: %s", digest.String(), inline, question)
}
