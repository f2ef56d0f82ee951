package session

import (
	"context"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/internal/rag/classifier"
	"github.com/akolanti/NotesRAG/internal/rag/retriever"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

// executeClassifyStep never fails the session: any classifier error routes
// to general knowledge. Availability beats routing precision.
func (c *Controller) executeClassifyStep(ctx context.Context, log *logger_i.Logger, question ragModel.Question) ragModel.ClassificationDecision {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("classification", time.Since(start)) }()

	classifyCtx, cancel := context.WithTimeout(ctx, config.ClassifyTimeout)
	defer cancel()

	decision, err := c.classifier.Classify(classifyCtx, question.Text, c.availableContext(classifyCtx, question))
	if err != nil {
		log.Warn("Classification failed, falling back to general knowledge", "error", err)
		return ragModel.ClassificationDecision{UseCorpus: false, Reasoning: "classifier fallback"}
	}
	return decision
}

// executeRetrieveStep degrades to empty context on any failure - the
// streamer handles missing passages, so RetrievalUnavailable stays internal.
func (c *Controller) executeRetrieveStep(ctx context.Context, log *logger_i.Logger, question ragModel.Question) ragModel.RetrievedContext {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	retrieveCtx, cancel := context.WithTimeout(ctx, config.RetrieveTimeout)
	defer cancel()

	scope := retriever.Scope{UserID: question.UserID}
	if question.DocumentID != "" {
		scope.DocumentIDs = []string{question.DocumentID}
	}

	retrieved, err := c.retriever.Retrieve(retrieveCtx, question.Text, scope)
	if err != nil {
		log.Warn("Retrieval unavailable, continuing with empty context", "error", err)
		return ragModel.RetrievedContext{}
	}
	return retrieved
}

// availableContext builds the classifier digest. Summaries may be stale
// relative to the chunk index; that staleness is accepted.
func (c *Controller) availableContext(ctx context.Context, question ragModel.Question) classifier.AvailableContext {
	available := classifier.AvailableContext{}

	summaries, err := c.documents.ListSummaries(ctx, question.UserID)
	if err != nil {
		c.logger.Warn("Could not list document summaries", "error", err)
		return available
	}
	available.Documents = summaries

	if question.DocumentID != "" {
		if doc, found := c.documents.GetDocument(ctx, question.DocumentID); found {
			available.PrimaryHasInline = doc.HasInlineContent()
		}
	}
	return available
}
