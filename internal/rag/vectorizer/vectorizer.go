package vectorizer

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/internal/rag/embedding"
	"github.com/akolanti/NotesRAG/internal/rag/llm"
	"github.com/akolanti/NotesRAG/internal/rag/vectorDB"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"github.com/google/uuid"
)

const summaryInstruction = "You write one-sentence catalog descriptions of documents. Respond with the sentence only."

// summaryInputLimit caps how much source text goes into the summary call.
const summaryInputLimit = 4000

type Service struct {
	embedder  embedding.Embedder
	index     vectorDB.Gateway
	documents taskModel.DocumentStore
	provider  llm.Provider
	logger    *logger_i.Logger
}

func NewService(embedder embedding.Embedder, index vectorDB.Gateway, documents taskModel.DocumentStore, provider llm.Provider) *Service {
	return &Service{
		embedder:  embedder,
		index:     index,
		documents: documents,
		provider:  provider,
		logger:    logger_i.NewLogger("Vectorizer"),
	}
}

// Vectorize runs one full generation swap for a document: extract, split,
// embed, delete the previous chunk set, upsert the new one, then record the
// summary. Old chunks leave the index before new ones appear - the brief
// empty window degrades to empty-context retrieval, never to mixed
// generations.
func (s *Service) Vectorize(ctx context.Context, task taskModel.VectorizeTask) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vectorize", time.Since(start)) }()
	log := s.logger.With("traceId", task.TraceId, "documentId", task.DocumentId, "attempt", task.Attempt)

	doc, found := s.documents.GetDocument(ctx, task.DocumentId)
	if !found {
		return fmt.Errorf("%w: document %s not found", ragModel.ErrVectorizationFailed, task.DocumentId)
	}

	if err := s.documents.SetVectorStatus(ctx, doc.Id, docModel.VectorProcessing); err != nil {
		log.Error("Could not mark document processing", "error", err)
	}

	text, err := sourceText(doc)
	if err != nil {
		return s.fail(ctx, log, doc.Id, "text extraction", err)
	}

	generation := uuid.New().String()
	chunks := buildChunks(doc, text, generation)
	log.Debug("Prepared chunks", "count", len(chunks), "generation", generation)

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return s.fail(ctx, log, doc.Id, "embedding", err)
	}

	if err = s.index.DeleteDocumentChunks(ctx, doc.Id); err != nil {
		return s.fail(ctx, log, doc.Id, "stale chunk delete", err)
	}
	if err = s.index.UpsertBatch(ctx, chunks, vectors); err != nil {
		return s.fail(ctx, log, doc.Id, "chunk upsert", err)
	}

	//summary failure is not worth failing the whole run over - routing just
	//sees a completed document without a description
	summary, err := s.summarize(ctx, text)
	if err != nil {
		log.Warn("Summary generation failed", "error", err)
		summary = ""
	}

	if err = s.documents.SetVectorized(ctx, doc.Id, summary, generation); err != nil {
		return s.fail(ctx, log, doc.Id, "status update", err)
	}

	log.Info("Document vectorized", "chunks", len(chunks))
	return nil
}

func (s *Service) embedChunks(ctx context.Context, chunks []docModel.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for i := 0; i < len(chunks); i += config.EmbedBatchSize {
		end := min(i+config.EmbedBatchSize, len(chunks))

		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			texts = append(texts, c.Text)
		}

		batch, err := s.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("mismatch: got %d vectors for %d chunks", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (s *Service) summarize(ctx context.Context, text string) (string, error) {
	text = cutAtRune(text, summaryInputLimit)
	return s.provider.Complete(ctx, summaryInstruction,
		fmt.Sprintf("Describe this document in one short sentence:\n\n%s", text))
}

// cutAtRune shortens s to at most limit bytes without splitting a rune.
func cutAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (s *Service) fail(ctx context.Context, log *logger_i.Logger, documentId string, stage string, err error) error {
	log.Error("Vectorization failed", "stage", stage, "error", err)
	if statusErr := s.documents.SetVectorStatus(ctx, documentId, docModel.VectorFailed); statusErr != nil {
		log.Error("Could not mark document failed", "error", statusErr)
	}
	// keep the underlying error in the chain so the worker can tell
	// transient failures from permanent ones
	return fmt.Errorf("%w: %s: %w", ragModel.ErrVectorizationFailed, stage, err)
}

func buildChunks(doc docModel.Document, text string, generation string) []docModel.Chunk {
	pieces := SplitText(text, config.ChunkCharLimit, config.ChunkOverlap)

	chunks := make([]docModel.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, docModel.Chunk{
			Id:            uuid.New().String(),
			DocumentId:    doc.Id,
			OwnerId:       doc.OwnerId,
			SequenceIndex: i,
			Text:          piece,
			Generation:    generation,
			DocName:       doc.Name,
		})
	}
	return chunks
}
