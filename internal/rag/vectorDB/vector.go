package vectorDB

import (
	"context"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
)

type SearchFilter struct {
	OwnerId     string
	DocumentIds []string //empty means all of the owner's documents
}

type RankedPassage struct {
	ChunkId       string
	DocumentId    string
	Text          string
	Score         float32
	SequenceIndex int
}

// Gateway is the typed wrapper around the external vector store. It owns no
// business logic - callers decide what to upsert, delete and how to rank.
type Gateway interface {
	Search(ctx context.Context, queryVector []float32, filter SearchFilter, k int) ([]RankedPassage, error)
	UpsertBatch(ctx context.Context, chunks []docModel.Chunk, vectors [][]float32) error
	DeleteDocumentChunks(ctx context.Context, documentId string) error
	EnsureCollection(ctx context.Context) error
}
