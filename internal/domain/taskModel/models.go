package taskModel

import (
	"context"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
)

// VectorizeTask is one queued vectorization run. The write path that created
// it only marks the document pending; everything else happens on a worker.
type VectorizeTask struct {
	Id          string    `json:"id"`
	DocumentId  string    `json:"document_id"`
	OwnerId     string    `json:"owner_id"`
	TraceId     string    `json:"trace_id"`
	Attempt     int       `json:"attempt"`
	CreatedTime time.Time `json:"created_time"`
}

type DocumentStore interface {
	SaveDocument(ctx context.Context, doc docModel.Document) error
	GetDocument(ctx context.Context, id string) (docModel.Document, bool)
	ListSummaries(ctx context.Context, ownerId string) ([]docModel.DocumentSummary, error)
	SetVectorStatus(ctx context.Context, id string, status docModel.VectorStatus) error
	// SetVectorized records the completed state in one write: summary,
	// searchable generation and status.
	SetVectorized(ctx context.Context, id string, shortSummary string, generation string) error
}
