package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem DocumentStore")

type InMemoryDocumentStore struct {
	docMutex *sync.RWMutex
	docMap   map[string]docModel.Document
	// insertion order per owner, so listings stay stable
	ownerIndex map[string][]string
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docMutex:   new(sync.RWMutex),
		docMap:     make(map[string]docModel.Document),
		ownerIndex: make(map[string][]string),
	}
}

func (store *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()

	if _, exists := store.docMap[doc.Id]; !exists {
		store.ownerIndex[doc.OwnerId] = append(store.ownerIndex[doc.OwnerId], doc.Id)
	}
	store.docMap[doc.Id] = doc
	inMemLogger.Debug("Saved document to store", "documentId", doc.Id)
	return nil
}

func (store *InMemoryDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	store.docMutex.RLock()
	defer store.docMutex.RUnlock()
	result, found := store.docMap[id]
	return result, found
}

func (store *InMemoryDocumentStore) ListSummaries(ctx context.Context, ownerId string) ([]docModel.DocumentSummary, error) {
	store.docMutex.RLock()
	defer store.docMutex.RUnlock()

	ids := store.ownerIndex[ownerId]
	summaries := make([]docModel.DocumentSummary, 0, len(ids))
	for _, id := range ids {
		if doc, found := store.docMap[id]; found {
			summaries = append(summaries, doc.Summary())
		}
	}
	return summaries, nil
}

func (store *InMemoryDocumentStore) SetVectorStatus(ctx context.Context, id string, status docModel.VectorStatus) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()

	doc, found := store.docMap[id]
	if !found {
		return fmt.Errorf("document %s not found", id)
	}
	doc.VectorStatus = status
	store.docMap[id] = doc
	return nil
}

func (store *InMemoryDocumentStore) SetVectorized(ctx context.Context, id string, shortSummary string, generation string) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()

	doc, found := store.docMap[id]
	if !found {
		return fmt.Errorf("document %s not found", id)
	}
	doc.VectorStatus = docModel.VectorCompleted
	doc.ShortSummary = shortSummary
	doc.Generation = generation
	doc.LastVectorize = time.Now()
	store.docMap[id] = doc
	return nil
}
