package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/data/redisStore"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func documentKey(id string) string {
	return "doc:" + id
}

func ownerIndexKey(ownerId string) string {
	return "owner:" + ownerId + ":docs"
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)
	log.Debug("saving document")

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	exists, err := s.store.Exists(ctx, documentKey(doc.Id))
	if err != nil {
		return err
	}

	if err = s.store.Set(ctx, documentKey(doc.Id), data, config.RedisDocumentTTL); err != nil {
		return err
	}

	// Index only on first save so re-saves don't duplicate the entry
	if !exists {
		if err = s.store.ListPush(ctx, ownerIndexKey(doc.OwnerId), doc.Id); err != nil {
			return err
		}
	}
	log.Debug("Saved document to Redis")
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool) {
	var doc docModel.Document
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", id)

	val, err := s.store.Get(ctx, documentKey(id))
	if s.store.IsNil(err) {
		return doc, false
	} else if err != nil {
		log.Error("Error reading document from Redis", "error", err)
		return doc, false
	}

	if err = json.Unmarshal([]byte(val), &doc); err != nil {
		log.Error("Error unmarshalling document", "error", err)
		return doc, false
	}

	log.Debug("Document found in Redis")
	return doc, true
}

func (s *RedisDocumentStore) ListSummaries(ctx context.Context, ownerId string) ([]docModel.DocumentSummary, error) {
	ids, err := s.store.ListGetAll(ctx, ownerIndexKey(ownerId))
	if err != nil {
		return nil, fmt.Errorf("could not read owner index: %w", err)
	}

	summaries := make([]docModel.DocumentSummary, 0, len(ids))
	for _, id := range ids {
		doc, found := s.GetDocument(ctx, id)
		if !found {
			// Index entries can outlive expired documents
			continue
		}
		summaries = append(summaries, doc.Summary())
	}
	return summaries, nil
}

func (s *RedisDocumentStore) SetVectorStatus(ctx context.Context, id string, status docModel.VectorStatus) error {
	doc, found := s.GetDocument(ctx, id)
	if !found {
		return fmt.Errorf("document %s not found", id)
	}
	doc.VectorStatus = status
	return s.SaveDocument(ctx, doc)
}

func (s *RedisDocumentStore) SetVectorized(ctx context.Context, id string, shortSummary string, generation string) error {
	doc, found := s.GetDocument(ctx, id)
	if !found {
		return fmt.Errorf("document %s not found", id)
	}
	doc.VectorStatus = docModel.VectorCompleted
	doc.ShortSummary = shortSummary
	doc.Generation = generation
	doc.LastVectorize = time.Now()
	return s.SaveDocument(ctx, doc)
}

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
