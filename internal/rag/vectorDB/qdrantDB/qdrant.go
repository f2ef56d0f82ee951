package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/rag/vectorDB"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)
var collectionName = config.ChunkCollectionName

type ClientHolder struct {
	qObj   *qdrant.Client
	logger *logger_i.Logger
}

// NewClient builds the gateway instance that gets injected at startup.
// The caller owns shutdown via the passed context.
func NewClient(ctx context.Context) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, err
	}

	holder := &ClientHolder{qObj: client, logger: logger}

	if err = holder.EnsureCollection(ctx); err != nil {
		logger.Error("could not create collection: ", "collectionName", collectionName, "error:", err)
		return nil, err
	}

	go holder.closeOnDone(ctx)
	return holder, nil
}

func (db *ClientHolder) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	db.logger.Info("Shutting down Qdrant")
	if err := db.qObj.Close(); err != nil {
		db.logger.Error("could not close Qdrant: ", "error:", err)
		return
	}
	db.logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Search(ctx context.Context, queryVector []float32, filter vectorDB.SearchFilter, k int) ([]vectorDB.RankedPassage, error) {
	loggr := db.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := db.qObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	passages := make([]vectorDB.RankedPassage, 0, len(result))
	for _, hit := range result {
		passages = append(passages, vectorDB.RankedPassage{
			ChunkId:       hit.Payload["chunk_id"].GetStringValue(),
			DocumentId:    hit.Payload["document_id"].GetStringValue(),
			Text:          hit.Payload["content"].GetStringValue(),
			Score:         hit.Score,
			SequenceIndex: int(hit.Payload["sequence_index"].GetIntegerValue()),
		})
	}

	loggr.Debug("Qdrant search done", "hits", len(passages))
	return passages, nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":       chunk.Id,
				"content":        chunk.Text,
				"document_id":    chunk.DocumentId,
				"owner_id":       chunk.OwnerId,
				"doc_name":       chunk.DocName,
				"sequence_index": chunk.SequenceIndex,
				"generation":     chunk.Generation,
			}),
		}
	}

	//Wait=true: the new generation must be searchable before the caller
	//flips the document to completed
	_, err := db.qObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// DeleteDocumentChunks drops every chunk of the document, whatever generation.
// The vectorizer calls this before upserting a new generation so old and new
// chunks are never searchable at the same time.
func (db *ClientHolder) DeleteDocumentChunks(ctx context.Context, documentId string) error {
	_, err := db.qObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("document_id", documentId),
					},
				},
			},
		},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	return createCollection(ctx, db.qObj, collectionName)
}

func buildFilter(filter vectorDB.SearchFilter) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewMatch("owner_id", filter.OwnerId),
	}
	if len(filter.DocumentIds) > 0 {
		must = append(must, qdrant.NewMatchKeywords("document_id", filter.DocumentIds...))
	}
	return &qdrant.Filter{Must: must}
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension, //TODO:this shouldnt be hardcoded
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
