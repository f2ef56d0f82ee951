package retriever

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/rag/embedding"
	"github.com/akolanti/NotesRAG/internal/rag/vectorDB"
	"github.com/akolanti/NotesRAG/pkg/logger_i"
)

type Scope struct {
	UserID      string
	DocumentIDs []string
}

type Retriever struct {
	embedder   embedding.Embedder
	index      vectorDB.Gateway
	topK       int
	charBudget int
	logger     *logger_i.Logger
}

func New(embedder embedding.Embedder, index vectorDB.Gateway) *Retriever {
	return &Retriever{
		embedder:   embedder,
		index:      index,
		topK:       config.TopKPassages,
		charBudget: config.ContextCharBudget,
		logger:     logger_i.NewLogger("Retriever"),
	}
}

// Retrieve embeds the question and runs one filtered top-K search. Zero
// passages is a normal result; an error always wraps ErrRetrievalUnavailable
// and the caller degrades to empty context.
func (r *Retriever) Retrieve(ctx context.Context, question string, scope Scope) (ragModel.RetrievedContext, error) {
	log := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	queryVector, err := r.embedder.GetEmbedding(ctx, question)
	if err != nil {
		log.Error("Query embedding failed", "error", err)
		return ragModel.RetrievedContext{}, fmt.Errorf("%w: %v", ragModel.ErrRetrievalUnavailable, err)
	}

	filter := vectorDB.SearchFilter{OwnerId: scope.UserID, DocumentIds: scope.DocumentIDs}
	hits, err := r.index.Search(ctx, queryVector, filter, r.topK)
	if err != nil {
		log.Error("Vector search failed", "error", err)
		return ragModel.RetrievedContext{}, fmt.Errorf("%w: %v", ragModel.ErrRetrievalUnavailable, err)
	}

	passages := orderPassages(hits)
	passages = trimToBudget(passages, r.charBudget)

	log.Debug("Retrieved context", "passages", len(passages))
	return ragModel.RetrievedContext{Passages: passages}, nil
}

// orderPassages sorts relevance-descending; equal scores fall back to
// ascending sequence index so the result is deterministic.
func orderPassages(hits []vectorDB.RankedPassage) []ragModel.Passage {
	passages := make([]ragModel.Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, ragModel.Passage{
			ChunkID:       hit.ChunkId,
			Text:          hit.Text,
			Score:         hit.Score,
			SequenceIndex: hit.SequenceIndex,
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].SequenceIndex < passages[j].SequenceIndex
	})
	return passages
}

// trimToBudget drops whole passages from the tail until the budget holds.
// Only a first passage that alone exceeds the budget gets cut mid-text.
func trimToBudget(passages []ragModel.Passage, budget int) []ragModel.Passage {
	total := 0
	for i, p := range passages {
		if total+len(p.Text) <= budget {
			total += len(p.Text)
			continue
		}
		if i == 0 {
			p.Text = cutAtRune(p.Text, budget)
			return []ragModel.Passage{p}
		}
		return passages[:i]
	}
	return passages
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
