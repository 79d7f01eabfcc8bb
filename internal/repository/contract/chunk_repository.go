package contract

import (
	"context"

	"rag-presupuestos-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk is a retrieval candidate with the raw score of the method
// that produced it (cosine similarity or ts_rank, depending on the query).
type ScoredChunk struct {
	ChunkId    uuid.UUID
	DocumentId uuid.UUID
	Filename   string
	Content    string
	SourcePage *int
	SourceRow  *int
	Score      float64
}

// ChunkRepository is the knowledge-store query surface the search engine
// consumes. Both methods return candidates ordered by descending score.
type ChunkRepository interface {
	// SearchSimilarWithScore runs a pgvector cosine similarity query.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, specs ...specification.Specification) ([]*ScoredChunk, error)

	// SearchLexical runs a Spanish full-text query ranked by ts_rank.
	SearchLexical(ctx context.Context, query string, limit int, specs ...specification.Specification) ([]*ScoredChunk, error)
}
