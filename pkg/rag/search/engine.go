package search

import (
	"context"
	"fmt"
	"sync"

	"rag-presupuestos-be/internal/pkg/logger"
)

// RRF damping constant: combined = 1/(k + rank). k=60 is the standard
// value in the literature (Cormack et al., 2009) and is not query-dependent.
const RRFK = 60

const (
	// MaxLimit caps the result count a caller may request.
	MaxLimit = 50

	// DefaultLimit applies when a request does not specify a result count.
	DefaultLimit = 10

	// candidateMultiplier sizes the per-method candidate pool relative to
	// the requested limit so fusion has enough material.
	candidateMultiplier = 4
)

// Filters is a conjunctive predicate over document metadata, forwarded
// unmodified to the underlying stores. Zero values mean "no filter".
type Filters struct {
	DocumentType   string
	Category       string
	GeographicZone string
	PriceYear      int
}

// Hit is one candidate returned by a single retrieval method, carrying
// that method's raw score.
type Hit struct {
	ChunkID    string
	DocumentID string
	Filename   string
	Content    string
	SourcePage *int
	SourceRow  *int
	Score      float64
}

// VectorSearcher runs the semantic similarity query, descending similarity.
type VectorSearcher interface {
	SearchVector(ctx context.Context, query string, k int, filters Filters) ([]Hit, error)
}

// LexicalSearcher runs the full-text query, descending relevance.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, query string, k int, filters Filters) ([]Hit, error)
}

// Request describes one hybrid search.
type Request struct {
	Query    string
	Limit    int
	MinScore float64
	Filters  Filters
}

// Result is a fused candidate. Score is the RRF combined score normalized
// to [0,1] by the theoretical maximum 2/(RRFK+1), so a chunk at rank 1 in
// both lists scores exactly 1.0 and a single-method rank 1 scores 0.5.
type Result struct {
	Hit
	VectorRank   int // 1-based, 0 when absent from the vector list
	LexicalRank  int // 1-based, 0 when absent from the lexical list
	VectorScore  float64
	LexicalScore float64
	Score        float64
}

// Engine fuses semantic and lexical retrieval with Reciprocal Rank Fusion.
// Vector search is blind to exact technical codes; lexical search is blind
// to paraphrase. RRF needs only ranks, so the two score scales never have
// to be reconciled.
type Engine struct {
	vector  VectorSearcher
	lexical LexicalSearcher
	logger  logger.ILogger
}

func NewEngine(vector VectorSearcher, lexical LexicalSearcher, log logger.ILogger) *Engine {
	return &Engine{
		vector:  vector,
		lexical: lexical,
		logger:  log,
	}
}

// Hybrid runs both retrieval methods concurrently, fuses their rankings
// and returns up to req.Limit results with normalized score >= req.MinScore.
// If one method fails the engine degrades to single-method ranking; only
// the failure of both fails the request. An empty return means the query
// produced no grounded evidence.
func (e *Engine) Hybrid(ctx context.Context, req Request) ([]Result, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("hybrid search: empty query")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	k := limit * candidateMultiplier

	var (
		wg          sync.WaitGroup
		vectorHits  []Hit
		lexicalHits []Hit
		vectorErr   error
		lexicalErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = e.vector.SearchVector(ctx, req.Query, k, req.Filters)
	}()
	go func() {
		defer wg.Done()
		lexicalHits, lexicalErr = e.lexical.SearchLexical(ctx, req.Query, k, req.Filters)
	}()
	wg.Wait()

	if vectorErr != nil && lexicalErr != nil {
		return nil, fmt.Errorf("hybrid search: vector: %v; lexical: %w", vectorErr, lexicalErr)
	}
	if vectorErr != nil {
		e.logger.Warn("search", "vector search failed, degrading to lexical only", map[string]interface{}{
			"error": vectorErr.Error(),
		})
		vectorHits = nil
	}
	if lexicalErr != nil {
		e.logger.Warn("search", "lexical search failed, degrading to vector only", map[string]interface{}{
			"error": lexicalErr.Error(),
		})
		lexicalHits = nil
	}

	results := fuseRRF(vectorHits, lexicalHits)

	filtered := results[:0]
	for _, r := range results {
		if r.Score >= req.MinScore {
			filtered = append(filtered, r)
		}
	}
	results = filtered

	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug("search", "hybrid search complete", map[string]interface{}{
		"query":   req.Query,
		"vector":  len(vectorHits),
		"lexical": len(lexicalHits),
		"fused":   len(results),
	})

	return results, nil
}
