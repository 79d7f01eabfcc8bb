package implementation

import (
	"context"
	"fmt"

	"rag-presupuestos-be/internal/repository/contract"
	"rag-presupuestos-be/internal/repository/specification"
	"rag-presupuestos-be/pkg/embedding"
	"rag-presupuestos-be/pkg/rag/search"
)

// VectorSearchAdapter embeds the query text and delegates to the pgvector
// similarity query. It implements search.VectorSearcher.
type VectorSearchAdapter struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.ChunkRepository
}

func NewVectorSearchAdapter(embedder embedding.EmbeddingProvider, chunks contract.ChunkRepository) *VectorSearchAdapter {
	return &VectorSearchAdapter{embedder: embedder, chunks: chunks}
}

func (a *VectorSearchAdapter) SearchVector(ctx context.Context, query string, k int, filters search.Filters) ([]search.Hit, error) {
	resp, err := a.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := a.chunks.SearchSimilarWithScore(ctx, resp.Embedding.Values, k, filterSpecs(filters)...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return chunksToHits(rows), nil
}

// LexicalSearchAdapter delegates to the Spanish full-text query. It
// implements search.LexicalSearcher.
type LexicalSearchAdapter struct {
	chunks contract.ChunkRepository
}

func NewLexicalSearchAdapter(chunks contract.ChunkRepository) *LexicalSearchAdapter {
	return &LexicalSearchAdapter{chunks: chunks}
}

func (a *LexicalSearchAdapter) SearchLexical(ctx context.Context, query string, k int, filters search.Filters) ([]search.Hit, error) {
	rows, err := a.chunks.SearchLexical(ctx, query, k, filterSpecs(filters)...)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return chunksToHits(rows), nil
}

func filterSpecs(f search.Filters) []specification.Specification {
	var specs []specification.Specification
	if f.DocumentType != "" {
		specs = append(specs, specification.ByDocumentType{DocumentType: f.DocumentType})
	}
	if f.Category != "" {
		specs = append(specs, specification.ByCategory{Category: f.Category})
	}
	if f.GeographicZone != "" {
		specs = append(specs, specification.ByGeographicZone{GeographicZone: f.GeographicZone})
	}
	if f.PriceYear != 0 {
		specs = append(specs, specification.ByPriceYear{PriceYear: f.PriceYear})
	}
	return specs
}

func chunksToHits(rows []*contract.ScoredChunk) []search.Hit {
	hits := make([]search.Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, search.Hit{
			ChunkID:    row.ChunkId.String(),
			DocumentID: row.DocumentId.String(),
			Filename:   row.Filename,
			Content:    row.Content,
			SourcePage: row.SourcePage,
			SourceRow:  row.SourceRow,
			Score:      row.Score,
		})
	}
	return hits
}
