package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"rag-presupuestos-be/internal/config"
	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/internal/repository/implementation"
	"rag-presupuestos-be/pkg/database"
	"rag-presupuestos-be/pkg/embedding"
	"rag-presupuestos-be/pkg/rag/search"
)

// Quick diagnostic: run one hybrid search against the live knowledge base
// and print the fused ranking with per-method ranks.
func main() {
	query := flag.String("q", "", "query text")
	limit := flag.Int("n", 10, "max results")
	minScore := flag.Float64("min", 0, "minimum normalized score")
	flag.Parse()

	if *query == "" {
		log.Fatal("Usage: search -q \"precio hormigon HA-25\" [-n 10] [-min 0.5]")
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	chunkRepo := implementation.NewChunkRepository(db)
	engine := search.NewEngine(
		implementation.NewVectorSearchAdapter(embedder, chunkRepo),
		implementation.NewLexicalSearchAdapter(chunkRepo),
		logger.NewNopLogger(),
	)

	results, err := engine.Hybrid(context.Background(), search.Request{
		Query:    *query,
		Limit:    *limit,
		MinScore: *minScore,
	})
	if err != nil {
		log.Fatalf("Hybrid search failed: %v", err)
	}

	fmt.Printf("Query: %q  (%d results)\n\n", *query, len(results))
	for i, r := range results {
		fmt.Printf("%2d. score=%.4f  vector(rank=%d score=%.4f)  lexical(rank=%d score=%.4f)\n",
			i+1, r.Score, r.VectorRank, r.VectorScore, r.LexicalRank, r.LexicalScore)
		fmt.Printf("    %s\n", r.Filename)
		content := r.Content
		if len(content) > 160 {
			content = content[:160] + "..."
		}
		fmt.Printf("    %s\n\n", content)
	}
}
