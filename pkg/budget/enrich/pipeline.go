package enrich

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/pkg/budget/bc3"
	"rag-presupuestos-be/pkg/llm"
	"rag-presupuestos-be/pkg/rag/prompt"
	"rag-presupuestos-be/pkg/rag/search"
)

const (
	DefaultWorkers = 4

	// DefaultRateLimit bounds estimate calls per second against the
	// generation backend.
	DefaultRateLimit = rate.Limit(2)
	DefaultBurst     = 1

	// searchResultsPerItem is how many candidates are retrieved per
	// line-item description; only the best parseable one is used.
	searchResultsPerItem = 3

	estimateTemperature = 0.15
)

// Line is the outcome for one requested line item. Estimated marks prices
// that came from generation instead of the knowledge base. Err reports a
// per-item failure; the rest of the batch is unaffected.
type Line struct {
	Query     string
	Item      bc3.Item
	Estimated bool
	Err       error
}

// Config tunes the pipeline. Zero values fall back to defaults.
type Config struct {
	Workers   int
	RateLimit rate.Limit
	Burst     int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	return c
}

// Retriever is the hybrid search surface the pipeline consumes.
type Retriever interface {
	Hybrid(ctx context.Context, req search.Request) ([]search.Result, error)
}

// Pipeline turns line-item descriptions into priced budget lines, filling
// prices the knowledge base cannot supply with rate-limited market
// estimates generated concurrently.
type Pipeline struct {
	retriever Retriever
	generator llm.LLMProvider
	limiter   *rate.Limiter
	cfg       Config
	logger    logger.ILogger
}

func NewPipeline(retriever Retriever, generator llm.LLMProvider, cfg Config, log logger.ILogger) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		retriever: retriever,
		generator: generator,
		limiter:   rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		cfg:       cfg,
		logger:    log,
	}
}

// Enrich resolves every query to a Line, preserving input order. Items whose
// best match carries no price are estimated through the generation client;
// estimate calls run on a bounded worker pool behind the rate limiter.
func (p *Pipeline) Enrich(ctx context.Context, queries []string) []Line {
	lines := make([]Line, len(queries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				lines[idx] = p.enrichOne(ctx, queries[idx])
			}
		}()
	}
	for idx := range queries {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return lines
}

func (p *Pipeline) enrichOne(ctx context.Context, query string) Line {
	line := Line{Query: query}

	results, err := p.retriever.Hybrid(ctx, search.Request{
		Query: query,
		Limit: searchResultsPerItem,
	})
	if err != nil {
		line.Err = fmt.Errorf("search %q: %w", query, err)
		return line
	}

	for _, r := range results {
		item, ok := bc3.ParseChunk(r.Content, r.Score)
		if ok && item.Price > 0 {
			line.Item = item
			return line
		}
	}

	item, err := p.estimate(ctx, query)
	if err != nil {
		line.Err = fmt.Errorf("estimate %q: %w", query, err)
		return line
	}
	line.Item = item
	line.Estimated = true
	return line
}

func (p *Pipeline) estimate(ctx context.Context, query string) (bc3.Item, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return bc3.Item{}, err
	}

	messages := prompt.NewEstimateBuilder(query, nil).Build()
	text, err := p.generator.Chat(ctx, messages, llm.WithTemperature(estimateTemperature))
	if err != nil {
		return bc3.Item{}, err
	}

	item, ok := bc3.ParseChunk(query, 0)
	if !ok {
		return bc3.Item{}, fmt.Errorf("unusable line item description")
	}
	if price, found := bc3.ExtractPrice(text); found {
		item.Price = price
	} else {
		p.logger.Warn("enrich", "estimate carried no parseable price", map[string]interface{}{
			"query": query,
		})
	}
	item.Description = text
	return item, nil
}
