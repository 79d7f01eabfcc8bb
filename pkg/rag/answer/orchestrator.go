package answer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/pkg/llm"
	"rag-presupuestos-be/pkg/rag/prompt"
	"rag-presupuestos-be/pkg/rag/search"
	"rag-presupuestos-be/pkg/store"
)

// Mode tags how an answer was produced.
type Mode string

const (
	ModeGrounded       Mode = "grounded"
	ModeMarketEstimate Mode = "market_estimate"
)

const (
	// GroundedTemperature keeps repeated identical price queries converging
	// to consistent answers.
	GroundedTemperature = 0.1

	// EstimateTemperature allows some reasoned variation in market estimates.
	EstimateTemperature = 0.15

	// DefaultMinScore is the relevance floor applied when the caller does
	// not supply one.
	DefaultMinScore = 0.5

	// MaxQueryLen bounds the accepted question length in characters.
	MaxQueryLen = 5000
)

// estimateDisclaimer is appended to every market-estimate answer. The Mode
// field is what callers must branch on; this text is for the reader.
const estimateDisclaimer = "\n\n---\n" +
	"> ⚠️ **ESTIMACIÓN DE MERCADO** — Este precio NO proviene de tu base de " +
	"conocimiento propia. Es una estimación basada en el conocimiento general " +
	"del mercado español. Verifica antes de usar en presupuesto definitivo."

// Request is one question to answer. SessionID may be empty; a session is
// created and its identifier returned in the response.
type Request struct {
	Query          string
	SessionID      string
	MaxResults     int
	MinScore       *float64
	Filters        search.Filters
	IncludeSources bool
}

// Source is a retrieved fragment reference returned with a grounded answer.
type Source struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	SourcePage *int    `json:"source_page,omitempty"`
	SourceRow  *int    `json:"source_row,omitempty"`
}

// Response carries the answer and its provenance. IsEstimate mirrors Mode so
// callers can render a warning without parsing the answer text.
type Response struct {
	Answer       string   `json:"answer"`
	Mode         Mode     `json:"mode"`
	IsEstimate   bool     `json:"is_estimate"`
	Sources      []Source `json:"sources"`
	SessionID    string   `json:"session_id"`
	ResultsCount int      `json:"results_count"`
	MaxScore     float64  `json:"max_score"`
	MinScoreUsed float64  `json:"min_score_used"`
}

// Retriever is the hybrid search surface the orchestrator consumes.
type Retriever interface {
	Hybrid(ctx context.Context, req search.Request) ([]search.Result, error)
}

// SessionStore is the conversational memory surface the orchestrator consumes.
type SessionStore interface {
	NewSessionID() string
	History(sessionID string) []store.Turn
	Append(sessionID string, turns ...store.Turn)
}

// Config tunes the orchestrator. Zero values fall back to defaults.
type Config struct {
	// MinScore is the relevance floor applied when a request carries none.
	MinScore float64
}

func (c Config) withDefaults() Config {
	if c.MinScore <= 0 {
		c.MinScore = DefaultMinScore
	}
	return c
}

// Orchestrator runs one query end to end: retrieve, pick the answer mode,
// generate, record the exchange.
type Orchestrator struct {
	retriever Retriever
	sessions  SessionStore
	generator llm.LLMProvider
	logger    logger.ILogger
	cfg       Config
	trace     *log.Logger
}

func NewOrchestrator(retriever Retriever, sessions SessionStore, generator llm.LLMProvider, log logger.ILogger) *Orchestrator {
	return NewOrchestratorWithConfig(retriever, sessions, generator, log, Config{})
}

func NewOrchestratorWithConfig(retriever Retriever, sessions SessionStore, generator llm.LLMProvider, log logger.ILogger, cfg Config) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		sessions:  sessions,
		generator: generator,
		logger:    log,
		cfg:       cfg.withDefaults(),
	}
}

// SetTraceLogger routes raw prompt/response pairs to an isolated log file,
// kept out of the main application log.
func (o *Orchestrator) SetTraceLogger(trace *log.Logger) {
	o.trace = trace
}

func (o *Orchestrator) tracef(format string, args ...interface{}) {
	if o.trace != nil {
		o.trace.Printf(format, args...)
	}
}

// Answer answers one question. Retrieval filtering to empty is not an error;
// it switches the request to market-estimate mode. A generation failure is
// returned to the caller after the user turn has been recorded, so the
// conversational context survives transient failures.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("answer: empty query")
	}
	if len([]rune(query)) > MaxQueryLen {
		return nil, fmt.Errorf("answer: query exceeds %d characters", MaxQueryLen)
	}

	minScore := o.cfg.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = o.sessions.NewSessionID()
	}
	history := o.sessions.History(sessionID)

	results, err := o.retriever.Hybrid(ctx, search.Request{
		Query:    query,
		Limit:    req.MaxResults,
		MinScore: minScore,
		Filters:  req.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("answer: retrieval: %w", err)
	}

	resp := &Response{
		SessionID:    sessionID,
		ResultsCount: len(results),
		MinScoreUsed: minScore,
	}

	var messages []llm.Message
	var temperature float64
	if len(results) > 0 {
		resp.Mode = ModeGrounded
		messages = prompt.NewGroundedBuilder(query, results, history).Build()
		temperature = GroundedTemperature
		resp.MaxScore = results[0].Score
	} else {
		o.logger.Info("answer", "no grounded evidence, switching to market estimate", map[string]interface{}{
			"query":     query,
			"min_score": minScore,
		})
		resp.Mode = ModeMarketEstimate
		resp.IsEstimate = true
		messages = prompt.NewEstimateBuilder(query, history).Build()
		temperature = EstimateTemperature
	}

	// Record the question before generating so a failed generation still
	// leaves the turn in the session.
	o.sessions.Append(sessionID, store.Turn{Role: store.RoleUser, Content: query})

	o.tracef("session=%s mode=%s prompt: %s", sessionID, resp.Mode, messages[len(messages)-1].Content)

	text, err := o.generator.Chat(ctx, messages, llm.WithTemperature(temperature))
	if err != nil {
		o.logger.Error("answer", "generation failed", map[string]interface{}{
			"session_id": sessionID,
			"mode":       string(resp.Mode),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("answer: generation: %w", err)
	}

	o.tracef("session=%s mode=%s response: %s", sessionID, resp.Mode, text)

	if resp.IsEstimate {
		text += estimateDisclaimer
	}
	resp.Answer = text

	o.sessions.Append(sessionID, store.Turn{Role: store.RoleAssistant, Content: text})

	if req.IncludeSources {
		resp.Sources = sourcesFromResults(results)
	}

	o.logger.Info("answer", "query answered", map[string]interface{}{
		"session_id": sessionID,
		"mode":       string(resp.Mode),
		"sources":    len(results),
	})

	return resp, nil
}

func sourcesFromResults(results []search.Result) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Filename:   r.Filename,
			Content:    r.Content,
			Score:      r.Score,
			SourcePage: r.SourcePage,
			SourceRow:  r.SourceRow,
		})
	}
	return sources
}
