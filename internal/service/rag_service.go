package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/internal/repository/cache"
	"rag-presupuestos-be/internal/repository/memory"
	"rag-presupuestos-be/pkg/events"
	"rag-presupuestos-be/pkg/nats"
	"rag-presupuestos-be/pkg/rag/answer"
	"rag-presupuestos-be/pkg/rag/search"
)

type IRagService interface {
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
	ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse
	SessionStats(ctx context.Context) *dto.SessionStatsResponse
}

type ragService struct {
	orchestrator   *answer.Orchestrator
	engine         *search.Engine
	sessionRepo    *memory.SessionRepository
	previewCache   *cache.PreviewCache
	publisher      IPublisherService
	eventPublisher *nats.Publisher
	logger         logger.ILogger
}

func NewRagService(
	orchestrator *answer.Orchestrator,
	engine *search.Engine,
	sessionRepo *memory.SessionRepository,
	previewCache *cache.PreviewCache,
	publisher IPublisherService,
	eventPublisher *nats.Publisher,
	log logger.ILogger,
) IRagService {
	return &ragService{
		orchestrator:   orchestrator,
		engine:         engine,
		sessionRepo:    sessionRepo,
		previewCache:   previewCache,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *ragService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	res, err := s.orchestrator.Answer(ctx, answer.Request{
		Query:          req.Query,
		SessionID:      req.SessionId,
		MaxResults:     req.MaxResults,
		MinScore:       req.MinScore,
		Filters:        filtersFromDTO(req.Filters),
		IncludeSources: req.IncludeSources,
	})
	if err != nil {
		// Generation trouble is the upstream's fault, not the caller's.
		return nil, fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	s.publishQueryCompleted(ctx, res)

	return &dto.QueryResponse{
		Answer:     res.Answer,
		Mode:       string(res.Mode),
		IsEstimate: res.IsEstimate,
		Sources:    sourcesToDTO(res.Sources),
		SessionId:  res.SessionID,
		Metadata: dto.QueryMeta{
			ResultsCount: res.ResultsCount,
			MaxScore:     res.MaxScore,
			MinScoreUsed: res.MinScoreUsed,
		},
	}, nil
}

func (s *ragService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	key := s.previewCache.Key(req)
	if cached, ok := s.previewCache.Get(ctx, key); ok {
		return cached, nil
	}

	results, err := s.engine.Hybrid(ctx, search.Request{
		Query:    req.Query,
		Limit:    req.MaxResults,
		MinScore: req.MinScore,
		Filters:  filtersFromDTO(req.Filters),
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	resp := &dto.SearchResponse{
		Query:        req.Query,
		TotalResults: len(results),
		Results:      make([]dto.SourceDTO, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, dto.SourceDTO{
			ChunkId:    r.ChunkID,
			DocumentId: r.DocumentID,
			Filename:   r.Filename,
			Content:    r.Content,
			Score:      r.Score,
			SourcePage: r.SourcePage,
			SourceRow:  r.SourceRow,
		})
	}

	s.previewCache.Set(ctx, key, resp)
	return resp, nil
}

func (s *ragService) ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse {
	return &dto.ClearSessionResponse{
		SessionId: sessionID,
		Cleared:   s.sessionRepo.Clear(sessionID),
	}
}

func (s *ragService) SessionStats(ctx context.Context) *dto.SessionStatsResponse {
	stats := s.sessionRepo.Stats()
	return &dto.SessionStatsResponse{
		TotalSessions:  stats.TotalSessions,
		ActiveSessions: stats.ActiveSessions,
		MaxSessions:    stats.MaxSessions,
		TTLHours:       stats.TTLHours,
	}
}

// publishQueryCompleted fans the event out to the in-process bus and, when
// configured, to NATS. Both are auxiliary; failures are logged, never
// surfaced to the caller.
func (s *ragService) publishQueryCompleted(ctx context.Context, res *answer.Response) {
	evt := events.NewQueryCompleted(res.SessionID, string(res.Mode), res.ResultsCount)

	if s.publisher != nil {
		payload, err := json.Marshal(evt.Payload())
		if err == nil {
			if err := s.publisher.Publish(ctx, payload); err != nil {
				s.logger.Warn("rag", "failed to publish query completed to bus", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("rag", fmt.Sprintf("failed to publish %s to NATS", evt.EventType()), map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func filtersFromDTO(f *dto.FiltersDTO) search.Filters {
	if f == nil {
		return search.Filters{}
	}
	return search.Filters{
		DocumentType:   f.DocumentType,
		Category:       f.Category,
		GeographicZone: f.GeographicZone,
		PriceYear:      f.PriceYear,
	}
}

func sourcesToDTO(sources []answer.Source) []dto.SourceDTO {
	out := make([]dto.SourceDTO, 0, len(sources))
	for _, src := range sources {
		out = append(out, dto.SourceDTO{
			ChunkId:    src.ChunkID,
			DocumentId: src.DocumentID,
			Filename:   src.Filename,
			Content:    src.Content,
			Score:      src.Score,
			SourcePage: src.SourcePage,
			SourceRow:  src.SourceRow,
		})
	}
	return out
}
