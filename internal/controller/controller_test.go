package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/serverutils"
	"rag-presupuestos-be/internal/service"
)

type fakeRagService struct {
	queryRes  *dto.QueryResponse
	queryErr  error
	searchRes *dto.SearchResponse
	cleared   string
}

func (f *fakeRagService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	return f.queryRes, f.queryErr
}

func (f *fakeRagService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	return f.searchRes, nil
}

func (f *fakeRagService) ClearSession(ctx context.Context, sessionID string) *dto.ClearSessionResponse {
	f.cleared = sessionID
	return &dto.ClearSessionResponse{SessionId: sessionID, Cleared: true}
}

func (f *fakeRagService) SessionStats(ctx context.Context) *dto.SessionStatsResponse {
	return &dto.SessionStatsResponse{TotalSessions: 3, MaxSessions: 500, TTLHours: 2}
}

type fakeBudgetService struct {
	file *service.BudgetFile
	err  error
}

func (f *fakeBudgetService) Generate(ctx context.Context, req *dto.GenerateBudgetRequest) (*service.BudgetFile, error) {
	return f.file, f.err
}

func newTestApp(rag service.IRagService, budget service.IBudgetService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewRagController(rag).RegisterRoutes(api)
	NewBudgetController(budget).RegisterRoutes(api)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestQueryEndpoint(t *testing.T) {
	rag := &fakeRagService{
		queryRes: &dto.QueryResponse{
			Answer:    "El precio es 85,50 EUR/m3.",
			Mode:      "grounded",
			SessionId: "sess-1",
			Metadata:  dto.QueryMeta{ResultsCount: 4, MaxScore: 0.91, MinScoreUsed: 0.5},
		},
	}
	app := newTestApp(rag, &fakeBudgetService{})

	resp := postJSON(t, app, "/api/rag/v1/query", dto.QueryRequest{Query: "precio hormigon HA-25"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool              `json:"success"`
		Data    dto.QueryResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "grounded", envelope.Data.Mode)
	assert.False(t, envelope.Data.IsEstimate)
	assert.Equal(t, "sess-1", envelope.Data.SessionId)
	assert.Equal(t, 4, envelope.Data.Metadata.ResultsCount)
}

func TestQueryEndpointValidation(t *testing.T) {
	app := newTestApp(&fakeRagService{}, &fakeBudgetService{})

	// Missing query
	resp := postJSON(t, app, "/api/rag/v1/query", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// min_score out of range
	resp = postJSON(t, app, "/api/rag/v1/query", map[string]any{"query": "cemento", "min_score": 1.5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// max_results over cap
	resp = postJSON(t, app, "/api/rag/v1/query", map[string]any{"query": "cemento", "max_results": 51})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryEndpointUpstreamFailure(t *testing.T) {
	rag := &fakeRagService{queryErr: fiber.NewError(fiber.StatusBadGateway, "generation failed")}
	app := newTestApp(rag, &fakeBudgetService{})

	resp := postJSON(t, app, "/api/rag/v1/query", dto.QueryRequest{Query: "precio tabique"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	rag := &fakeRagService{
		searchRes: &dto.SearchResponse{
			Query:        "mortero",
			TotalResults: 1,
			Results:      []dto.SourceDTO{{ChunkId: "c1", Filename: "precios_2024.xlsx", Score: 0.8}},
		},
	}
	app := newTestApp(rag, &fakeBudgetService{})

	resp := postJSON(t, app, "/api/rag/v1/search", dto.SearchRequest{Query: "mortero"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data dto.SearchResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, 1, envelope.Data.TotalResults)
	assert.Equal(t, "precios_2024.xlsx", envelope.Data.Results[0].Filename)
}

func TestClearSessionEndpoint(t *testing.T) {
	rag := &fakeRagService{}
	app := newTestApp(rag, &fakeBudgetService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/rag/v1/session/sess-9", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sess-9", rag.cleared)
}

func TestGenerateEndpointDownload(t *testing.T) {
	budget := &fakeBudgetService{
		file: &service.BudgetFile{
			Filename:    "presupuesto.bc3",
			ContentType: "application/octet-stream",
			Content:     []byte("~V|FIEBDC-3/2020|"),
		},
	}
	app := newTestApp(&fakeRagService{}, budget)

	resp := postJSON(t, app, "/api/budget/v1/generate", dto.GenerateBudgetRequest{Items: []string{"hormigon HA-25"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "presupuesto.bc3")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "~V|FIEBDC-3/2020|", string(body))
}

func TestGenerateEndpointReport(t *testing.T) {
	budget := &fakeBudgetService{
		file: &service.BudgetFile{
			Filename:    "presupuesto.bc3",
			ContentType: "application/octet-stream",
			Content:     []byte("~V|"),
			Lines: []dto.BudgetLineDTO{
				{Query: "hormigon HA-25", Code: "HOR001", Price: 85.5},
				{Query: "partida rara", Estimated: true, Price: 120},
			},
		},
	}
	app := newTestApp(&fakeRagService{}, budget)

	resp := postJSON(t, app, "/api/budget/v1/generate?report=true", dto.GenerateBudgetRequest{Items: []string{"hormigon HA-25", "partida rara"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []dto.BudgetLineDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 2)
	assert.True(t, envelope.Data[1].Estimated)
}

func TestGenerateEndpointValidation(t *testing.T) {
	app := newTestApp(&fakeRagService{}, &fakeBudgetService{})

	// Empty item list
	resp := postJSON(t, app, "/api/budget/v1/generate", map[string]any{"items": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown format
	resp = postJSON(t, app, "/api/budget/v1/generate", map[string]any{"items": []string{"cemento"}, "format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
