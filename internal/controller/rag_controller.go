package controller

import (
	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/serverutils"
	"rag-presupuestos-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRagController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
	SessionStats(ctx *fiber.Ctx) error
}

type ragController struct {
	ragService service.IRagService
}

func NewRagController(ragService service.IRagService) IRagController {
	return &ragController{
		ragService: ragService,
	}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/rag/v1")
	h.Post("query", c.Query)
	h.Post("search", c.Search)
	h.Delete("session/:id", c.ClearSession)
	h.Get("session/stats", c.SessionStats)
}

func (c *ragController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.Query(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Query answered", res))
}

func (c *ragController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Knowledge search results", res))
}

func (c *ragController) ClearSession(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing session id")
	}

	res := c.ragService.ClearSession(ctx.Context(), id)
	return ctx.JSON(serverutils.SuccessResponse("Session cleared", res))
}

func (c *ragController) SessionStats(ctx *fiber.Ctx) error {
	res := c.ragService.SessionStats(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Session stats", res))
}
