package controller

import (
	"fmt"

	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/serverutils"
	"rag-presupuestos-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBudgetController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
}

type budgetController struct {
	budgetService service.IBudgetService
}

func NewBudgetController(budgetService service.IBudgetService) IBudgetController {
	return &budgetController{
		budgetService: budgetService,
	}
}

func (c *budgetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/budget/v1")
	h.Post("generate", c.Generate)
}

// Generate streams the rendered budget file as a download. With ?report=true
// it returns the per-line outcome report as JSON instead.
func (c *budgetController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateBudgetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	file, err := c.budgetService.Generate(ctx.Context(), &req)
	if err != nil {
		return err
	}

	if ctx.QueryBool("report") {
		return ctx.JSON(serverutils.SuccessResponse("Budget line report", file.Lines))
	}

	ctx.Set(fiber.HeaderContentType, file.ContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return ctx.Send(file.Content)
}
