package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandlerMiddleware converts errors returned by handlers into the
// standard JSON envelope. *fiber.Error keeps its status code; everything
// else becomes a 500 without leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(errorBody{Success: false, Message: fe.Message})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Success: false,
			Message: "internal server error",
		})
	}
}
