package serverutils

import (
	"errors"

	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/pkg/reference"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders returned errors in the JSON envelope.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		var ve *ValidationError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.As(err, &ve):
			code = fiber.StatusBadRequest
			message = ve.Error()
		case errors.Is(err, reference.ErrNotFound):
			code = fiber.StatusNotFound
			message = err.Error()
		case errors.Is(err, reference.ErrDuplicateID):
			code = fiber.StatusConflict
			message = err.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(code).JSON(ErrorResponse(message))
	}
}
