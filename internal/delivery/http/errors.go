package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jalansafe/routeintel/internal/domain"
)

// toFiberError maps the domain error taxonomy onto HTTP statuses.
// fallback is shown for errors that carry no client-safe message.
func toFiberError(err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, fallback)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
