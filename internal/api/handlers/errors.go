package handlers

import (
	"errors"

	"codeduel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps service errors onto HTTP status codes. Unknown errors
// are treated as internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMatchNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, service.ErrInsufficientBalance):
		return fiber.StatusPaymentRequired

	case errors.Is(err, service.ErrAlreadyQueued),
		errors.Is(err, service.ErrAlreadyInMatch),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrMatchNotActive):
		return fiber.StatusConflict

	case errors.Is(err, service.ErrNotParticipant):
		return fiber.StatusForbidden

	case errors.Is(err, service.ErrInvalidEntryFee):
		return fiber.StatusBadRequest

	default:
		return fiber.StatusInternalServerError
	}
}
