package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/repsync/internal/domain"
)

// errorResponse maps domain errors onto HTTP statuses with the {"error": msg} body
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrWorkoutLogNotFound),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrNoActiveWorkout):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEntry),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrUnknownMutation),
		errors.Is(err, domain.ErrInvalidMutation),
		errors.Is(err, domain.ErrMissingIdempotencyKey),
		errors.Is(err, domain.ErrEmptyWorkoutLog),
		errors.Is(err, domain.ErrInvalidExercise):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrWorkoutInProgress),
		errors.Is(err, domain.ErrDuplicateIdempotencyKey),
		errors.Is(err, domain.ErrDuplicateExercise):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
