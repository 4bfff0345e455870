package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/service"
	"github.com/mansoorceksport/repsync/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// SessionHandler is the agent's local API for the workout session screen
type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start POST /v1/sessions/:user_id/start
func (h *SessionHandler) Start(c *fiber.Ctx) error {
	var req struct {
		TemplateID string `json:"template_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
		}
	}

	state, err := h.sessions.Start(c.UserContext(), c.Params("user_id"), req.TemplateID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(state)
}

// Resume POST /v1/sessions/:user_id/resume
func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	state, err := h.sessions.Resume(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(state)
}

// Get GET /v1/sessions/:user_id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	state, err := h.sessions.Get(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(state)
}

// Mutate POST /v1/sessions/:user_id/mutations
func (h *SessionHandler) Mutate(c *fiber.Ctx) error {
	var m domain.Mutation
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	state, err := h.sessions.Apply(c.UserContext(), c.Params("user_id"), m)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(state)
}

// Finish POST /v1/sessions/:user_id/finish
// 201 when the workout reached the backend, 202 when it was queued for later delivery
func (h *SessionHandler) Finish(c *fiber.Ctx) error {
	result, err := h.sessions.Finish(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	telemetry.Event(c, "workout.finished", attribute.String("outcome", string(result.Outcome)))
	if result.Outcome == service.OutcomeQueued {
		return c.Status(fiber.StatusAccepted).JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Cancel DELETE /v1/sessions/:user_id
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	if err := h.sessions.Cancel(c.UserContext(), c.Params("user_id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "cancelled"})
}
