package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/service"
)

// QueueHandler exposes write queue inspection and the drain triggers on the agent
type QueueHandler struct {
	queue        *service.WriteQueue
	drainer      *service.Drainer
	connectivity domain.ConnectivityObserver
}

func NewQueueHandler(queue *service.WriteQueue, drainer *service.Drainer, connectivity domain.ConnectivityObserver) *QueueHandler {
	return &QueueHandler{
		queue:        queue,
		drainer:      drainer,
		connectivity: connectivity,
	}
}

// List GET /v1/queue
func (h *QueueHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.queue.GetQueue(c.UserContext()))
}

// Exhausted GET /v1/queue/exhausted
func (h *QueueHandler) Exhausted(c *fiber.Ctx) error {
	return c.JSON(h.queue.Exhausted(c.UserContext()))
}

// Drain POST /v1/queue/drain
func (h *QueueHandler) Drain(c *fiber.Ctx) error {
	h.drainer.Request()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "drain requested"})
}

// Retry POST /v1/queue/:id/retry
func (h *QueueHandler) Retry(c *fiber.Ctx) error {
	if err := h.queue.Retry(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	h.drainer.Request()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "retry scheduled"})
}

// Clear DELETE /v1/queue
func (h *QueueHandler) Clear(c *fiber.Ctx) error {
	if err := h.queue.ClearQueue(c.UserContext()); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "cleared"})
}

// Foreground POST /v1/lifecycle/foreground
func (h *QueueHandler) Foreground(c *fiber.Ctx) error {
	h.drainer.Request()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "drain requested"})
}

// Health GET /health
func (h *QueueHandler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	entries := h.queue.GetQueue(ctx)
	exhausted := 0
	for _, e := range entries {
		if e.IsExhausted(h.queue.Policy().MaxAttempts) {
			exhausted++
		}
	}
	draining, last := h.drainer.Status()

	return c.JSON(fiber.Map{
		"status":      "ok",
		"connected":   h.connectivity.IsConnected(ctx),
		"queue_depth": len(entries),
		"exhausted":   exhausted,
		"draining":    draining,
		"last_drain":  last,
	})
}
