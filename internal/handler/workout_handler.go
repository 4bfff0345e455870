package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/middleware"
	"github.com/mansoorceksport/repsync/internal/service"
	"github.com/mansoorceksport/repsync/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// WorkoutHandler serves the ingest API: workout logs plus the read-only catalog
type WorkoutHandler struct {
	logService   *service.WorkoutLogService
	exerciseRepo domain.ExerciseRepository
	templateRepo domain.TemplateRepository
}

func NewWorkoutHandler(
	logService *service.WorkoutLogService,
	exerciseRepo domain.ExerciseRepository,
	templateRepo domain.TemplateRepository,
) *WorkoutHandler {
	return &WorkoutHandler{
		logService:   logService,
		exerciseRepo: exerciseRepo,
		templateRepo: templateRepo,
	}
}

// --- Workout Logs ---

// CreateWorkoutLog POST /v1/workout-logs
// 201 when stored, 200 when the Idempotency-Key was already used by this user
func (h *WorkoutHandler) CreateWorkoutLog(c *fiber.Ctx) error {
	key := c.Get(middleware.IdempotencyKeyHeader)
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Idempotency-Key header is required"})
	}

	var req domain.WorkoutLogPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	log, created, err := h.logService.Create(c.UserContext(), middleware.UserID(c), key, req)
	if err != nil {
		return errorResponse(c, err)
	}
	telemetry.Annotate(c, attribute.Bool("workout_log.replay", !created))
	if !created {
		c.Set("X-Idempotent-Replay", "true")
		return c.Status(fiber.StatusOK).JSON(log)
	}
	return c.Status(fiber.StatusCreated).JSON(log)
}

// ListWorkoutLogs GET /v1/workout-logs?limit=20
func (h *WorkoutHandler) ListWorkoutLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	logs, err := h.logService.List(c.UserContext(), middleware.UserID(c), int64(limit))
	if err != nil {
		return errorResponse(c, err)
	}
	if logs == nil {
		logs = []*domain.WorkoutLog{}
	}
	return c.JSON(logs)
}

// GetWorkoutLog GET /v1/workout-logs/:id
func (h *WorkoutHandler) GetWorkoutLog(c *fiber.Ctx) error {
	log, err := h.logService.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(log)
}

// --- Catalog ---

// ListExercises GET /v1/exercises?muscle_group=Chest
func (h *WorkoutHandler) ListExercises(c *fiber.Ctx) error {
	exs, err := h.exerciseRepo.List(c.UserContext(), c.Query("muscle_group"))
	if err != nil {
		return errorResponse(c, err)
	}
	if exs == nil {
		exs = []*domain.Exercise{}
	}
	return c.JSON(exs)
}

// ListTemplates GET /v1/templates
func (h *WorkoutHandler) ListTemplates(c *fiber.Ctx) error {
	tmps, err := h.templateRepo.List(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}
	if tmps == nil {
		tmps = []*domain.WorkoutTemplate{}
	}
	return c.JSON(tmps)
}

// GetTemplate GET /v1/templates/:id
func (h *WorkoutHandler) GetTemplate(c *fiber.Ctx) error {
	tmpl, err := h.templateRepo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(tmpl)
}
