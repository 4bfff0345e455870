package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/repsync/internal/config"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/handler"
	"github.com/mansoorceksport/repsync/internal/middleware"
	"github.com/mansoorceksport/repsync/internal/repository"
	"github.com/mansoorceksport/repsync/internal/service"
	"github.com/mansoorceksport/repsync/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// APIDependencies holds the dependencies required to start the ingest API
type APIDependencies struct {
	Config       *config.Config
	RedisClient  *redis.Client
	LogRepo      domain.WorkoutLogRepository
	ExerciseRepo domain.ExerciseRepository
	TemplateRepo domain.TemplateRepository
}

// NewMongoAPIDependencies wires the mongo-backed repositories
func NewMongoAPIDependencies(cfg *config.Config, db *mongo.Database, redisClient *redis.Client) APIDependencies {
	return APIDependencies{
		Config:       cfg,
		RedisClient:  redisClient,
		LogRepo:      repository.NewMongoWorkoutLogRepository(db),
		ExerciseRepo: repository.NewMongoExerciseRepository(db),
		TemplateRepo: repository.NewCachedTemplateRepository(repository.NewMongoTemplateRepository(db), redisClient),
	}
}

// NewMemoryAPIDependencies wires in-memory repositories for local development
func NewMemoryAPIDependencies(cfg *config.Config, redisClient *redis.Client) APIDependencies {
	catalog := repository.NewMemoryCatalog()
	return APIDependencies{
		Config:       cfg,
		RedisClient:  redisClient,
		LogRepo:      catalog.Logs(),
		ExerciseRepo: catalog.Exercises(),
		TemplateRepo: catalog.Templates(),
	}
}

// NewAPIApp creates the ingest API fiber application
func NewAPIApp(deps APIDependencies) *fiber.App {
	logService := service.NewWorkoutLogService(deps.LogRepo)
	workoutHandler := handler.NewWorkoutHandler(logService, deps.ExerciseRepo, deps.TemplateRepo)

	app := newApp("RepSync Ingest API", "repsync-api")

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "repsync-api",
		})
	})

	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyToken(deps.Config.JWT.Secret))

	logs := v1.Group("/workout-logs")
	logs.Post("/", middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Server.IdempotencyTTL), workoutHandler.CreateWorkoutLog)
	logs.Get("/", workoutHandler.ListWorkoutLogs)
	logs.Get("/:id", workoutHandler.GetWorkoutLog)

	v1.Get("/templates", workoutHandler.ListTemplates)
	v1.Get("/templates/:id", workoutHandler.GetTemplate)
	v1.Get("/exercises", workoutHandler.ListExercises)

	return app
}

// AgentDependencies holds the durability core the agent's local API drives
type AgentDependencies struct {
	Sessions     *service.SessionService
	Queue        *service.WriteQueue
	Drainer      *service.Drainer
	Connectivity domain.ConnectivityObserver
}

// NewAgentApp creates the sync agent's local fiber application
func NewAgentApp(deps AgentDependencies) *fiber.App {
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	queueHandler := handler.NewQueueHandler(deps.Queue, deps.Drainer, deps.Connectivity)

	app := newApp("RepSync Agent", "repsync-agent")

	app.Get("/health", queueHandler.Health)

	v1 := app.Group("/v1")

	sessions := v1.Group("/sessions/:user_id")
	sessions.Post("/start", sessionHandler.Start)
	sessions.Post("/resume", sessionHandler.Resume)
	sessions.Get("/", sessionHandler.Get)
	sessions.Post("/mutations", sessionHandler.Mutate)
	sessions.Post("/finish", sessionHandler.Finish)
	sessions.Delete("/", sessionHandler.Cancel)

	queue := v1.Group("/queue")
	queue.Get("/", queueHandler.List)
	queue.Get("/exhausted", queueHandler.Exhausted)
	queue.Post("/drain", queueHandler.Drain)
	queue.Post("/:id/retry", queueHandler.Retry)
	queue.Delete("/", queueHandler.Clear)

	v1.Post("/lifecycle/foreground", queueHandler.Foreground)

	return app
}

func newApp(name, tracerName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware(tracerName))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
