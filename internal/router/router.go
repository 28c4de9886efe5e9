package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/quizdesk-api/internal/config"
	"github.com/noah-isme/quizdesk-api/internal/handler"
	"github.com/noah-isme/quizdesk-api/internal/middleware"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler               *handler.AuthHandler
	QuestionSetHandler        *handler.QuestionSetHandler
	AssignmentHandler         *handler.AssignmentHandler
	AssignmentQuestionHandler *handler.AssignmentQuestionHandler
	SubmissionHandler         *handler.SubmissionHandler
	GradingHandler            *handler.GradingHandler
	UploadHandler             *handler.UploadHandler
	DashboardHandler          *handler.DashboardHandler
	ActivityHandler           *handler.ActivityHandler
	JWTMiddleware             fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	protected := api.Group("", jwtMiddleware)

	if deps.QuestionSetHandler != nil {
		sets := protected.Group("/question-sets", middleware.RequireRole(models.RoleTeacher))
		deps.QuestionSetHandler.Register(sets)
	}

	if deps.AssignmentHandler != nil {
		assignments := protected.Group("/assignments")
		deps.AssignmentHandler.Register(assignments)
		deps.AssignmentHandler.RegisterStudentDirectory(protected)

		if deps.AssignmentQuestionHandler != nil {
			deps.AssignmentQuestionHandler.Register(assignments)
		}
		if deps.SubmissionHandler != nil {
			submit := assignments.Group("", middleware.RateLimit("submit", 10, time.Minute))
			deps.SubmissionHandler.RegisterSubmit(submit)
		}
		if deps.GradingHandler != nil {
			deps.GradingHandler.RegisterAssignmentRoutes(assignments)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := protected.Group("/submissions")
		deps.SubmissionHandler.Register(submissions)

		if deps.GradingHandler != nil {
			deps.GradingHandler.RegisterSubmissionRoutes(submissions)
		}
	}

	if deps.UploadHandler != nil {
		uploads := protected.Group("", middleware.RateLimit("upload", 20, time.Minute))
		deps.UploadHandler.Register(uploads)
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(protected)
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected)
	}
}
