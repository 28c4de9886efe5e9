package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizdesk-api/internal/config"
	"github.com/noah-isme/quizdesk-api/internal/database"
	"github.com/noah-isme/quizdesk-api/internal/handler"
	"github.com/noah-isme/quizdesk-api/internal/middleware"
	"github.com/noah-isme/quizdesk-api/internal/models"
	"github.com/noah-isme/quizdesk-api/internal/repository"
	"github.com/noah-isme/quizdesk-api/internal/router"
	"github.com/noah-isme/quizdesk-api/internal/service"
	cloud "github.com/noah-isme/quizdesk-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.QuestionSet{},
		&models.Question{},
		&models.Assignment{},
		&models.AssignmentStudent{},
		&models.AssignmentQuestion{},
		&models.Submission{},
		&models.StudentAnswer{},
		&models.AttachmentFile{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	questionSetRepo := repository.NewQuestionSetRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	assignmentQuestionRepo := repository.NewAssignmentQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	sessionStore := service.NewSessionStore(redisClient)
	eventPublisher := service.NewEventPublisher(redisClient, natsConn, logger)

	authService := service.NewAuthService(userRepo, sessionStore, validate, cfg.JWTSecret, cfg.SessionTTL, logger)
	questionSetService := service.NewQuestionSetService(questionSetRepo, validate, logger)
	questionImportService := service.NewQuestionImportService(questionSetRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, questionSetRepo, userRepo, submissionRepo, validate, logger)
	assignmentQuestionService := service.NewAssignmentQuestionService(assignmentQuestionRepo, assignmentRepo, validate, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, assignmentQuestionRepo, validate, eventPublisher, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, assignmentQuestionRepo, attachmentRepo, validate, activityService, eventPublisher, redisClient, cfg.GradingCacheTTL, logger)
	uploadService := service.NewUploadService(uploader, attachmentRepo, cfg.UploadMaxSizeMB, logger)
	dashboardService := service.NewDashboardService(assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:               handler.NewAuthHandler(authService, logger),
		QuestionSetHandler:        handler.NewQuestionSetHandler(questionSetService, questionImportService, logger),
		AssignmentHandler:         handler.NewAssignmentHandler(assignmentService, logger),
		AssignmentQuestionHandler: handler.NewAssignmentQuestionHandler(assignmentQuestionService, logger),
		SubmissionHandler:         handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:            handler.NewGradingHandler(gradingService, logger),
		UploadHandler:             handler.NewUploadHandler(uploadService, logger),
		DashboardHandler:          handler.NewDashboardHandler(dashboardService, logger),
		ActivityHandler:           handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:             middleware.JWTProtected(cfg.JWTSecret, sessionStore),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
