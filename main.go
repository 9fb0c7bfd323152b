package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/doit-inc/doit-engine/pkg/auth"
	"github.com/doit-inc/doit-engine/pkg/config"
	"github.com/doit-inc/doit-engine/pkg/database"
	"github.com/doit-inc/doit-engine/pkg/handlers"
	"github.com/doit-inc/doit-engine/pkg/logging"
	"github.com/doit-inc/doit-engine/pkg/middleware"
	"github.com/doit-inc/doit-engine/pkg/repositories"
	"github.com/doit-inc/doit-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Host),
		zap.Bool("smtp_enabled", cfg.SMTP.Enabled()))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		// Connection errors can echo the DSN back, so scrub before logging.
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Migrations run over a database/sql handle borrowed from the pool.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.String("error", logging.SanitizeError(err)))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, list caching disabled")
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	workspaceRepo := repositories.NewWorkspaceRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	sectionRepo := repositories.NewSectionRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)

	// Services
	mailer := services.NewMailer(cfg.SMTP)
	hierarchy := services.NewHierarchyResolver(workspaceRepo, projectRepo, taskRepo, sectionRepo, commentRepo, attachmentRepo)
	authz := services.NewAuthzService(membershipRepo, workspaceRepo, hierarchy, logger)
	listCache := services.NewRedisListCache(redisClient)
	cacheTTL := time.Duration(cfg.Cache.ListTTLSeconds) * time.Second
	visibility := services.NewVisibilityService(projectRepo, taskRepo, membershipRepo, workspaceRepo, authz, listCache, cacheTTL, logger)
	workspaceService := services.NewWorkspaceService(workspaceRepo, membershipRepo, authz, logger)
	projectService := services.NewProjectService(projectRepo, membershipRepo, authz, logger)
	sectionService := services.NewSectionService(sectionRepo, hierarchy, authz, logger)
	taskService := services.NewTaskService(taskRepo, sectionRepo, userRepo, hierarchy, authz, mailer, logger)
	commentService := services.NewCommentService(commentRepo, attachmentRepo, hierarchy, authz, logger)
	attachmentService := services.NewAttachmentService(attachmentRepo, hierarchy, authz, logger)
	invitationService := services.NewInvitationService(invitationRepo, membershipRepo, workspaceRepo, userRepo,
		mailer, cfg.FrontendHost, cfg.Invitations.ExpiryDays, logger)

	// Auth
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authService := auth.NewAuthService(cfg.Auth.JWTSecret, tokenTTL, logger)
	authMiddleware := auth.NewMiddleware(authService, userRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewWorkspaceHandler(workspaceService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProjectHandler(projectService, visibility, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSectionHandler(sectionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTaskHandler(taskService, visibility, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCommentHandler(commentService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAttachmentHandler(attachmentService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewInvitationHandler(invitationService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting doit-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
