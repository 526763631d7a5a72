package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"messaging_backend/database"
	"messaging_backend/internal/auth"
	"messaging_backend/internal/config"
	"messaging_backend/internal/events"
	"messaging_backend/internal/handlers"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/middleware"
	"messaging_backend/internal/models"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/routes"
	"messaging_backend/internal/services"
	"messaging_backend/internal/validator"
	"messaging_backend/internal/workers"
	"messaging_backend/pkg/apperrors"
	"messaging_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	shutdownTimeout     = 10 * time.Second
	orphanPurgeInterval = time.Hour
)

// Deps are the collaborators SetupRouter needs from the outside.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Tokens *auth.TokenManager
	Sink   logger.RequestLog
	// Now drives the request pipeline's time checks; nil means time.Now.
	Now middleware.Clock
}

func Run() {
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Debug)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	defer sqlDB.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	sink, err := logger.OpenRequestLog(cfg.Pipeline.RequestLogPath)
	if err != nil {
		logger.Fatal("Failed to open request log", "error", err, "path", cfg.Pipeline.RequestLogPath)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("Failed to close request log", "error", err)
		}
	}()

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	if err != nil {
		logger.Fatal("Failed to create token manager", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ginRouter := SetupRouter(ctx, Deps{Config: cfg, DB: gormDB, Tokens: tokens, Sink: sink})

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// SetupRouter builds the full application. Background workers stop with ctx.
func SetupRouter(ctx context.Context, deps Deps) *gin.Engine {
	cfg := deps.Config

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run(ctx)

	bus := events.NewBus()
	serviceContainer := initializeServices(bus, wsManager, deps.Tokens)

	appHandlers := initializeHandlers(serviceContainer)
	wsHandler := ws.NewWebSocketHandler(wsManager, cfg.CORS.AllowedOrigins)

	pipeline := middleware.NewPipeline(cfg.Pipeline, deps.Tokens, deps.Sink, deps.Now)
	workers.NewMaintenanceWorker(
		deps.DB,
		repositories.NewChatRepository(),
		repositories.NewNotificationRepository(),
		pipeline.RateLimit,
		time.Duration(cfg.Pipeline.RateWindowSeconds)*time.Second,
		orphanPurgeInterval,
	).Start(ctx)

	ginRouter := initializeGinRouter(cfg, deps.DB, pipeline)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, deps.DB)
	return ginRouter
}

func initializeServices(bus *events.Bus, publisher services.NotificationPublisher, tokens services.TokenIssuer) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository()
	chatRepo := repositories.NewChatRepository()
	notificationRepo := repositories.NewNotificationRepository()

	services.NewLifecycleReactions(chatRepo, notificationRepo).Register(bus)

	messageService := services.NewMessageService(chatRepo, userRepo, notificationRepo, bus, publisher)

	return &services.ServiceContainer{
		AuthService:         services.NewAuthService(userRepo, tokens),
		UserService:         services.NewUserService(userRepo, chatRepo, bus),
		MessageService:      messageService,
		ConversationService: services.NewConversationService(chatRepo, userRepo, notificationRepo, messageService),
		NotificationService: services.NewNotificationService(notificationRepo),
		AdminService:        services.NewAdminService(userRepo, chatRepo, notificationRepo),
	}
}

func initializeHandlers(services *services.ServiceContainer) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, services.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, services.UserService),
		ConversationHandler: handlers.NewConversationHandler(baseHandler, services.ConversationService),
		MessageHandler:      handlers.NewMessageHandler(baseHandler, services.MessageService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, services.NotificationService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, services.AdminService, services.UserService),
	}
}

// initializeGinRouter installs the ambient middleware, then the request
// pipeline in its fixed order.
func initializeGinRouter(cfg *config.Config, db *gorm.DB, pipeline *middleware.Pipeline) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	router.Use(pipeline.Handlers()...)
	return router
}

// seedFirstAdmin creates the configured admin account once.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	username := strings.TrimSpace(cfg.FirstAdminUsername)
	email := strings.ToLower(strings.TrimSpace(cfg.FirstAdminEmail))

	if email == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	userRepo := repositories.NewUserRepository()
	exists, err := userRepo.ExistsByUsernameOrEmail(tx, username, email)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if exists {
		logger.Info("Admin user already exists. Skipping creation.", "email", email)
		return nil
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		IsStaff:      true,
	}
	if err := userRepo.Create(tx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "username", username, "email", email)
	return tx.Commit().Error
}
