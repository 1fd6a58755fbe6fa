package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lumenai/internal/config"
	"lumenai/internal/database"
	"lumenai/internal/logger"
	"lumenai/internal/scheduler"
	"lumenai/internal/server"
	"lumenai/internal/services"
	"lumenai/internal/util"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		_, _ = os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		ServiceName: cfg.App.Name,
	}); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("api")

	log.Info("Starting service",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("addr", cfg.App.Addr()),
	)

	// Initialize database
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		log.Info("Closing database connections")
		if err := database.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	db, err := database.GetDB()
	if err != nil {
		log.Fatal("Database unavailable", zap.Error(err))
	}

	// Create service instances
	notifier := services.NewNotifier(services.NewEmailService(&cfg.Email), cfg.Email.AdminEmail, cfg.Email.FromName)
	authSvc := services.NewAuthService(db, util.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTL()))
	resetSvc := services.NewPasswordResetService(db, notifier)
	catalog, err := services.NewCatalog()
	if err != nil {
		log.Fatal("Failed to load service catalog", zap.Error(err))
	}

	if cfg.Auth.BootstrapEmail != "" {
		created, err := authSvc.EnsureAdmin(context.Background(), services.AdminInput{
			Email:    cfg.Auth.BootstrapEmail,
			Password: cfg.Auth.BootstrapPassword,
		})
		if err != nil {
			log.Fatal("Failed to bootstrap admin", zap.Error(err))
		}
		if created {
			log.Info("Bootstrap admin created", zap.String("email", cfg.Auth.BootstrapEmail))
		}
	}

	jobs := scheduler.New(cfg.Scheduler.CleanupSchedule, resetSvc, db)
	if err := jobs.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	srv := server.New(cfg, &server.Services{
		Auth:        authSvc,
		Reset:       resetSvc,
		Inquiries:   services.NewInquiryService(db, notifier),
		Blogs:       services.NewBlogService(db),
		CaseStudies: services.NewCaseStudyService(db),
		Events:      services.NewEventService(db),
		Feedback:    services.NewFeedbackService(db, notifier),
		Chat:        services.NewChatAssistant(),
		Catalog:     catalog,
		Health:      services.NewHealthService(db, cfg.App.Name, cfg.App.Version),
	})

	httpServer := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server failed", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Starting graceful shutdown", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Error during graceful shutdown", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Shutdown timeout exceeded, forcing close")
			_ = httpServer.Close()
		}
	}

	jobs.Stop()
	notifier.Wait()
	log.Info("Server shutdown complete")
}
