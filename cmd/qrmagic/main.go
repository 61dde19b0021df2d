package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/talha7k/qrcode-magic/internal/config"
	"github.com/talha7k/qrcode-magic/internal/constants"
	"github.com/talha7k/qrcode-magic/internal/handlers"
	"github.com/talha7k/qrcode-magic/internal/kv"
	"github.com/talha7k/qrcode-magic/internal/permissions"
	"github.com/talha7k/qrcode-magic/internal/services"
	"github.com/talha7k/qrcode-magic/pkg/telegrambot"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)

	// Open storage
	store, err := kv.Open(cfg.Storage.Driver, cfg.Storage.Path, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := kv.Close(store); err != nil {
			logger.Errorf("Failed to close storage: %v", err)
		}
	}()

	// Initialize services
	storage := services.NewStorageService(store, logger)
	qrService := services.NewQRService(logger)
	controller := services.NewSessionController(storage, qrService, services.NewScheduler(), cfg.Session.Debounce, logger)
	defer controller.Close()
	controller.Restore()

	// Setup context with cancellation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handlers.NewRouter(controller, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Serving QR Magic API on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server failed: %v", err)
			stop()
		}
	}()

	if cfg.BotEnabled() {
		stateService := services.NewUserStateService(logger)
		permController := permissions.NewController(cfg.Telegram.OwnerIDs, logger)

		bot, err := telegrambot.NewBot(cfg, controller, stateService, permController, logger)
		if err != nil {
			logger.Fatalf("Failed to create bot: %v", err)
		}
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Errorf("Bot failed: %v", err)
			}
		}()
	} else {
		logger.Info("Telegram token not set, bot disabled")
	}

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown failed: %v", err)
	}
}

// setupLogger sets up the logger
func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: constants.TimestampFormat,
	})

	return logger
}
