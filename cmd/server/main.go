package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/app"
	"github.com/Freeeeeet/slot_swap/internal/auth"
	"github.com/Freeeeeet/slot_swap/internal/config"
	"github.com/Freeeeeet/slot_swap/internal/controller"
	"github.com/Freeeeeet/slot_swap/internal/controller/api"
	"github.com/Freeeeeet/slot_swap/internal/notify"
	"github.com/Freeeeeet/slot_swap/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting slot swap server",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
	)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	shutdownTracer, err := app.InitTracer(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	storage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storage.Close()

	notifiers := notify.Multi{}

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}

		botController := controller.NewBotController(b, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands not registered", zap.Error(err))
		}
		go botController.Start(ctx)

		notifiers = append(notifiers, notify.NewTelegram(b, storage.Users, logger))
	}

	if cfg.AMQPURL != "" {
		pub, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		defer pub.Close()

		notifiers = append(notifiers, notify.NewEvents(pub, logger))
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	userService := service.NewUserService(storage.Users, issuer, logger)
	eventService := service.NewEventService(storage.Tx, storage.Slots, logger)
	swapService := service.NewSwapService(storage.Tx, storage.Slots, storage.Requests, notifiers, logger)

	scheduler := app.NewScheduler(swapService, cfg.AuditInterval, cfg.AuditRepair, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Deps{
		Users:         userService,
		Events:        eventService,
		Swaps:         swapService,
		Tokens:        issuer,
		AllowedOrigin: cfg.FrontendURL,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
