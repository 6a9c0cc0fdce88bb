package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/app"
	"github.com/Freeeeeet/lesson_scheduler/internal/auth"
	"github.com/Freeeeeet/lesson_scheduler/internal/config"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/api"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Scheduler stopped with error", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting lesson scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("addr", cfg.HTTPAddr),
	)

	var stores *app.Stores
	if cfg.StorageDriver == config.StorageMemory {
		stores = app.NewMemoryStores()
	} else {
		var err error
		stores, err = app.NewPostgresStores(ctx, cfg.DBDSN, cfg.MigrationsDir, logger)
		if err != nil {
			return err
		}
	}
	defer stores.Close()

	availability := service.NewAvailabilityService(stores.Rules, stores.Sessions, stores.Users, stores.Courses, logger)

	if cfg.SeedFile != "" {
		seed, err := app.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		seeder := &app.Seeder{
			Users:        stores.Users,
			Courses:      stores.Courses,
			Enrollments:  stores.Enrollments,
			Availability: availability,
			Logger:       logger,
		}
		if err := seeder.Apply(ctx, seed); err != nil {
			return err
		}
	}

	// Канал доставки: Telegram, если задан токен, иначе лог
	var (
		sink   service.Notifier = notify.NewLogNotifier(logger)
		botAPI *bot.Bot
	)
	if cfg.TelegramToken != "" {
		var err error
		botAPI, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		sink = notify.NewTelegramNotifier(botAPI, stores.Users, stores.Courses, logger)
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, notifications go to the log")
	}

	dispatcher := notify.NewDispatcher(sink, cfg.Notify.Workers, cfg.Notify.QueueSize, logger)

	sessions := service.NewSessionService(stores.Sessions, stores.Rules, stores.Users, stores.Courses, stores.Enrollments, dispatcher, logger)
	stats := service.NewStatsService(stores.Sessions, stores.Users, logger)

	// напоминания отправляются синхронно, чтобы флаг ставился только после доставки
	reminders := app.NewReminderScheduler(sessions, sink, cfg.Reminders.Window, cfg.Reminders.Interval, logger)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, 24*time.Hour)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(sessions, availability, stats, logger), tokens),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return reminders.Run(gctx) })

	if botAPI != nil {
		botController := controller.NewBotController(botAPI, stores.Users, sessions, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		g.Go(func() error { return botController.Start(gctx) })
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
