package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/backend"
	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/quiz"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment")
	port := pflag.String("port", "", "HTTP port, overrides PORT")
	migrate := pflag.Bool("migrate", false, "run database migrations on startup")
	pflag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.LoadConfig(files...)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	appLogger := utils.NewLogger(cfg.Environment)
	logger := utils.ToSlogLogger(appLogger)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. storage
	db := openDatabase(cfg, logger, *migrate)

	var questionCache cache.CacheService
	if rdb, err := pkg.NewRedisClient(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, question cache disabled", "error", err)
	} else {
		defer rdb.Close()
		questionCache = cache.NewRedisCache(rdb, logger)
	}

	// 2. question source and score sink
	client := backend.NewClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)

	var (
		source    repositories.QuestionSource = client
		submitter repositories.ScoreSubmitter = client
		quizzes   repositories.QuizRepository
		records   repositories.SessionRecordRepository
	)
	if db != nil {
		records = postgres.NewSessionRecordPostgreSQL(db)
		if cfg.QuestionSource == config.SourcePostgres {
			quizzes = postgres.NewQuizPostgreSQL(db)
			source = quizzes
		}
		if cfg.ScoreSink == config.SourcePostgres {
			submitter = postgres.NewProgressPostgreSQL(db)
		}
	}

	var invalidator services.QuestionCacheInvalidator
	if questionCache != nil {
		cached := cache.NewCachedQuestionSource(source, questionCache, cfg.QuestionCacheTTL, logger)
		source = cached
		invalidator = cached
	}

	// 3. events and metrics
	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	v := validator.New()

	// 4. services
	settings := quiz.DefaultSettings()
	settings.QuestionSeconds = cfg.QuestionSeconds
	settings.CompletionTicks = cfg.CompletionTicks

	sessionService := services.NewQuizSessionService(source, submitter, records, publisher, m, v, logger,
		services.SessionConfig{
			Settings:    settings,
			Retention:   cfg.SessionRetention,
			IdleTimeout: cfg.SessionIdleTimeout,
		})
	authoringService := services.NewAuthoringService(client, quizzes, invalidator, publisher, v, logger)
	reportService := services.NewReportService(records, v, logger)

	// 5. HTTP
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestLogger(appLogger))

	handlers.NewHandlerManager(sessionService, authoringService, reportService, m, appLogger, handlers.RouterConfig{
		SessionRateLimit: cfg.SessionRateLimit,
		SessionRateBurst: cfg.SessionRateBurst,
		Done:             ctx.Done(),
	}).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Quiz service listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"question_source", cfg.QuestionSource,
			"score_sink", cfg.ScoreSink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := sessionService.Shutdown(shutdownCtx); err != nil {
		logger.Error("Session shutdown incomplete", "error", err)
	}
}

// openDatabase returns nil when postgres is optional and unreachable
func openDatabase(cfg *config.Config, logger *slog.Logger, migrate bool) *gorm.DB {
	required := cfg.QuestionSource == config.SourcePostgres || cfg.ScoreSink == config.SourcePostgres

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		if required {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		logger.Warn("Database unavailable, session records disabled", "error", err)
		return nil
	}

	if migrate {
		if err := postgres.AutoMigrate(db); err != nil {
			logger.Error("Database migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Database migrated")
	}
	return db
}
