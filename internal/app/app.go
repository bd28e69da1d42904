package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"interviewd/internal/config"
	"interviewd/internal/database"
	"interviewd/internal/delivery/httpd"
	"interviewd/internal/repository"
	"interviewd/internal/service/classifier"
	"interviewd/internal/service/grading"
	"interviewd/internal/service/integration"
	"interviewd/internal/service/proctoring"
	"interviewd/internal/worker"
)

type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	db            *sql.DB
	rabbit        repository.RabbitMQRepository
	manager       *proctoring.Manager
	pool          *worker.WorkerPool
	gradingWorker *worker.GradingWorker
	server        *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info().Str("host", cfg.Database.Host).Msg("Connected to PostgreSQL")

	rabbit, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	if err := rabbit.SetupQueue(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, "interview.completed"); err != nil {
		rabbit.Close()
		db.Close()
		return nil, fmt.Errorf("failed to set up queue: %w", err)
	}

	assessments := repository.NewAssessmentRepository(db, logger)
	violations := repository.NewViolationRepository(db, logger)
	results := repository.NewResultRepository(db, logger)

	var archiver grading.AuditArchiver
	if minioRepo, err := repository.NewMinIORepository(
		cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket, cfg.MinIO.UseSSL, logger,
	); err != nil {
		logger.Error().Err(err).Msg("MinIO unavailable, audit archiving disabled")
	} else {
		archiver = minioRepo
	}

	gemini, err := integration.NewGeminiClient(ctx, cfg.Gemini, logger)
	if err != nil {
		rabbit.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	frameClassifier := classifier.New(gemini, cfg.Gemini.ClassifierModel, cfg.Gemini.ClassifierTemperature, logger)
	manager := proctoring.NewManager(proctoring.ManagerConfig{
		SampleInterval:  cfg.Proctoring.SampleInterval,
		MediumThreshold: cfg.Proctoring.MediumThreshold,
		HighThreshold:   cfg.Proctoring.HighThreshold,
		PollInterval:    cfg.Syncer.PollInterval,
		AgentURL:        cfg.Syncer.AgentURL,
	}, frameClassifier, violations, logger)
	transcripts := integration.NewTranscriptClient(
		cfg.Transcript.BaseURL, cfg.Transcript.APIKey,
		cfg.Transcript.MaxAttempts, cfg.Transcript.RetryDelay, logger,
	)
	grader := grading.NewGeminiGrader(gemini, cfg.Gemini.GraderModel, cfg.Gemini.GraderTemperature, logger)
	orchestrator := grading.NewOrchestrator(assessments, results, transcripts, grader, archiver, logger)

	pool := worker.NewWorkerPool(cfg.Worker.PoolSize, cfg.Worker.QueueSize, logger)
	gradingWorker := worker.NewGradingWorker(rabbit, orchestrator, pool, cfg.RabbitMQ.Queue, logger)

	handler := httpd.NewHandler(frameClassifier, manager, violations, assessments, results, rabbit, orchestrator, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:         cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		rabbit:        rabbit,
		manager:       manager,
		pool:          pool,
		gradingWorker: gradingWorker,
		server:        server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.pool.Start(ctx)

	if err := a.gradingWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start grading worker: %w", err)
	}

	a.logger.Info().Str("addr", a.server.Addr).Msg("HTTP server listening")

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.manager.StopAll()
	a.pool.Stop()

	if err := a.rabbit.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close RabbitMQ")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close database")
	}

	a.logger.Info().Msg("Shutdown complete")
}
