package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/lmittmann/tint"

	"github.com/oraig/impactguard/internal/application"
	appassess "github.com/oraig/impactguard/internal/application/assessments"
	appinsights "github.com/oraig/impactguard/internal/application/insights"
	appreports "github.com/oraig/impactguard/internal/application/reports"
	"github.com/oraig/impactguard/internal/config"
	domain "github.com/oraig/impactguard/internal/domain/assessments"
	"github.com/oraig/impactguard/internal/domain/ai"
	aiopenai "github.com/oraig/impactguard/internal/infra/ai/openai"
	"github.com/oraig/impactguard/internal/infra/crossref"
	"github.com/oraig/impactguard/internal/infra/httpserver"
	"github.com/oraig/impactguard/internal/infra/storage"
	"github.com/oraig/impactguard/internal/middleware"
	"github.com/oraig/impactguard/internal/session"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "path", path, "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// optional report archive
	var archive *storage.Archive
	if cfg.Archive.Enabled {
		archive, err = storage.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			slog.Error("archive init error", "err", err)
			os.Exit(1)
		}
		checkers["archive"] = archive
		slog.Info("report archive enabled", "bucket", cfg.Archive.BucketName)
	}

	// optional AI client; the insight assistant degrades gracefully without it
	var aiClient ai.Client
	if cfg.AI.APIKey != "" {
		aiClient = aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
		slog.Info("ai insights enabled", "model", cfg.AI.Model)
	} else {
		slog.Warn("no OpenAI API key configured, insight generation disabled")
	}

	executor := appassess.NewExecutor(cfg.Assessments.Workers)
	executor.OnTaskStart = middleware.IncrementAssessments
	executor.OnTaskDone = func(state domain.TaskState) {
		middleware.DecrementAssessmentsRunning()
		switch state {
		case domain.StateFailed:
			middleware.IncrementAssessmentsFailed()
		case domain.StateCancelled:
			middleware.IncrementAssessmentsCancelled()
		}
	}

	reportsSvc := &appreports.Service{Clock: application.SystemClock{}}
	if archive != nil {
		reportsSvc.Archive = archive
	}
	insightsSvc := appinsights.NewService(aiClient)
	citationsClient := crossref.New()
	sessions := session.NewStore()

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.SessionHeader},
		ExposedHeaders: []string{middleware.SessionHeader},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Use(middleware.SessionMiddleware(sessions))
	mux.Mount("/", httpserver.NewRouter(executor, reportsSvc, insightsSvc, citationsClient, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	executor.Shutdown()
}
