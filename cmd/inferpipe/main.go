package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/inferpipe/inferpipe/internal/api"
	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/config"
	"github.com/inferpipe/inferpipe/internal/db"
	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/provider"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/services"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("inferpipe v0.1.0")
	fmt.Println("Usage: inferpipe serve")
}

func serve() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	providers := provider.NewRegistry()
	for name, pc := range cfg.Providers {
		switch pc.Type {
		case "openai", "":
			providers.Register(provider.NewOpenAIProvider(name, pc.URL, pc.APIKey))
		default:
			slog.Warn("unknown provider type", "name", name, "type", pc.Type)
		}
	}

	// Storage: in-memory always, write-through PostgreSQL when configured.
	memWorkflows := repository.NewMemoryWorkflowRepository()
	memRuns := repository.NewMemoryRunRepository()
	memSteps := repository.NewMemoryStepRepository()
	memSchedules := repository.NewMemoryScheduleRepository()

	var (
		workflowRepo repository.WorkflowRepository = memWorkflows
		runRepo      repository.RunRepository      = memRuns
		stepRepo     repository.StepRepository     = memSteps
		scheduleRepo repository.ScheduleRepository = memSchedules
		keyRepo      repository.APIKeyRepository   = repository.NewMemoryAPIKeyRepository()
	)
	if cfg.Database.URL != "" {
		database, err := db.New(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(context.Background()); err != nil {
			slog.Error("database migration failed", "err", err)
			os.Exit(1)
		}
		workflowRepo = repository.NewPersistentWorkflowRepository(memWorkflows, database)
		runRepo = repository.NewPersistentRunRepository(memRuns, database)
		stepRepo = repository.NewPersistentStepRepository(memSteps, database)
		scheduleRepo = repository.NewPersistentScheduleRepository(memSchedules, database)
		keyRepo = repository.NewPersistentAPIKeyRepository(database)
		slog.Info("postgres storage enabled")
	} else {
		slog.Warn("no database configured, using in-memory storage")
	}

	runner := engine.NewRunner(providers, cfg.Engine.StepTimeout)
	limiter := services.NewConcurrencyLimiter(services.ConcurrencyLimits{
		GlobalMax:   cfg.Scheduler.GlobalMax,
		PerWorkflow: cfg.Scheduler.PerWorkflow,
	})

	workflowSvc := services.NewWorkflowService(workflowRepo)
	runSvc := services.NewRunService(workflowRepo, runRepo, stepRepo, runner, limiter)
	schedulerSvc := services.NewSchedulerService(scheduleRepo, runSvc)

	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, keyRepo)

	srv := api.NewServer(workflowSvc, runSvc, authn, runner)
	srv.SetSchedulerService(schedulerSvc)
	srv.SetAPIKeyRepository(keyRepo)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := schedulerSvc.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		schedulerSvc.Stop()
		return nil
	})
	g.Go(func() error {
		slog.Info("starting inferpipe server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
