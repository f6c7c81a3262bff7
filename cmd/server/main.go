package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/api"
	"github.com/regworks/companies-register/internal/authz"
	"github.com/regworks/companies-register/internal/bulk"
	"github.com/regworks/companies-register/internal/config"
	"github.com/regworks/companies-register/internal/db"
	"github.com/regworks/companies-register/internal/metrics"
	"github.com/regworks/companies-register/internal/repository"
	"github.com/regworks/companies-register/internal/validation"
	"github.com/regworks/companies-register/internal/workflow"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".", logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	conn, err := db.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(conn.Pool, "./migrations", logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	companyRepo := repository.NewCompanyRepository(conn.Pool)
	workflowRepo := repository.NewWorkflowRepository(conn.Pool)
	auditRepo := repository.NewAuditLogRepository(conn.Pool)

	// Workflow engine collaborators
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	validator := validation.NewRegistry(logger)
	capabilities := authz.NewDirectory(cfg.Auth.Roles)

	engine := workflow.NewEngine(validator, capabilities, companyRepo, auditRepo, logger,
		workflow.WithMetrics(m),
		workflow.WithExecutionTimeout(cfg.Bulk.ExecutionTimeout),
		workflow.WithStateReader(workflowRepo),
	)
	aggregator := bulk.NewAggregator(engine, cfg.Bulk.Workers, logger)

	apiServer := api.NewServer(engine, aggregator, companyRepo, workflowRepo, auditRepo, m, registry, cfg, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting companies register API", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
