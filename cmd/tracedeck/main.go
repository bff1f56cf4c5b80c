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

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/tracedeck/tracedeck/internal/adapters/duckdb"
	"github.com/tracedeck/tracedeck/internal/config"
	"github.com/tracedeck/tracedeck/internal/core/services"
	"github.com/tracedeck/tracedeck/pkg/console"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting tracedeck")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	settings := config.Load(logger)

	var repo services.TraceRepository
	if settings.DBPath != "" {
		dbRepo, err := duckdb.NewRepository(settings.DBPath)
		if err != nil {
			return fmt.Errorf("failed to init repository: %w", err)
		}
		defer dbRepo.Close()
		repo = dbRepo
		logger.Info("trace persistence enabled", "path", settings.DBPath)
	} else {
		logger.Info("trace persistence disabled, memory only")
	}

	eventBus := services.NewEventBus(logger)
	collector := services.NewTraceCollector(logger, repo, eventBus, settings.MaxTraces)
	sessions := services.NewSessionManager(logger, collector, eventBus, settings.SessionTTL)

	apiServer, err := console.NewServer(logger, collector, sessions, eventBus)
	if err != nil {
		return fmt.Errorf("failed to init api server: %w", err)
	}

	corsOrigins := settings.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    settings.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sessions.Run(gCtx); err != nil && err != context.Canceled {
			return fmt.Errorf("session janitor failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting api server", "addr", settings.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
