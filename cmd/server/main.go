package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morgankhalil/venueconnect/internal/ai"
	"github.com/morgankhalil/venueconnect/internal/cache"
	"github.com/morgankhalil/venueconnect/internal/config"
	apperrors "github.com/morgankhalil/venueconnect/internal/errors"
	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/optimizer"
	"github.com/morgankhalil/venueconnect/internal/server"
	"github.com/morgankhalil/venueconnect/internal/store"
)

func main() {
	// Local runs keep secrets in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	serviceLogger := logger.WithField("service", "tour-optimization-server")

	// Stop store: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.Database.URL != "" {
		pg, err := store.OpenPostgres(cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			serviceLogger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer pg.Close()
		st = pg
	} else {
		serviceLogger.Warn("DATABASE_URL not set; using in-memory stop store")
		st = store.NewMemoryStore()
	}

	var results *cache.ResultCache
	if cfg.CacheEnabled() {
		results = cache.New(cfg.Redis.Addr, cfg.Redis.TTL, logger)
		defer results.Close()
	}

	var adapter *ai.Adapter
	if cfg.AIEnabled() {
		// The chat client speaks zap; bridge it onto the service logger.
		gen := ai.NewHTTPGenerator(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout,
			logging.NewZapLogger(serviceLogger))
		adapter = ai.NewAdapter(gen, cfg.AI.Timeout, logger)
		serviceLogger.Info("AI suggestion path enabled", map[string]interface{}{"model": cfg.AI.Model})
	}

	orch := optimizer.NewOrchestrator(optimizer.NewDeterministic(), adapter, logger)
	applier := optimizer.NewApplier(st, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(apperrors.RecoveryMiddleware(logger))
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := server.NewServer(cfg, serviceLogger, st, orch, applier, results)
	srv.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		serviceLogger.Info("Starting server", map[string]interface{}{
			"address": httpServer.Addr,
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serviceLogger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serviceLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	serviceLogger.Info("Server stopped")
}
