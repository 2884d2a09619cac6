package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/medicast/triage/pkg/common/config"
	"github.com/medicast/triage/pkg/common/database"
	"github.com/medicast/triage/pkg/common/kafka"
	"github.com/medicast/triage/pkg/common/logger"
	"github.com/medicast/triage/pkg/decision"
	"github.com/medicast/triage/pkg/gateway/middleware"
	"github.com/medicast/triage/pkg/ledger"
	"github.com/medicast/triage/pkg/observability/metrics"
	"github.com/medicast/triage/pkg/simulation"
	"github.com/medicast/triage/pkg/triage"
	"gorm.io/gorm"
)

func main() {
	logger.Init("triage-service")
	cfg := config.Load()

	params, err := simulation.Load(cfg.SimulationParamsFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid simulation parameters")
	}

	db, err := database.GetPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres()

	patients := triage.NewRepository(db)
	hospital := ledger.NewRepository(db)
	if err := patients.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate patients table")
	}
	if err := hospital.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate hospital_states table")
	}

	deps := triage.Dependencies{
		Patients:  patients,
		Hospital:  hospital,
		Evaluator: decision.NewClient(cfg.DecisionServiceURL, cfg.DecisionTimeout, cfg.DecisionRetryCount),
		Random:    triage.NewLockedSource(cfg.SimulationSeed),
		Params:    &params,
	}

	if cfg.PatientCacheTTL > 0 {
		deps.Cache = triage.NewRedisListCache(database.GetRedis(cfg), cfg.PatientCacheTTL)
		defer database.CloseRedis()
	}

	if cfg.EventsEnabled {
		producer := kafka.NewProducer(cfg, cfg.TriageEventsTopic)
		defer producer.Close()
		deps.Publisher = producer
		logger.Log.WithField("topic", cfg.TriageEventsTopic).Info("Publishing triage events")
	}

	service := triage.NewService(deps)

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", readyCheck(db)).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	triage.NewHTTPHandler(service, cfg.MaxRequestBody).Register(apiRouter)
	apiRouter.HandleFunc("/metrics", metrics.Handler).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SimulationInterval > 0 {
		go runSimulation(ctx, service, cfg.SimulationInterval)
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Triage Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Triage Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Triage Service stopped")
}

// runSimulation drives RunStep from a single goroutine so ticks never overlap.
func runSimulation(ctx context.Context, service *triage.Service, interval time.Duration) {
	logger.Log.WithField("interval", interval.String()).Info("Simulation ticker started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.RunStep(context.WithoutCancel(ctx)); err != nil {
				logger.Log.WithError(err).Error("Scheduled simulation step failed")
			}
		}
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func readyCheck(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := database.Ping(r.Context(), db); err != nil {
			logger.Log.WithError(err).Warn("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
