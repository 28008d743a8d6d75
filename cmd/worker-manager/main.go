package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"umkm-assessment-workers/internal/common/camunda"
	"umkm-assessment-workers/internal/common/config"
	"umkm-assessment-workers/internal/common/database"
	"umkm-assessment-workers/internal/common/logger"
	"umkm-assessment-workers/internal/common/observability"
	"umkm-assessment-workers/internal/store"

	gr "umkm-assessment-workers/internal/workers/assessment/generate-recommendations"
	ix "umkm-assessment-workers/internal/workers/assessment/index-assessment-score"
	nr "umkm-assessment-workers/internal/workers/assessment/notify-assessment-result"
	sa "umkm-assessment-workers/internal/workers/assessment/score-assessment"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe client ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("postgres connected")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("redis connected")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("elasticsearch connected")

	// --- Stores ---
	templates := store.NewTemplateStore(pg.DB, redis.Client, 5*time.Minute, log)
	assessments := store.NewAssessmentStore(pg.DB)
	rules := store.NewRuleStore(pg.DB)

	// The recommendation catalog is small and changes rarely, so it is loaded
	// once at startup and served from memory.
	catalog, err := rules.LoadCatalog(ctx)
	if err != nil {
		zapLog.Fatal("recommendation catalog load failed", zap.Error(err))
	}
	zapLog.Info("recommendation catalog loaded", zap.Int("entries", catalog.Len()))

	// --- Workers ---
	var workers []*camunda.CamundaWorker

	if wcfg := cfg.Workers[sa.TaskType]; wcfg.Enabled {
		handler := sa.NewHandler(
			&sa.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			templates, assessments, rules, catalog, log,
		)
		workers = append(workers, startWorker(zeebeClient, sa.TaskType, wcfg, obs, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[gr.TaskType]; wcfg.Enabled {
		handler := gr.NewHandler(
			&gr.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			templates, assessments, rules, catalog, log,
		)
		workers = append(workers, startWorker(zeebeClient, gr.TaskType, wcfg, obs, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[ix.TaskType]; wcfg.Enabled {
		handler := ix.NewHandler(
			&ix.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
				Index:   cfg.Search.ScoreIndex,
			},
			assessments, esClient.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, ix.TaskType, wcfg, obs, handler.Handle, zapLog))
	}

	if wcfg := cfg.Workers[nr.TaskType]; wcfg.Enabled {
		handler, err := nr.NewHandler(
			&nr.Config{
				Timeout:     time.Duration(wcfg.Timeout) * time.Millisecond,
				AWSRegion:   cfg.Notifications.AWSRegion,
				SenderEmail: cfg.Notifications.SenderEmail,
				SMSEnabled:  cfg.Notifications.SMSEnabled,
			},
			assessments, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-assessment-result handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, nr.TaskType, wcfg, obs, handler.Handle, zapLog))
	}

	zapLog.Info("all workers registered")

	// --- Health & metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := "healthy"
			code := http.StatusOK
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())

		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		zapLog.Info("health/metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, obs *observability.Observability, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) *camunda.CamundaWorker {
	return camunda.NewWorker(
		client.GetClient(),
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		obs.InstrumentHandler(taskType, handlerFunc),
		log,
	)
}
