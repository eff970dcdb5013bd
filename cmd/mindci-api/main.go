// mindci API — принимает GitHub webhooks и даёт REST-доступ к runs
// и schedules.
//
// Комментарий "/model <name>" в pull request создаёт run прогона
// тестов модели; API публикует его в очередь для Orchestrator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2020-qqtcg/mindci/internal/api"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting mindci-api")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	runRepo := repo.NewRunRepo(pool)
	stepRepo := repo.NewStepRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, orchestrator will rely on polling", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		RunRepo:       runRepo,
		StepRepo:      stepRepo,
		ScheduleRepo:  scheduleRepo,
		Publisher:     publisher,
		Logger:        logger,
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		DefaultRepo:   os.Getenv("DEFAULT_REPO"),
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// HTTP сервер с graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
