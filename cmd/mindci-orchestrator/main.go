// mindci Orchestrator — управляет выполнением runs.
//
// Orchestrator:
//   - Получает новые runs из RabbitMQ
//   - Разворачивает пайплайн модели в последовательность шагов
//   - Диспатчит шаги воркерам строго по одному
//   - Финализирует runs и публикует итог комментарием в PR
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2020-qqtcg/mindci/internal/gh"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/orchestrator"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting mindci-orchestrator")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
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

	// RabbitMQ
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// GitHub-клиент для комментариев в PR (без токена — выключен)
	github := gh.NewClient(os.Getenv("GITHUB_TOKEN"))

	// Создаём orchestrator
	orch, err := orchestrator.New(orchestrator.Config{
		RunRepo:   runRepo,
		StepRepo:  stepRepo,
		Publisher: publisher,
		Conn:      mqConn,
		GitHub:    github,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create orchestrator", "error", err)
		os.Exit(1)
	}

	// Запускаем orchestrator
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("ORCH_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	orch.Stop()
	logger.Info("mindci-orchestrator stopped")
}
