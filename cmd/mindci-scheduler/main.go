// mindci Scheduler — периодический запуск runs по расписанию.
//
// Scheduler:
//   - Находит due schedules и создаёт для них runs
//   - Помечает зависшие runs как failed (reaper)
//
// Лидерство через pg_try_advisory_lock: в кластере тикает
// только один инстанс, остальные ждут.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/scheduler"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

const schedLockKey int64 = 748301

const (
	tickInterval = 15 * time.Second
	reapInterval = time.Minute
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting mindci-scheduler")

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
	scheduleRepo := repo.NewScheduleRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	stepRepo := repo.NewStepRepo(pool)

	// RabbitMQ (опционально: orchestrator подбирает pending runs polling-ом)
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will be picked up by polling", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	sched := scheduler.New(scheduler.Config{
		ScheduleRepo: scheduleRepo,
		RunRepo:      runRepo,
		StepRepo:     stepRepo,
		Publisher:    publisher,
		Logger:       logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop
	go func() {
		tk := time.NewTicker(tickInterval)
		defer tk.Stop()

		var hasLock bool
		var lastReap time.Time
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case t := <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Warn("leader lock error", "error", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := sched.Tick(ctx); err != nil {
					logger.Error("tick failed", "error", err)
				}

				if t.Sub(lastReap) >= reapInterval {
					lastReap = t
					if err := sched.ReapStale(ctx); err != nil {
						logger.Error("reap failed", "error", err)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("mindci-scheduler stopped")
}
