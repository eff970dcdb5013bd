package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

// Default configuration values.
const (
	defaultBatchSize  = 100
	defaultRunTimeout = 6 * time.Hour
)

// Scheduler — планировщик плановых прогонов и уборщик зависших runs.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	stepRepo     *repo.StepRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
	runTimeout   time.Duration
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	StepRepo     *repo.StepRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
	BatchSize    int           // количество schedules за один тик (default: 100)
	RunTimeout   time.Duration // лимит выполнения run (default: RUN_TIMEOUT или 6h)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = runTimeoutFromEnv()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		stepRepo:     cfg.StepRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
		runTimeout:   runTimeout,
	}
}

// runTimeoutFromEnv читает RUN_TIMEOUT (Go duration, например "6h").
func runTimeoutFromEnv() time.Duration {
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultRunTimeout
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule создаёт run
// 3. Обновляет next_due_at
// 4. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// 1. Формируем idempotency key: "{schedule_id}_{next_due_at_unix}"
	// Это гарантирует, что для одного schedule и конкретного времени
	// будет создан только один run
	idempKey := IdempotencyKey(sched)

	// 2. Проверяем, не создан ли уже run (idempotency)
	existingRun, err := s.runRepo.GetByIdempotencyKey(ctx, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}

	var runCreated bool
	var runID uuid.UUID

	if existingRun != nil {
		s.logger.Debug("run already exists (idempotency)",
			"schedule_id", sched.ID,
			"run_id", existingRun.ID,
			"idempotency_key", idempKey,
		)
		runID = existingRun.ID
	} else {
		// 3. Создаём новый run
		run := &domain.Run{
			ID:             uuid.New(),
			Model:          sched.Model,
			Repo:           sched.Repo,
			Ref:            sched.Ref,
			Trigger:        domain.TriggerSchedule,
			Status:         domain.RunStatusPending,
			IdempotencyKey: idempKey,
			CreatedAt:      now,
		}

		if err := s.runRepo.Create(ctx, run); err != nil {
			if errors.Is(err, repo.ErrAlreadyExists) {
				// Другой инстанс успел создать run на тот же тик
				return false, nil
			}
			return false, fmt.Errorf("create run: %w", err)
		}

		s.logger.Info("created run from schedule",
			"run_id", run.ID,
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"model", sched.Model,
		)

		runID = run.ID
		runCreated = true
	}

	// 4. Вычисляем следующее время срабатывания
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, leaving schedule as is",
			"schedule_id", sched.ID,
			"error", err,
		)
		// Schedule некорректный — лучше не трогать next_due_at
		return runCreated, nil
	}

	// 5. Обновляем schedule
	sched.RecordRun(runID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return runCreated, fmt.Errorf("update schedule: %w", err)
	}

	// 6. Публикуем событие в RabbitMQ (если publisher настроен и run создан)
	if s.publisher != nil && runCreated {
		if err := s.publisher.PublishRunPending(ctx, runID); err != nil {
			// Не фатальная ошибка — run уже создан в БД,
			// Orchestrator заберёт его через polling
			s.logger.Warn("failed to publish run.pending",
				"run_id", runID,
				"error", err,
			)
		}
	}

	return runCreated, nil
}

// IdempotencyKey формирует ключ идемпотентности для schedule.
func IdempotencyKey(sched *domain.Schedule) string {
	var due int64
	if sched.NextDueAt != nil {
		due = sched.NextDueAt.Unix()
	}
	return fmt.Sprintf("%s_%d", sched.ID, due)
}

// ReapStale валит runs, которые выполняются дольше runTimeout.
//
// Страховка от потерянных воркеров и зависших процессов: run в RUNNING
// без движения дольше лимита переводится в FAILED, оставшиеся шаги
// помечаются SKIPPED.
func (s *Scheduler) ReapStale(ctx context.Context) error {
	runs, err := s.runRepo.ListStaleRunning(ctx, s.runTimeout, s.batchSize)
	if err != nil {
		return fmt.Errorf("list stale runs: %w", err)
	}

	for i := range runs {
		run := &runs[i]

		run.MarkFailed(fmt.Sprintf("run timed out after %s", s.runTimeout))
		if err := s.runRepo.Update(ctx, run); err != nil {
			s.logger.Error("failed to fail stale run", "run_id", run.ID, "error", err)
			continue
		}

		skipped, err := s.stepRepo.SkipRemaining(ctx, run.ID)
		if err != nil {
			s.logger.Error("failed to skip steps of stale run", "run_id", run.ID, "error", err)
		}

		telemetry.RunsTotal.WithLabelValues(string(run.Status)).Inc()

		s.logger.Warn("reaped stale run",
			"run_id", run.ID,
			"model", run.Model,
			"skipped_steps", skipped,
			"timeout", s.runTimeout,
		)
	}

	return nil
}
