package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/gh"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/pipeline"
	"github.com/2020-qqtcg/mindci/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 100
	defaultPrefetch     = 10
)

// Orchestrator управляет выполнением runs.
//
// Orchestrator — центральный компонент системы, который:
//   - Получает новые runs из очереди RabbitMQ (event-driven)
//   - Периодически проверяет pending и running runs в БД (polling fallback)
//   - Разворачивает пайплайн модели в последовательность шагов
//   - Диспатчит шаги воркерам строго последовательно
//   - Финализирует runs (SUCCEEDED/FAILED) и уведомляет PR
type Orchestrator struct {
	// Repositories
	runRepo  *repo.RunRepo
	stepRepo *repo.StepRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// GitHub-клиент для комментариев в PR (опционально)
	github *gh.Client

	// Pipeline spec — шаблон пайплайна для всех runs
	spec *domain.PipelineSpec

	// Active runs — runs в обработке прямо сейчас (дедупликация
	// между consumer'ом и polling'ом)
	activeRuns map[uuid.UUID]struct{}
	mu         sync.Mutex

	// Consumers
	runConsumer  *mq.Consumer
	stepConsumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Repositories
	RunRepo  *repo.RunRepo
	StepRepo *repo.StepRepo

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// GitHub — клиент для уведомлений в PR (nil — уведомления выключены)
	GitHub *gh.Client

	// Spec — пайплайн (опционально; если nil — pipeline.LoadFromEnv)
	Spec *domain.PipelineSpec

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество runs за один poll (default: 100)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	spec := cfg.Spec
	if spec == nil {
		var err error
		spec, err = pipeline.LoadFromEnv()
		if err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		runRepo:      cfg.RunRepo,
		stepRepo:     cfg.StepRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		github:       cfg.GitHub,
		spec:         spec,
		activeRuns:   make(map[uuid.UUID]struct{}),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}, nil
}

// Start запускает Orchestrator.
//
// Запускает:
//   - Consumer для runs.pending
//   - Consumer для steps.completed
//   - Polling горутину для fallback
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"poll_interval", o.pollInterval,
		"batch_size", o.batchSize,
		"pipeline", o.spec.Name,
	)

	if o.conn != nil {
		o.runConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsPending),
			Handler:  o.handleRunPending,
			Prefetch: defaultPrefetch,
		})

		o.stepConsumer = mq.NewConsumer(o.conn, o.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueStepsCompleted),
			Handler:  o.handleStepCompleted,
			Prefetch: defaultPrefetch,
		})

		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.runConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("run consumer error", "error", err)
			}
		}()

		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.stepConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Error("step consumer error", "error", err)
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.pollLoop(ctx)
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}

	if o.runConsumer != nil {
		o.runConsumer.Stop()
	}
	if o.stepConsumer != nil {
		o.stepConsumer.Stop()
	}

	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// pollLoop — цикл polling для fallback.
func (o *Orchestrator) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs, созданные пока были выключены)
	o.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
//
// Два прохода: pending runs (потерянные run.pending) и running runs
// (потерянные step.completed или отменённые через API).
func (o *Orchestrator) poll(ctx context.Context) {
	pending, err := o.runRepo.ListPending(ctx, o.batchSize)
	if err != nil {
		o.logger.Error("failed to list pending runs", "error", err)
	} else {
		for i := range pending {
			run := &pending[i]
			if err := o.processRun(ctx, run.ID); err != nil {
				if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunAlreadyActive) {
					continue
				}
				o.logger.Error("failed to process pending run from poll",
					"run_id", run.ID,
					"error", err,
				)
			}
		}
	}

	running, err := o.runRepo.List(ctx, repo.RunFilter{
		Status: domain.RunStatusRunning,
		Limit:  o.batchSize,
	})
	if err != nil {
		o.logger.Error("failed to list running runs", "error", err)
		return
	}

	for i := range running {
		run := &running[i]
		if err := o.advanceRun(ctx, run.ID); err != nil {
			o.logger.Error("failed to advance running run from poll",
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}

// tryActivate помечает run как обрабатываемый.
// Возвращает false, если run уже в обработке.
func (o *Orchestrator) tryActivate(runID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.activeRuns[runID]; exists {
		return false
	}
	o.activeRuns[runID] = struct{}{}
	return true
}

// deactivate снимает пометку обработки.
func (o *Orchestrator) deactivate(runID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeRuns, runID)
}

// ActiveRunsCount возвращает количество runs в обработке.
func (o *Orchestrator) ActiveRunsCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.activeRuns)
}
