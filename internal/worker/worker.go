package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultPrefetch     = 1
)

// Worker выполняет шаги runs.
//
// Worker:
//   - Получает шаги из очереди RabbitMQ (event-driven)
//   - Периодически проверяет queued шаги в БД (polling fallback)
//   - Выполняет шаг в зависимости от типа (checkout, verify, shell)
//   - Отправляет результат в очередь steps.completed
//
// Retry нет: упавший шаг валит run (fail-fast).
// Workers масштабируются горизонтально.
type Worker struct {
	// Repositories
	stepRepo *repo.StepRepo
	runRepo  *repo.RunRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Executor registry
	registry *Registry

	// Workspace — рабочие каталоги runs
	workspace *Workspace

	// Consumer
	consumer *mq.Consumer

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

// Config — конфигурация Worker.
type Config struct {
	// Repositories
	StepRepo *repo.StepRepo
	RunRepo  *repo.RunRepo

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Executor registry (опционально; если nil — используется NewRegistry())
	Registry *Registry

	// Workspace (опционально; если nil — используется NewWorkspace())
	Workspace *Workspace

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество шагов за один poll (default: 50)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
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

	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	workspace := cfg.Workspace
	if workspace == nil {
		workspace = NewWorkspace()
	}

	return &Worker{
		stepRepo:     cfg.StepRepo,
		runRepo:      cfg.RunRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     registry,
		workspace:    workspace,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Worker.
//
// Запускает:
//   - Consumer для steps.ready
//   - Polling горутину для fallback
//
// Prefetch=1: шаги одного run выполняются по одному, а сами шаги
// (pip install, pytest) занимают воркер надолго.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueStepsReady),
			Handler:  w.handleStepReady,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("step consumer error", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем шаги, созданные пока были выключены)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	steps, err := w.stepRepo.ListQueued(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list queued steps", "error", err)
		return
	}

	if len(steps) == 0 {
		return
	}

	w.logger.Debug("poll found queued steps", "count", len(steps))

	for i := range steps {
		step := &steps[i]

		if err := w.processStep(ctx, step.ID); err != nil {
			if errors.Is(err, ErrStepNotQueued) {
				continue
			}
			w.logger.Error("failed to process step from poll",
				"step_id", step.ID,
				"error", err,
			)
		}
	}
}
