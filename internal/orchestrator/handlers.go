package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/pipeline"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

// handleRunPending обрабатывает событие о новом pending run.
func (o *Orchestrator) handleRunPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("invalid run.pending payload", "error", err)
		return delivery.Nack(false)
	}

	o.logger.Debug("received run.pending event", "run_id", payload.RunID)

	if err := o.processRun(ctx, payload.RunID); err != nil {
		switch {
		case errors.Is(err, ErrRunNotPending), errors.Is(err, ErrRunAlreadyActive):
			o.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		case errors.Is(err, ErrRunNotFound):
			// MQ обогнал коммит транзакции — polling подхватит позже
			o.logger.Warn("run not found yet", "run_id", payload.RunID)
			return nil
		default:
			return err
		}
	}

	return nil
}

// handleStepCompleted обрабатывает событие о завершённом шаге.
func (o *Orchestrator) handleStepCompleted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.StepCompletedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("invalid step.completed payload", "error", err)
		return delivery.Nack(false)
	}

	o.logger.Debug("received step.completed event",
		"step_id", payload.StepID,
		"run_id", payload.RunID,
		"seq", payload.Seq,
		"status", payload.Status,
	)

	if err := o.advanceRun(ctx, payload.RunID); err != nil {
		if errors.Is(err, ErrRunAlreadyActive) {
			return nil
		}
		o.logger.Error("failed to advance run",
			"run_id", payload.RunID,
			"error", err,
		)
		return err
	}

	return nil
}

// processRun разворачивает пайплайн нового run и диспатчит первый шаг.
func (o *Orchestrator) processRun(ctx context.Context, runID uuid.UUID) error {
	if !o.tryActivate(runID) {
		return ErrRunAlreadyActive
	}
	defer o.deactivate(runID)

	run, err := o.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	// Шаги могли быть созданы в предыдущей неудачной попытке
	steps, err := o.stepRepo.ListByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("list steps: %w", err)
	}

	if len(steps) == 0 {
		steps = pipeline.Expand(o.spec, run)
		if err := o.stepRepo.CreateBatch(ctx, steps); err != nil {
			return fmt.Errorf("create steps: %w", err)
		}
	}

	run.MarkRunning()
	if err := o.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to running: %w", err)
	}

	o.logger.Info("run started",
		"run_id", runID,
		"model", run.Model,
		"trigger", run.Trigger,
		"steps", len(steps),
	)

	return o.dispatchStep(ctx, run, &steps[0])
}

// advanceRun продвигает run по его шагам.
//
// Смотрит на фактическое состояние шагов в БД, поэтому idempotent и
// работает и от события step.completed, и от polling'а:
//   - шаг FAILED → fail-fast: оставшиеся SKIPPED, run FAILED
//   - все шаги SUCCEEDED → run SUCCEEDED
//   - шаг RUNNING → ждём
//   - очередной шаг QUEUED и никто не выполняется → диспатчим его
func (o *Orchestrator) advanceRun(ctx context.Context, runID uuid.UUID) error {
	if !o.tryActivate(runID) {
		return ErrRunAlreadyActive
	}
	defer o.deactivate(runID)

	run, err := o.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.IsFinished() {
		// Run отменён или финализирован — зачищаем хвост очереди
		if _, err := o.stepRepo.SkipRemaining(ctx, runID); err != nil {
			return fmt.Errorf("skip remaining steps: %w", err)
		}
		return nil
	}

	steps, err := o.stepRepo.ListByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("list steps: %w", err)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: run %s has no steps", ErrStepNotFound, runID)
	}

	for i := range steps {
		step := &steps[i]

		switch step.Status {
		case domain.StepStatusSucceeded:
			continue

		case domain.StepStatusFailed:
			return o.failRun(ctx, run, step)

		case domain.StepStatusRunning:
			// Воркер ещё работает
			return nil

		case domain.StepStatusQueued:
			// Все предыдущие SUCCEEDED — шаг готов к выполнению.
			// Повторная публикация безопасна: воркер выполняет только
			// шаги в статусе QUEUED.
			return o.dispatchStep(ctx, run, step)

		default:
			// SKIPPED среди незавершённого run — рассинхрон
			return fmt.Errorf("unexpected step status %s for step %s", step.Status, step.StepID)
		}
	}

	return o.succeedRun(ctx, run, steps)
}

// dispatchStep публикует шаг в очередь воркеров.
func (o *Orchestrator) dispatchStep(ctx context.Context, run *domain.Run, step *domain.Step) error {
	if o.publisher == nil {
		return nil
	}

	if err := o.publisher.PublishStepReady(ctx, step.ID, run.ID); err != nil {
		// Шаг есть в БД — воркер заберёт его через polling
		o.logger.Warn("failed to publish step.ready",
			"step_id", step.ID,
			"run_id", run.ID,
			"error", err,
		)
		return nil
	}

	o.logger.Debug("step dispatched",
		"step_id", step.ID,
		"run_id", run.ID,
		"seq", step.Seq,
		"type", step.Type,
	)

	return nil
}

// succeedRun финализирует успешный run.
func (o *Orchestrator) succeedRun(ctx context.Context, run *domain.Run, steps []domain.Step) error {
	run.MarkSucceeded()
	if err := o.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to succeeded: %w", err)
	}

	telemetry.RunsTotal.WithLabelValues(string(run.Status)).Inc()

	o.logger.Info("run succeeded",
		"run_id", run.ID,
		"model", run.Model,
		"duration", run.Duration(),
	)

	o.notify(ctx, run, steps)
	return nil
}

// failRun финализирует run после упавшего шага (fail-fast).
func (o *Orchestrator) failRun(ctx context.Context, run *domain.Run, failed *domain.Step) error {
	skipped, err := o.stepRepo.SkipRemaining(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("skip remaining steps: %w", err)
	}

	errMsg := fmt.Sprintf("step %q failed", failed.StepID)
	if failed.Error != "" {
		errMsg = fmt.Sprintf("step %q failed: %s", failed.StepID, failed.Error)
	}

	run.MarkFailed(errMsg)
	if err := o.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to failed: %w", err)
	}

	telemetry.RunsTotal.WithLabelValues(string(run.Status)).Inc()

	o.logger.Warn("run failed",
		"run_id", run.ID,
		"model", run.Model,
		"failed_step", failed.StepID,
		"skipped_steps", skipped,
		"duration", run.Duration(),
	)

	steps, listErr := o.stepRepo.ListByRun(ctx, run.ID)
	if listErr != nil {
		o.logger.Warn("failed to list steps for notification", "run_id", run.ID, "error", listErr)
	}
	o.notify(ctx, run, steps)

	return nil
}
