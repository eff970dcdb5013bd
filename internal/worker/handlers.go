package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/mq"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

// handleStepReady обрабатывает сообщение step.ready из очереди.
func (w *Worker) handleStepReady(ctx context.Context, msg *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.StepReadyPayload](&msg.Message)
	if err != nil {
		w.logger.Error("invalid step.ready payload", "error", err)
		// Некорректный payload — в DLQ, retry не поможет
		return msg.Nack(false)
	}

	if err := w.processStep(ctx, payload.StepID); err != nil {
		switch {
		case errors.Is(err, ErrStepNotQueued):
			// Шаг уже подхвачен другим воркером или polling'ом
			return nil
		case errors.Is(err, ErrStepNotFound):
			// MQ обогнал коммит транзакции — polling подхватит позже
			w.logger.Warn("step not found yet", "step_id", payload.StepID)
			return nil
		default:
			return err
		}
	}

	return nil
}

// processStep выполняет один шаг.
//
// Полный цикл: загрузка из БД, проверка статуса, выполнение через
// executor, запись результата, публикация step.completed.
//
// Retry нет: любой исход (SUCCEEDED или FAILED) финален, решение о
// судьбе run принимает Orchestrator.
func (w *Worker) processStep(ctx context.Context, stepID uuid.UUID) error {
	step, err := w.stepRepo.GetByID(ctx, stepID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrStepNotFound
		}
		return fmt.Errorf("get step: %w", err)
	}

	if step.Status != domain.StepStatusQueued {
		return ErrStepNotQueued
	}

	run, err := w.runRepo.GetByID(ctx, step.RunID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	logger := telemetry.WithStepID(
		telemetry.WithRunID(w.logger, run.ID.String()),
		step.ID.String(),
	).With("step", step.StepID, "type", step.Type, "model", run.Model)

	// Run отменён, пока шаг ждал в очереди — выполнять нечего
	if run.Status.IsTerminal() {
		logger.Info("run already finished, skipping step", "run_status", run.Status)
		step.MarkSkipped()
		return w.stepRepo.Update(ctx, step)
	}

	step.MarkRunning()
	if err := w.stepRepo.Update(ctx, step); err != nil {
		return fmt.Errorf("mark step running: %w", err)
	}

	logger.Info("executing step", "seq", step.Seq, "timeout_sec", step.TimeoutSec)

	result, execErr := w.execute(ctx, run, step, logger)

	duration := w.finishStep(step, result, execErr)

	telemetry.StepDuration.WithLabelValues(step.Type).Observe(duration.Seconds())
	telemetry.StepsTotal.WithLabelValues(step.Type, string(step.Status)).Inc()

	if err := w.stepRepo.Update(ctx, step); err != nil {
		return fmt.Errorf("update step result: %w", err)
	}

	if step.Status == domain.StepStatusSucceeded {
		logger.Info("step succeeded", "duration", duration)
	} else {
		logger.Warn("step failed", "duration", duration, "error", step.Error)
	}

	w.maybeCleanup(ctx, run, step, logger)

	if w.publisher != nil {
		if err := w.publisher.PublishStepCompleted(ctx, mq.StepCompletedPayload{
			StepID: step.ID,
			RunID:  run.ID,
			Seq:    step.Seq,
			Status: string(step.Status),
			Error:  step.Error,
		}); err != nil {
			// Orchestrator подхватит завершённый шаг через polling
			logger.Error("failed to publish step.completed", "error", err)
		}
	}

	return nil
}

// execute запускает executor шага с таймаутом из Step.TimeoutSec.
func (w *Worker) execute(ctx context.Context, run *domain.Run, step *domain.Step, logger *slog.Logger) (*ExecutionResult, error) {
	executor, err := w.registry.Get(step.Type)
	if err != nil {
		return nil, err
	}

	if step.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutSec)*time.Second)
		defer cancel()
	}

	execution := &Execution{
		Run:     run,
		Step:    step,
		WorkDir: w.workspace.RepoDir(run.ID),
		Logger:  logger,
	}

	return executor.Execute(ctx, execution)
}

// finishStep переводит шаг в терминальный статус по результату выполнения
// и возвращает продолжительность.
func (w *Worker) finishStep(step *domain.Step, result *ExecutionResult, execErr error) time.Duration {
	switch {
	case execErr != nil:
		// Инфраструктурная ошибка: таймаут, spawn failure, git недоступен
		var tail string
		if result != nil {
			tail = result.OutputTail
		}
		msg := execErr.Error()
		if errors.Is(execErr, ErrExecutionTimeout) {
			msg = fmt.Sprintf("step timed out after %ds", step.TimeoutSec)
		}
		step.MarkFailed(nil, tail, msg)

	case result.Error != "":
		// Логическая ошибка: ненулевой exit code, нарушенный layout
		exitCode := result.ExitCode
		step.MarkFailed(&exitCode, result.OutputTail, result.Error)

	default:
		step.MarkSucceeded(result.ExitCode, result.OutputTail)
	}

	return step.Duration()
}

// maybeCleanup удаляет workspace run'а, когда он больше не понадобится:
// шаг упал (остальные будут SKIPPED) или это был последний шаг.
func (w *Worker) maybeCleanup(ctx context.Context, run *domain.Run, step *domain.Step, logger *slog.Logger) {
	cleanup := step.Status == domain.StepStatusFailed

	if !cleanup {
		steps, err := w.stepRepo.ListByRun(ctx, run.ID)
		if err != nil {
			logger.Warn("failed to list run steps for cleanup check", "error", err)
			return
		}
		cleanup = len(steps) > 0 && step.Seq == steps[len(steps)-1].Seq
	}

	if !cleanup {
		return
	}

	if err := w.workspace.Cleanup(run.ID); err != nil {
		logger.Warn("failed to cleanup workspace", "error", err)
	}
}
