package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// StepRepo — репозиторий для работы со steps.
type StepRepo struct {
	pool *pgxpool.Pool
}

// NewStepRepo создаёт новый StepRepo.
func NewStepRepo(pool *pgxpool.Pool) *StepRepo {
	return &StepRepo{pool: pool}
}

const stepColumns = `id, run_id, seq, step_id, name, type, command, env, timeout_sec, status,
	       exit_code, output_tail, error, started_at, finished_at, created_at`

// CreateBatch создаёт все шаги run одной транзакцией.
// Orchestrator материализует последовательность целиком при старте run.
func (r *StepRepo) CreateBatch(ctx context.Context, steps []domain.Step) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO steps (id, run_id, seq, step_id, name, type, command, env, timeout_sec, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for i := range steps {
		step := &steps[i]

		commandJSON, err := json.Marshal(step.Command)
		if err != nil {
			return fmt.Errorf("marshal command: %w", err)
		}
		envJSON, err := json.Marshal(step.Env)
		if err != nil {
			return fmt.Errorf("marshal env: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			step.ID,
			step.RunID,
			step.Seq,
			step.StepID,
			step.Name,
			step.Type,
			commandJSON,
			envJSON,
			step.TimeoutSec,
			step.Status,
			step.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.StepID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID возвращает шаг по ID.
func (r *StepRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = $1`
	return scanStep(r.pool.QueryRow(ctx, query, id))
}

// ListByRun возвращает шаги run в порядке seq.
func (r *StepRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE run_id = $1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	return collectSteps(rows)
}

// ListQueued возвращает шаги в статусе QUEUED (polling fallback воркера).
func (r *StepRepo) ListQueued(ctx context.Context, limit int) ([]domain.Step, error) {
	query := `
		SELECT ` + stepColumns + `
		FROM steps
		WHERE status = 'QUEUED'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued steps: %w", err)
	}
	defer rows.Close()

	return collectSteps(rows)
}

// Update обновляет шаг.
func (r *StepRepo) Update(ctx context.Context, step *domain.Step) error {
	query := `
		UPDATE steps
		SET status = $2, exit_code = $3, output_tail = $4, error = $5,
		    started_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		step.ID,
		step.Status,
		step.ExitCode,
		nullString(step.OutputTail),
		nullString(step.Error),
		step.StartedAt,
		step.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SkipRemaining помечает все незавершённые шаги run как SKIPPED.
// Вызывается orchestrator'ом при падении шага (fail-fast).
func (r *StepRepo) SkipRemaining(ctx context.Context, runID uuid.UUID) (int, error) {
	query := `
		UPDATE steps
		SET status = 'SKIPPED', finished_at = now()
		WHERE run_id = $1 AND status IN ('QUEUED', 'RUNNING')
	`
	result, err := r.pool.Exec(ctx, query, runID)
	if err != nil {
		return 0, fmt.Errorf("skip remaining steps: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// --- Helpers ---

// scanStep сканирует одну строку в Step.
func scanStep(row pgx.Row) (*domain.Step, error) {
	var step domain.Step
	var commandJSON, envJSON []byte
	var outputTail, stepError *string

	err := row.Scan(
		&step.ID,
		&step.RunID,
		&step.Seq,
		&step.StepID,
		&step.Name,
		&step.Type,
		&commandJSON,
		&envJSON,
		&step.TimeoutSec,
		&step.Status,
		&step.ExitCode,
		&outputTail,
		&stepError,
		&step.StartedAt,
		&step.FinishedAt,
		&step.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan step: %w", err)
	}

	if commandJSON != nil {
		if err := json.Unmarshal(commandJSON, &step.Command); err != nil {
			return nil, fmt.Errorf("unmarshal command: %w", err)
		}
	}
	if envJSON != nil {
		if err := json.Unmarshal(envJSON, &step.Env); err != nil {
			return nil, fmt.Errorf("unmarshal env: %w", err)
		}
	}
	if outputTail != nil {
		step.OutputTail = *outputTail
	}
	if stepError != nil {
		step.Error = *stepError
	}

	return &step, nil
}

// collectSteps сканирует все строки результата в []Step.
func collectSteps(rows pgx.Rows) ([]domain.Step, error) {
	var steps []domain.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}
