package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `id, model, repo, ref, pr_number, comment_id, requested_by,
	       trigger, status, error, idempotency_key, started_at, finished_at, created_at`

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO runs (id, model, repo, ref, pr_number, comment_id, requested_by,
		                  trigger, status, error, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Model,
		run.Repo,
		nullString(run.Ref),
		run.PRNumber,
		nullInt64(run.CommentID),
		nullString(run.RequestedBy),
		string(run.Trigger),
		run.Status,
		nullString(run.Error),
		nullString(run.IdempotencyKey),
		run.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation (конфликт idempotency_key)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает run по ключу идемпотентности.
func (r *RunRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE idempotency_key = $1`
	return scanRun(r.pool.QueryRow(ctx, query, key))
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Model  string
	Status domain.RunStatus
	Limit  int
	Offset int
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE ($1::text IS NULL OR model = $1)
		  AND ($2::text IS NULL OR status = $2::run_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Model),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// Update обновляет run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE runs
		SET status = $2, error = $3, started_at = $4, finished_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPending возвращает runs в статусе PENDING.
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ListStaleRunning возвращает runs, которые выполняются дольше maxAge.
// Используется reaper'ом планировщика (аналог job timeout).
func (r *RunRepo) ListStaleRunning(ctx context.Context, maxAge time.Duration, limit int) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE status = 'RUNNING' AND started_at < $1
		ORDER BY started_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// --- Helpers ---

// scanRun сканирует одну строку в Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var ref, requestedBy, runError, idempotencyKey *string
	var commentID *int64
	var trigger string

	err := row.Scan(
		&run.ID,
		&run.Model,
		&run.Repo,
		&ref,
		&run.PRNumber,
		&commentID,
		&requestedBy,
		&trigger,
		&run.Status,
		&runError,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Trigger = domain.TriggerKind(trigger)
	if ref != nil {
		run.Ref = *ref
	}
	if commentID != nil {
		run.CommentID = *commentID
	}
	if requestedBy != nil {
		run.RequestedBy = *requestedBy
	}
	if runError != nil {
		run.Error = *runError
	}
	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}

	return &run, nil
}

// collectRuns сканирует все строки результата в []Run.
func collectRuns(rows pgx.Rows) ([]domain.Run, error) {
	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullInt64 возвращает nil для нулевого значения.
func nullInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
