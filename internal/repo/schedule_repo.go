package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// ScheduleRepo — репозиторий для работы со schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

const scheduleColumns = `id, model, repo, ref, name, cron_expr, interval_sec, timezone,
	       enabled, next_due_at, last_run_at, last_run_id, created_at, updated_at`

// Create создаёт новый schedule.
func (r *ScheduleRepo) Create(ctx context.Context, sched *domain.Schedule) error {
	query := `
		INSERT INTO schedules (id, model, repo, ref, name, cron_expr, interval_sec,
		                       timezone, enabled, next_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		sched.ID,
		sched.Model,
		sched.Repo,
		nullString(sched.Ref),
		nullString(sched.Name),
		nullString(sched.CronExpr),
		sched.IntervalSec,
		sched.Timezone,
		sched.Enabled,
		sched.NextDueAt,
		sched.CreatedAt,
		sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает schedule по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	return scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все schedules.
func (r *ScheduleRepo) List(ctx context.Context) ([]domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ListDue возвращает due schedules (enabled=true, next_due_at <= now).
func (r *ScheduleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE enabled = true AND next_due_at IS NOT NULL AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// Update обновляет schedule.
func (r *ScheduleRepo) Update(ctx context.Context, sched *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET model = $2, repo = $3, ref = $4, name = $5, cron_expr = $6,
		    interval_sec = $7, timezone = $8, enabled = $9, next_due_at = $10,
		    last_run_at = $11, last_run_id = $12, updated_at = $13
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		sched.ID,
		sched.Model,
		sched.Repo,
		nullString(sched.Ref),
		nullString(sched.Name),
		nullString(sched.CronExpr),
		sched.IntervalSec,
		sched.Timezone,
		sched.Enabled,
		sched.NextDueAt,
		sched.LastRunAt,
		sched.LastRunID,
		sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled включает или выключает schedule.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	query := `UPDATE schedules SET enabled = $2, updated_at = now() WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, enabled)
	if err != nil {
		return fmt.Errorf("set schedule enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanSchedule сканирует одну строку в Schedule.
func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var sched domain.Schedule
	var ref, name, cronExpr *string

	err := row.Scan(
		&sched.ID,
		&sched.Model,
		&sched.Repo,
		&ref,
		&name,
		&cronExpr,
		&sched.IntervalSec,
		&sched.Timezone,
		&sched.Enabled,
		&sched.NextDueAt,
		&sched.LastRunAt,
		&sched.LastRunID,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if ref != nil {
		sched.Ref = *ref
	}
	if name != nil {
		sched.Name = *name
	}
	if cronExpr != nil {
		sched.CronExpr = *cronExpr
	}

	return &sched, nil
}

// collectSchedules сканирует все строки результата в []Schedule.
func collectSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	var schedules []domain.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *sched)
	}
	return schedules, rows.Err()
}
