package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Run DTOs

// CreateRunRequest — запрос на ручное создание run.
type CreateRunRequest struct {
	Model          string `json:"model"`
	Repo           string `json:"repo,omitempty"`
	Ref            string `json:"ref,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID  `json:"id"`
	Model          string     `json:"model"`
	Repo           string     `json:"repo"`
	Ref            string     `json:"ref,omitempty"`
	PRNumber       int        `json:"pr_number,omitempty"`
	RequestedBy    string     `json:"requested_by,omitempty"`
	Trigger        string     `json:"trigger"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		Model:          r.Model,
		Repo:           r.Repo,
		Ref:            r.Ref,
		PRNumber:       r.PRNumber,
		RequestedBy:    r.RequestedBy,
		Trigger:        string(r.Trigger),
		Status:         string(r.Status),
		Error:          r.Error,
		IdempotencyKey: r.IdempotencyKey,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CreatedAt:      r.CreatedAt,
	}
}

// Step DTOs

// StepResponse — ответ с шагом run.
type StepResponse struct {
	ID         uuid.UUID  `json:"id"`
	Seq        int        `json:"seq"`
	StepID     string     `json:"step_id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	OutputTail string     `json:"output_tail,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StepFromDomain конвертирует domain.Step в StepResponse.
func StepFromDomain(s domain.Step) StepResponse {
	return StepResponse{
		ID:         s.ID,
		Seq:        s.Seq,
		StepID:     s.StepID,
		Name:       s.Name,
		Type:       s.Type,
		Status:     string(s.Status),
		ExitCode:   s.ExitCode,
		OutputTail: s.OutputTail,
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Model       string `json:"model"`
	Repo        string `json:"repo,omitempty"`
	Ref         string `json:"ref,omitempty"`
	Name        string `json:"name,omitempty"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение schedule.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ со schedule.
type ScheduleResponse struct {
	ID          uuid.UUID  `json:"id"`
	Model       string     `json:"model"`
	Repo        string     `json:"repo"`
	Ref         string     `json:"ref,omitempty"`
	Name        string     `json:"name,omitempty"`
	CronExpr    string     `json:"cron_expr,omitempty"`
	IntervalSec int        `json:"interval_sec,omitempty"`
	Timezone    string     `json:"timezone"`
	Enabled     bool       `json:"enabled"`
	NextDueAt   *time.Time `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID `json:"last_run_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:          s.ID,
		Model:       s.Model,
		Repo:        s.Repo,
		Ref:         s.Ref,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		CreatedAt:   s.CreatedAt,
	}
}

// Webhook DTOs

// WebhookResponse — ответ на принятый webhook.
type WebhookResponse struct {
	// Status — итог обработки: "accepted" или "ignored".
	Status string `json:"status"`

	// Reason — причина игнорирования (для status=ignored).
	Reason string `json:"reason,omitempty"`

	// RunID — ID созданного run (для status=accepted).
	RunID *uuid.UUID `json:"run_id,omitempty"`

	// Model — имя модели из команды.
	Model string `json:"model,omitempty"`
}
