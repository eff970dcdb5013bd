package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/command"
	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/scheduler"
)

// ListSchedules возвращает список schedules.
// GET /api/v1/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.scheduleRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		result[i] = ScheduleFromDomain(s)
	}

	List(w, result, len(result))
}

// CreateSchedule создаёт новый schedule.
// POST /api/v1/schedules
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if !command.IsValidModelName(req.Model) {
		BadRequest(w, "invalid model name: must match [a-zA-Z0-9_-]+")
		return
	}

	if req.CronExpr == "" && req.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}

	if req.CronExpr != "" {
		if err := scheduler.ValidateCronExpr(req.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	repoName := req.Repo
	if repoName == "" {
		repoName = h.defaultRepo
	}
	if repoName == "" {
		BadRequest(w, "repo is required")
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		BadRequest(w, "invalid timezone")
		return
	}

	now := time.Now()
	sched := &domain.Schedule{
		ID:          uuid.New(),
		Model:       req.Model,
		Repo:        repoName,
		Ref:         req.Ref,
		Name:        req.Name,
		CronExpr:    req.CronExpr,
		IntervalSec: req.IntervalSec,
		Timezone:    timezone,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	nextDue, err := scheduler.CalculateInitialNextDue(sched)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	sched.NextDueAt = &nextDue

	if err := h.scheduleRepo.Create(r.Context(), sched); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, ScheduleFromDomain(*sched))
}

// GetSchedule возвращает schedule по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(*sched))
}

// UpdateSchedule обновляет schedule.
// PUT /api/v1/schedules/{id}
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	if req.Name != nil {
		sched.Name = *req.Name
	}
	if req.CronExpr != nil {
		if *req.CronExpr != "" {
			if err := scheduler.ValidateCronExpr(*req.CronExpr); err != nil {
				BadRequest(w, err.Error())
				return
			}
		}
		sched.CronExpr = *req.CronExpr
	}
	if req.IntervalSec != nil {
		sched.IntervalSec = *req.IntervalSec
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			BadRequest(w, "invalid timezone")
			return
		}
		sched.Timezone = *req.Timezone
	}

	if sched.CronExpr == "" && sched.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}

	// Расписание изменилось — пересчитываем next_due_at
	nextDue, err := scheduler.CalculateInitialNextDue(sched)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	sched.NextDueAt = &nextDue
	sched.UpdatedAt = time.Now()

	if err := h.scheduleRepo.Update(r.Context(), sched); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ScheduleFromDomain(*sched))
}

// DeleteSchedule удаляет schedule.
// DELETE /api/v1/schedules/{id}
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	if err := h.scheduleRepo.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	NoContent(w)
}

// SetScheduleEnabled включает/выключает schedule.
// PUT /api/v1/schedules/{id}/enabled
func (h *Handler) SetScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.scheduleRepo.SetEnabled(r.Context(), id, req.Enabled); HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	sched, err := h.scheduleRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(*sched))
}
