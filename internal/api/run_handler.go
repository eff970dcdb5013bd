package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/command"
	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?model=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		Model:  r.URL.Query().Get("model"),
		Status: domain.RunStatus(r.URL.Query().Get("status")),
		Limit:  parseIntOr(r.URL.Query().Get("limit"), 50),
		Offset: parseIntOr(r.URL.Query().Get("offset"), 0),
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт run вручную (без PR и webhook).
// POST /api/v1/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Имя модели — единственный пользовательский компонент путей,
	// валидация обязательна и здесь
	if !command.IsValidModelName(req.Model) {
		BadRequest(w, "invalid model name: must match [a-zA-Z0-9_-]+")
		return
	}

	repoName := req.Repo
	if repoName == "" {
		repoName = h.defaultRepo
	}
	if repoName == "" {
		BadRequest(w, "repo is required")
		return
	}

	// Проверяем idempotency key
	if req.IdempotencyKey != "" {
		existing, err := h.runRepo.GetByIdempotencyKey(r.Context(), req.IdempotencyKey)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			InternalError(w, h.logger, err)
			return
		}
		if existing != nil {
			Success(w, RunFromDomain(*existing))
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		Model:          req.Model,
		Repo:           repoName,
		Ref:            req.Ref,
		Trigger:        domain.TriggerManual,
		Status:         domain.RunStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) && req.IdempotencyKey != "" {
			if existing, getErr := h.runRepo.GetByIdempotencyKey(r.Context(), req.IdempotencyKey); getErr == nil {
				Success(w, RunFromDomain(*existing))
				return
			}
		}
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelRun отменяет run.
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if run.IsFinished() {
		InvalidState(w, "run is already finished")
		return
	}

	run.MarkCancelled()

	if err := h.runRepo.Update(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Невыполненные шаги больше не нужны
	if _, err := h.stepRepo.SkipRemaining(r.Context(), run.ID); err != nil {
		h.logger.Warn("failed to skip remaining steps", "run_id", run.ID, "error", err)
	}

	Success(w, RunFromDomain(*run))
}

// ListRunSteps возвращает шаги run.
// GET /api/v1/runs/{id}/steps
func (h *Handler) ListRunSteps(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	_, err = h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	steps, err := h.stepRepo.ListByRun(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]StepResponse, len(steps))
	for i, s := range steps {
		result[i] = StepFromDomain(s)
	}

	List(w, result, len(result))
}

// parseIntOr парсит строку в int с дефолтным значением.
func parseIntOr(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
