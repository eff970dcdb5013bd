package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/command"
	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/gh"
	"github.com/2020-qqtcg/mindci/internal/repo"
	"github.com/2020-qqtcg/mindci/internal/telemetry"
)

// Лимит размера тела webhook-запроса.
const maxWebhookBody = 1 << 20 // 1 MiB

// GitHubWebhook принимает webhook от GitHub.
// POST /webhooks/github
//
// Комментарий "/model <name>" в pull request создаёт run.
//
// Семантика ответов:
//   - 401 — подпись не прошла проверку
//   - 202 ignored — событие не о новом PR-комментарии или комментарий
//     без подстроки /model (штатный шум, не ошибка)
//   - 422 — подстрока /model есть, но команда не распарсилась
//     (защита от мусора и path traversal в имени модели)
//   - 202 accepted — run создан (или уже существует, idempotency)
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		telemetry.WebhooksTotal.WithLabelValues("error").Inc()
		BadRequest(w, "failed to read request body")
		return
	}

	// 1. Проверка подписи (до любого разбора тела)
	if err := gh.VerifySignature(h.webhookSecret, r.Header.Get(gh.HeaderSignature), body); err != nil {
		telemetry.WebhooksTotal.WithLabelValues("unauthorized").Inc()
		h.logger.Warn("webhook signature verification failed",
			"delivery", r.Header.Get(gh.HeaderDelivery),
			"error", err,
		)
		Unauthorized(w, "invalid webhook signature")
		return
	}

	// 2. Разбор события
	event, err := gh.ParseIssueCommentEvent(r.Header.Get(gh.HeaderEvent), body)
	if err != nil {
		switch {
		case errors.Is(err, gh.ErrNotIssueComment),
			errors.Is(err, gh.ErrNotCreated),
			errors.Is(err, gh.ErrNotPullRequest):
			telemetry.WebhooksTotal.WithLabelValues("ignored").Inc()
			Accepted(w, WebhookResponse{Status: "ignored", Reason: err.Error()})
		default:
			telemetry.WebhooksTotal.WithLabelValues("error").Inc()
			BadRequest(w, "malformed event payload")
		}
		return
	}

	// 3. Разбор команды
	cmd, err := command.Parse(event.Comment.Body)
	if err != nil {
		if errors.Is(err, command.ErrNotCommand) {
			// Обычный комментарий без /model — молча игнорируем
			telemetry.WebhooksTotal.WithLabelValues("ignored").Inc()
			Accepted(w, WebhookResponse{Status: "ignored", Reason: err.Error()})
			return
		}
		// Подстрока /model есть, но команда невалидна
		telemetry.WebhooksTotal.WithLabelValues("invalid_command").Inc()
		h.logger.Info("invalid model command",
			"repo", event.Repo.FullName,
			"pr", event.Issue.Number,
			"user", event.Comment.User.Login,
		)
		InvalidState(w, "no valid model command found in comment")
		return
	}

	// 4. Idempotency: GitHub может доставить событие повторно
	idempKey := ""
	if delivery := r.Header.Get(gh.HeaderDelivery); delivery != "" {
		idempKey = "delivery_" + delivery
	}

	if idempKey != "" {
		existing, err := h.runRepo.GetByIdempotencyKey(r.Context(), idempKey)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			telemetry.WebhooksTotal.WithLabelValues("error").Inc()
			InternalError(w, h.logger, err)
			return
		}
		if existing != nil {
			telemetry.WebhooksTotal.WithLabelValues("accepted").Inc()
			Accepted(w, WebhookResponse{
				Status: "accepted",
				RunID:  &existing.ID,
				Model:  existing.Model,
			})
			return
		}
	}

	// 5. Создаём run
	run := &domain.Run{
		ID:             uuid.New(),
		Model:          cmd.Model,
		Repo:           event.Repo.FullName,
		Ref:            event.Repo.DefaultBranch,
		PRNumber:       event.Issue.Number,
		CommentID:      event.Comment.ID,
		RequestedBy:    event.Comment.User.Login,
		Trigger:        domain.TriggerComment,
		Status:         domain.RunStatusPending,
		IdempotencyKey: idempKey,
		CreatedAt:      time.Now(),
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		// Гонка повторных доставок: run уже создан параллельным запросом
		if errors.Is(err, repo.ErrAlreadyExists) && idempKey != "" {
			if existing, getErr := h.runRepo.GetByIdempotencyKey(r.Context(), idempKey); getErr == nil {
				telemetry.WebhooksTotal.WithLabelValues("accepted").Inc()
				Accepted(w, WebhookResponse{
					Status: "accepted",
					RunID:  &existing.ID,
					Model:  existing.Model,
				})
				return
			}
		}
		telemetry.WebhooksTotal.WithLabelValues("error").Inc()
		InternalError(w, h.logger, err)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID); err != nil {
			// Не фатально: orchestrator заберёт run через polling
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	telemetry.WebhooksTotal.WithLabelValues("accepted").Inc()

	h.logger.Info("run created from webhook",
		"run_id", run.ID,
		"model", run.Model,
		"repo", run.Repo,
		"pr", run.PRNumber,
		"user", run.RequestedBy,
	)

	Accepted(w, WebhookResponse{
		Status: "accepted",
		RunID:  &run.ID,
		Model:  run.Model,
	})
}
