package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerKind — источник запуска run.
type TriggerKind string

const (
	// TriggerComment — run создан командой /model в комментарии к PR.
	TriggerComment TriggerKind = "comment"

	// TriggerSchedule — run создан планировщиком.
	TriggerSchedule TriggerKind = "schedule"

	// TriggerManual — run создан вручную через API/CLI.
	TriggerManual TriggerKind = "manual"
)

// Run — один прогон тестов модели.
//
// Run создаётся когда:
// - Пользователь пишет "/model <name>" в комментарии к pull request
// - Scheduler создаёт run по расписанию (ночные slow-тесты)
// - Оператор запускает run вручную (через API/CLI)
//
// Каждый run выполняет фиксированную последовательность шагов
// (checkout → verify → deps → lint → test) строго по порядку.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Model — имя модели (например "bert", "clvp").
	// Всегда соответствует классу символов [a-zA-Z0-9_-]+ —
	// это единственный пользовательский компонент путей.
	Model string `json:"model"`

	// Repo — репозиторий в формате "owner/name".
	Repo string `json:"repo"`

	// Ref — git ref для checkout (head ref PR или ветка по умолчанию).
	Ref string `json:"ref,omitempty"`

	// PRNumber — номер pull request. 0, если run не привязан к PR.
	PRNumber int `json:"pr_number,omitempty"`

	// CommentID — ID комментария GitHub, породившего run.
	CommentID int64 `json:"comment_id,omitempty"`

	// RequestedBy — логин пользователя, запросившего run.
	RequestedBy string `json:"requested_by,omitempty"`

	// Trigger — источник запуска: comment, schedule, manual.
	Trigger TriggerKind `json:"trigger"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для предотвращения дубликатов.
	// Для webhook: "delivery_{github_delivery_id}".
	// Для scheduled runs: "{schedule_id}_{next_due_at_unix}".
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
