package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step — один шаг внутри run.
//
// Step создаётся Orchestrator'ом при старте run (вся последовательность
// сразу, в порядке seq). Выполняется Worker'ом строго последовательно:
// шаг N+1 уходит в очередь только после SUCCEEDED шага N.
type Step struct {
	// ID — уникальный идентификатор шага.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// Seq — порядковый номер шага в run (0, 1, 2, ...).
	Seq int `json:"seq"`

	// StepID — идентификатор шага из PipelineSpec (соответствует StepDef.ID).
	StepID string `json:"step_id"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name"`

	// Type — тип шага: "checkout", "verify", "shell".
	Type string `json:"type"`

	// Command — команда для shell-шагов (argv).
	Command []string `json:"command,omitempty"`

	// Env — дополнительные переменные окружения (например RUN_SLOW=1).
	Env map[string]string `json:"env,omitempty"`

	// TimeoutSec — таймаут выполнения шага в секундах (0 — без таймаута).
	TimeoutSec int `json:"timeout_sec,omitempty"`

	// Status — текущий статус шага.
	Status StepStatus `json:"status"`

	// ExitCode — код возврата процесса. Nil, пока шаг не завершён
	// или для не-shell шагов.
	ExitCode *int `json:"exit_code,omitempty"`

	// OutputTail — хвост combined output (stdout+stderr), до 64 KiB.
	// Полный вывод не хранится в БД.
	OutputTail string `json:"output_tail,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания шага.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
func (s *Step) Duration() time.Duration {
	if s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// IsFinished возвращает true, если шаг завершён.
func (s *Step) IsFinished() bool {
	return s.Status.IsTerminal()
}

// MarkRunning переводит шаг в статус RUNNING.
func (s *Step) MarkRunning() {
	now := time.Now()
	s.Status = StepStatusRunning
	s.StartedAt = &now
}

// MarkSucceeded переводит шаг в статус SUCCEEDED.
func (s *Step) MarkSucceeded(exitCode int, outputTail string) {
	now := time.Now()
	s.Status = StepStatusSucceeded
	s.FinishedAt = &now
	s.ExitCode = &exitCode
	s.OutputTail = outputTail
}

// MarkFailed переводит шаг в статус FAILED с ошибкой.
// exitCode может быть nil для инфраструктурных ошибок (spawn, таймаут).
func (s *Step) MarkFailed(exitCode *int, outputTail, errMsg string) {
	now := time.Now()
	s.Status = StepStatusFailed
	s.FinishedAt = &now
	s.ExitCode = exitCode
	s.OutputTail = outputTail
	s.Error = errMsg
}

// MarkSkipped переводит шаг в статус SKIPPED (fail-fast).
func (s *Step) MarkSkipped() {
	now := time.Now()
	s.Status = StepStatusSkipped
	s.FinishedAt = &now
}
