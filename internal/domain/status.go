package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги завершились успешно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — один из шагов завершился ошибкой.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён пользователем или reaper'ом.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus — статус выполнения шага.
//
// Жизненный цикл:
//
//	QUEUED → RUNNING → SUCCEEDED
//	                 ↘ FAILED
//	(или) → SKIPPED — шаг стоял за упавшим (fail-fast, без retry)
type StepStatus string

const (
	// StepStatusQueued — шаг в очереди, ожидает выполнения.
	StepStatusQueued StepStatus = "QUEUED"

	// StepStatusRunning — шаг выполняется воркером.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSucceeded — шаг успешно завершён.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — шаг завершился ошибкой (ненулевой exit code,
	// таймаут или инфраструктурная ошибка).
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusSkipped — шаг пропущен из-за падения предыдущего.
	StepStatusSkipped StepStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSucceeded, StepStatusFailed, StepStatusSkipped:
		return true
	default:
		return false
	}
}
