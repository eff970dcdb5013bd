package worker

import "errors"

// Ошибки воркера.
var (
	// ErrStepNotFound — шаг не найден в БД.
	ErrStepNotFound = errors.New("step not found")

	// ErrStepNotQueued — шаг не в статусе QUEUED.
	ErrStepNotQueued = errors.New("step is not in QUEUED status")

	// ErrUnknownStepType — нет executor'а для данного типа шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrExecutionTimeout — выполнение шага превысило таймаут.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
