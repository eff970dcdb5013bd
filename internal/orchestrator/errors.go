package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run не в статусе PENDING.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrRunAlreadyActive — run уже обрабатывается.
	ErrRunAlreadyActive = errors.New("run is already active")

	// ErrStepNotFound — шаг не найден в БД.
	ErrStepNotFound = errors.New("step not found")
)
