package repo

import "errors"

// Ошибки уровня хранилища. Обработчики API переводят их
// в HTTP статусы (404, 422).
var (
	// ErrNotFound — запись отсутствует в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушение уникальности (дубликат idempotency_key).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — операция недопустима для текущего статуса записи.
	ErrInvalidState = errors.New("invalid state")
)
