package pipeline

import "errors"

// Ошибки валидации PipelineSpec.
var (
	// ErrEmptySteps — пайплайн не содержит шагов.
	ErrEmptySteps = errors.New("pipeline spec has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrUnknownStepType — неизвестный тип шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrEmptyCommand — shell-шаг без команды.
	ErrEmptyCommand = errors.New("shell step has empty command")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
