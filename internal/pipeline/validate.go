package pipeline

import (
	"fmt"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Validate выполняет полную валидацию PipelineSpec.
//
// Проверяет:
// - Наличие шагов
// - Уникальность ID шагов
// - Корректность типов шагов
// - Наличие команды у shell-шагов
func Validate(spec *domain.PipelineSpec) error {
	if spec == nil {
		return ErrEmptySteps
	}

	if len(spec.Steps) == 0 {
		return ErrEmptySteps
	}

	stepIDs := make(map[string]bool)

	for i := range spec.Steps {
		step := &spec.Steps[i]

		if err := ValidateStep(step, stepIDs); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
// stepIDs — уже встреченные ID шагов (для проверки уникальности).
func ValidateStep(step *domain.StepDef, stepIDs map[string]bool) error {
	if step.ID == "" {
		return NewValidationError("", "id", "step has empty ID", ErrEmptyStepID)
	}

	if stepIDs[step.ID] {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
	}
	stepIDs[step.ID] = true

	if step.Type == "" {
		return NewValidationError(step.ID, "type",
			"step has empty type", ErrUnknownStepType)
	}
	if !validStepTypes[step.Type] {
		return NewValidationError(step.ID, "type",
			fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
	}

	if step.Type == StepTypeShell && len(step.Command) == 0 {
		return NewValidationError(step.ID, "command",
			"shell step requires a command", ErrEmptyCommand)
	}

	return nil
}
