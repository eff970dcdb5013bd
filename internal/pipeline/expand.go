package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Expand материализует шаги run из спецификации пайплайна.
//
// Подставляет {model} в команды и окружение; {test_files} остаётся
// как есть — его разворачивает воркер после checkout, когда рабочая
// копия уже существует.
//
// Шаги создаются в статусе QUEUED в порядке spec.Steps.
func Expand(spec *domain.PipelineSpec, run *domain.Run) []domain.Step {
	now := time.Now()

	steps := make([]domain.Step, 0, len(spec.Steps))
	for i := range spec.Steps {
		def := &spec.Steps[i]

		steps = append(steps, domain.Step{
			ID:         uuid.New(),
			RunID:      run.ID,
			Seq:        i,
			StepID:     def.ID,
			Name:       def.Name,
			Type:       def.Type,
			Command:    substituteAll(def.Command, run.Model),
			Env:        substituteEnv(def.Env, run.Model),
			TimeoutSec: spec.EffectiveTimeoutSec(def),
			Status:     domain.StepStatusQueued,
			CreatedAt:  now,
		})
	}

	return steps
}

// substituteAll подставляет {model} в каждый аргумент команды.
func substituteAll(args []string, model string) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, PlaceholderModel, model)
	}
	return out
}

// substituteEnv подставляет {model} в значения переменных окружения.
func substituteEnv(env map[string]string, model string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = strings.ReplaceAll(v, PlaceholderModel, model)
	}
	return out
}
