package domain

// PipelineSpec — спецификация последовательности шагов для прогона модели.
//
// Это "программа" для mindci: что именно выполнить для одной модели.
// Последовательность линейная и выполняется строго по порядку, без
// параллелизма и без retry (fail-fast).
//
// Спецификация по умолчанию зашита в коде (internal/pipeline) и может
// быть переопределена YAML-файлом (переменная PIPELINE_CONFIG).
type PipelineSpec struct {
	// Version — версия формата спецификации (для обратной совместимости).
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Name — имя пайплайна (например "model-test").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Defaults — настройки по умолчанию для всех шагов.
	Defaults *StepDefaults `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Steps — шаги в порядке выполнения.
	Steps []StepDef `json:"steps" yaml:"steps"`
}

// StepDefaults — настройки по умолчанию для шагов.
type StepDefaults struct {
	// TimeoutSec — таймаут выполнения одного шага в секундах.
	TimeoutSec int `json:"timeout_sec,omitempty" yaml:"timeout_sec,omitempty"`
}

// StepDef — определение шага в PipelineSpec.
//
// Команды и окружение могут содержать плейсхолдер {model},
// который подставляется при создании шагов конкретного run.
type StepDef struct {
	// ID — уникальный идентификатор шага в рамках пайплайна.
	ID string `json:"id" yaml:"id"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Type — тип шага: "checkout", "verify", "shell".
	Type string `json:"type" yaml:"type"`

	// Command — argv для shell-шагов.
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`

	// Env — переменные окружения шага (поверх окружения воркера).
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// TimeoutSec — таймаут для этого шага.
	// Переопределяет defaults.timeout_sec.
	TimeoutSec int `json:"timeout_sec,omitempty" yaml:"timeout_sec,omitempty"`
}

// EffectiveTimeoutSec возвращает таймаут шага с учётом defaults.
// 0 означает "без таймаута на уровне шага" (остаётся общий RUN_TIMEOUT).
func (p *PipelineSpec) EffectiveTimeoutSec(step *StepDef) int {
	if step.TimeoutSec > 0 {
		return step.TimeoutSec
	}
	if p.Defaults != nil && p.Defaults.TimeoutSec > 0 {
		return p.Defaults.TimeoutSec
	}
	return 0
}
