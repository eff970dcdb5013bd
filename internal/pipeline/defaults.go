package pipeline

import "github.com/2020-qqtcg/mindci/internal/domain"

// Типы шагов.
const (
	// StepTypeCheckout — clone/fetch репозитория в workspace run'а.
	StepTypeCheckout = "checkout"

	// StepTypeVerify — проверка файлового контракта модели.
	StepTypeVerify = "verify"

	// StepTypeShell — произвольная команда через os/exec.
	StepTypeShell = "shell"
)

// Плейсхолдеры, подставляемые при материализации шагов run.
const (
	// PlaceholderModel — имя модели.
	PlaceholderModel = "{model}"

	// PlaceholderTestFiles — список файлов test_modeling_*.py модели.
	// Подставляется воркером после checkout (файлы известны только
	// в рабочей копии).
	PlaceholderTestFiles = "{test_files}"
)

// Допустимые типы шагов.
var validStepTypes = map[string]bool{
	StepTypeCheckout: true,
	StepTypeVerify:   true,
	StepTypeShell:    true,
}

// IsValidStepType проверяет, является ли тип шага допустимым.
func IsValidStepType(stepType string) bool {
	return validStepTypes[stepType]
}

// Default возвращает пайплайн по умолчанию.
//
// Последовательность повторяет оригинальный workflow:
// checkout → verify → установка зависимостей → pylint → pytest,
// причём RUN_SLOW=1 выставляется только для шага test.
func Default() *domain.PipelineSpec {
	return &domain.PipelineSpec{
		Version: "1",
		Name:    "model-test",
		Defaults: &domain.StepDefaults{
			TimeoutSec: 3600,
		},
		Steps: []domain.StepDef{
			{
				ID:   "checkout",
				Name: "Checkout repository",
				Type: StepTypeCheckout,
				// checkout ограничен отдельным таймаутом: сеть,
				// а не тесты.
				TimeoutSec: 600,
			},
			{
				ID:   "verify",
				Name: "Verify model layout",
				Type: StepTypeVerify,
			},
			{
				ID:   "deps",
				Name: "Install dependencies",
				Type: StepTypeShell,
				Command: []string{
					"python", "-m", "pip", "install",
					"-r", "requirements/requirements.txt",
					"pytest", "pylint",
				},
				TimeoutSec: 1800,
			},
			{
				ID:   "lint",
				Name: "Run pylint",
				Type: StepTypeShell,
				Command: []string{
					"python", "-m", "pylint",
					"mindnlp/transformers/models/" + PlaceholderModel,
				},
			},
			{
				ID:   "test",
				Name: "Run model tests",
				Type: StepTypeShell,
				Command: []string{
					"python", "-m", "pytest", "-vs",
					PlaceholderTestFiles,
				},
				Env: map[string]string{
					"RUN_SLOW": "1",
				},
				TimeoutSec: 7200,
			},
		},
	}
}
