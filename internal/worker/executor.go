package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Execution — контекст выполнения одного шага.
//
// WorkDir — рабочая копия репозитория run'а
// (WORKSPACE_ROOT/<run-id>/repo). Для checkout каталог ещё не существует.
type Execution struct {
	// Run — родительский run (модель, репозиторий, ref).
	Run *domain.Run

	// Step — выполняемый шаг.
	Step *domain.Step

	// WorkDir — каталог рабочей копии.
	WorkDir string

	// Logger — логгер с run_id/step_id.
	Logger *slog.Logger
}

// ExecutionResult — результат выполнения шага.
type ExecutionResult struct {
	// ExitCode — код возврата процесса (0 для не-процессных шагов).
	ExitCode int

	// OutputTail — хвост combined output (до 64 KiB).
	OutputTail string

	// Error — сообщение о логической ошибке выполнения
	// (ненулевой exit code, нарушенный контракт).
	// Инфраструктурные ошибки возвращаются через error в Execute().
	Error string
}

// Executor — интерфейс для выполнения конкретного типа шага.
//
// Реализации: CheckoutExecutor, VerifyExecutor, ShellExecutor.
// ctx несёт таймаут, установленный из Step.TimeoutSec.
type Executor interface {
	Execute(ctx context.Context, exec *Execution) (*ExecutionResult, error)
}

// Registry — реестр executor'ов по типу шага.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт реестр с зарегистрированными executor'ами по умолчанию.
//
// Регистрирует: checkout, verify, shell.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	r.Register("checkout", &CheckoutExecutor{})
	r.Register("verify", &VerifyExecutor{})
	r.Register("shell", &ShellExecutor{})
	return r
}

// Register добавляет executor для типа шага.
func (r *Registry) Register(stepType string, executor Executor) {
	r.executors[stepType] = executor
}

// Get возвращает executor для типа шага.
func (r *Registry) Get(stepType string) (Executor, error) {
	executor, ok := r.executors[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepType, stepType)
	}
	return executor, nil
}

// tailString возвращает последние max байт строки.
func tailString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}

// maxOutputTail — ограничение на хранимый хвост вывода шага.
const maxOutputTail = 64 * 1024
