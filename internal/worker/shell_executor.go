package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/2020-qqtcg/mindci/internal/layout"
	"github.com/2020-qqtcg/mindci/internal/pipeline"
)

// ShellExecutor выполняет шаги типа "shell": запускает команду через
// os/exec в рабочей копии run'а.
//
// Окружение шага (Step.Env) накладывается поверх окружения воркера —
// так шаг test получает RUN_SLOW=1, не затрагивая остальные шаги.
// Плейсхолдер {test_files} разворачивается в список файлов
// test_modeling_*.py модели: файлы известны только после checkout.
type ShellExecutor struct{}

// Execute запускает команду шага и возвращает exit code с хвостом вывода.
func (e *ShellExecutor) Execute(ctx context.Context, ex *Execution) (*ExecutionResult, error) {
	argv, err := e.expandArgs(ex)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("step %s has empty command", ex.Step.StepID)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "$ %s\n", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = ex.WorkDir
	cmd.Env = overlayEnv(os.Environ(), ex.Step.Env)
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()

	tail := tailString(out.String(), maxOutputTail)

	if runErr == nil {
		return &ExecutionResult{ExitCode: 0, OutputTail: tail}, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrExecutionTimeout, argv[0])
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return &ExecutionResult{
			ExitCode:   exitErr.ExitCode(),
			OutputTail: tail,
			Error:      fmt.Sprintf("%s exited with code %d", argv[0], exitErr.ExitCode()),
		}, nil
	}

	// Spawn failure и прочие инфраструктурные ошибки.
	return nil, fmt.Errorf("run %s: %w", argv[0], runErr)
}

// expandArgs разворачивает {test_files} в аргументах команды.
// Один аргумент-плейсхолдер превращается в N аргументов-файлов.
func (e *ShellExecutor) expandArgs(ex *Execution) ([]string, error) {
	argv := make([]string, 0, len(ex.Step.Command))
	for _, arg := range ex.Step.Command {
		if arg != pipeline.PlaceholderTestFiles {
			argv = append(argv, arg)
			continue
		}

		files, err := layout.TestFiles(ex.WorkDir, ex.Run.Model)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", pipeline.PlaceholderTestFiles, err)
		}
		if len(files) == 0 {
			// Verify-шаг это уже проверил; повторная проверка на случай
			// кастомного пайплайна без verify.
			return nil, fmt.Errorf("expand %s: %w", pipeline.PlaceholderTestFiles, layout.ErrNoTestFiles)
		}
		argv = append(argv, files...)
	}
	return argv, nil
}

// overlayEnv накладывает overlay поверх базового окружения.
func overlayEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	env := make([]string, len(base), len(base)+len(overlay))
	copy(env, base)
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}
	return env
}
