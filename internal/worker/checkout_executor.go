package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckoutExecutor выполняет шаги типа "checkout": клонирует репозиторий
// run'а в WorkDir и переключается на нужный ref.
//
// Для run из PR-комментария выполняется fetch pull/<n>/head — аналог
// checkout'а head ref pull request'а. Для scheduled/manual runs
// используется Run.Ref, а при его отсутствии — ветка по умолчанию клона.
type CheckoutExecutor struct {
	// BaseURL переопределяет https://github.com (тесты, зеркала).
	BaseURL string
}

// Execute клонирует репозиторий и переключает рабочую копию на ref run'а.
func (e *CheckoutExecutor) Execute(ctx context.Context, ex *Execution) (*ExecutionResult, error) {
	base := e.BaseURL
	if base == "" {
		base = "https://github.com"
	}
	cloneURL := fmt.Sprintf("%s/%s.git", base, ex.Run.Repo)

	if err := os.MkdirAll(filepath.Dir(ex.WorkDir), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	var log bytes.Buffer

	// Свежий каталог на каждый run; повторный checkout начинает заново.
	if err := os.RemoveAll(ex.WorkDir); err != nil {
		return nil, fmt.Errorf("clean workdir: %w", err)
	}

	if result, err := e.git(ctx, &log, "", "clone", "--depth=1", cloneURL, ex.WorkDir); err != nil || result != nil {
		return result, err
	}

	switch {
	case ex.Run.PRNumber > 0:
		ref := fmt.Sprintf("pull/%d/head", ex.Run.PRNumber)
		if result, err := e.git(ctx, &log, ex.WorkDir, "fetch", "--depth=1", "origin", ref); err != nil || result != nil {
			return result, err
		}
		if result, err := e.git(ctx, &log, ex.WorkDir, "checkout", "FETCH_HEAD"); err != nil || result != nil {
			return result, err
		}
	case ex.Run.Ref != "":
		if result, err := e.git(ctx, &log, ex.WorkDir, "fetch", "--depth=1", "origin", ex.Run.Ref); err != nil || result != nil {
			return result, err
		}
		if result, err := e.git(ctx, &log, ex.WorkDir, "checkout", "FETCH_HEAD"); err != nil || result != nil {
			return result, err
		}
	}

	return &ExecutionResult{
		ExitCode:   0,
		OutputTail: tailString(log.String(), maxOutputTail),
	}, nil
}

// git выполняет одну git-команду, дописывая вывод в log.
// Ненулевой exit code возвращается как ExecutionResult с Error
// (логическая ошибка шага), прочие сбои — как error.
func (e *CheckoutExecutor) git(ctx context.Context, log *bytes.Buffer, dir string, args ...string) (*ExecutionResult, error) {
	fmt.Fprintf(log, "$ git %s\n", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = log
	cmd.Stderr = log

	err := cmd.Run()
	if err == nil {
		return nil, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: git %s", ErrExecutionTimeout, strings.Join(args, " "))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecutionResult{
			ExitCode:   exitErr.ExitCode(),
			OutputTail: tailString(log.String(), maxOutputTail),
			Error:      fmt.Sprintf("git %s failed with exit code %d", args[0], exitErr.ExitCode()),
		}, nil
	}

	return nil, fmt.Errorf("run git %s: %w", args[0], err)
}
