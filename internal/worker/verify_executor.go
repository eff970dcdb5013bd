package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/2020-qqtcg/mindci/internal/layout"
)

// VerifyExecutor выполняет шаги типа "verify": проверяет файловый
// контракт модели в рабочей копии до запуска тест-раннера.
//
// Нарушение контракта — логическая ошибка шага (result.Error),
// run падает с диагностикой, последующие шаги пропускаются.
type VerifyExecutor struct{}

// Execute проверяет каталоги модели и наличие test_modeling_*.py.
func (e *VerifyExecutor) Execute(ctx context.Context, ex *Execution) (*ExecutionResult, error) {
	var out strings.Builder

	fmt.Fprintf(&out, "model: %s\n", ex.Run.Model)
	fmt.Fprintf(&out, "checking %s/%s\n", layout.ModelsRoot, ex.Run.Model)
	fmt.Fprintf(&out, "checking %s/%s\n", layout.TestsRoot, ex.Run.Model)

	if err := layout.Verify(ex.WorkDir, ex.Run.Model); err != nil {
		fmt.Fprintf(&out, "FAIL: %v\n", err)
		return &ExecutionResult{
			OutputTail: out.String(),
			Error:      err.Error(),
		}, nil
	}

	files, err := layout.TestFiles(ex.WorkDir, ex.Run.Model)
	if err != nil {
		return nil, fmt.Errorf("list test files: %w", err)
	}

	fmt.Fprintf(&out, "found %d test file(s):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&out, "  %s\n", f)
	}

	return &ExecutionResult{
		ExitCode:   0,
		OutputTail: tailString(out.String(), maxOutputTail),
	}, nil
}
