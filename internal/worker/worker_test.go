package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/layout"
	"github.com/2020-qqtcg/mindci/internal/pipeline"
)

func testExecution(t *testing.T, workDir string, step *domain.Step) *Execution {
	t.Helper()
	return &Execution{
		Run: &domain.Run{
			ID:    uuid.New(),
			Model: "bert",
		},
		Step:    step,
		WorkDir: workDir,
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// scaffoldModel создаёт валидный layout модели bert в workDir.
func scaffoldModel(t *testing.T, workDir string) {
	t.Helper()
	writeTestFile(t, filepath.Join(workDir, layout.ModelsRoot, "bert", "modeling_bert.py"))
	writeTestFile(t, filepath.Join(workDir, layout.TestsRoot, "bert", "test_modeling_bert.py"))
}

func TestShellExecutorSuccess(t *testing.T) {
	dir := t.TempDir()
	step := &domain.Step{
		StepID:  "greet",
		Type:    "shell",
		Command: []string{"sh", "-c", "echo hello from step"},
	}

	exec := &ShellExecutor{}
	result, err := exec.Execute(context.Background(), testExecution(t, dir, step))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
	if !strings.Contains(result.OutputTail, "hello from step") {
		t.Errorf("OutputTail = %q, want command output", result.OutputTail)
	}
	if !strings.Contains(result.OutputTail, "$ sh -c") {
		t.Errorf("OutputTail = %q, want command echo line", result.OutputTail)
	}
}

func TestShellExecutorNonZeroExit(t *testing.T) {
	step := &domain.Step{
		StepID:  "fail",
		Type:    "shell",
		Command: []string{"sh", "-c", "echo boom >&2; exit 3"},
	}

	exec := &ShellExecutor{}
	result, err := exec.Execute(context.Background(), testExecution(t, t.TempDir(), step))
	if err != nil {
		t.Fatalf("Execute() error = %v, want logical failure in result", err)
	}

	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if result.Error == "" {
		t.Error("Error is empty, want exit code message")
	}
	if !strings.Contains(result.OutputTail, "boom") {
		t.Errorf("OutputTail = %q, want stderr captured", result.OutputTail)
	}
}

func TestShellExecutorTimeout(t *testing.T) {
	step := &domain.Step{
		StepID:  "slow",
		Type:    "shell",
		Command: []string{"sleep", "30"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	exec := &ShellExecutor{}
	_, err := exec.Execute(ctx, testExecution(t, t.TempDir(), step))
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("Execute() error = %v, want ErrExecutionTimeout", err)
	}
}

func TestShellExecutorEnvOverlay(t *testing.T) {
	step := &domain.Step{
		StepID:  "test",
		Type:    "shell",
		Command: []string{"sh", "-c", "echo RUN_SLOW=$RUN_SLOW"},
		Env:     map[string]string{"RUN_SLOW": "1"},
	}

	exec := &ShellExecutor{}
	result, err := exec.Execute(context.Background(), testExecution(t, t.TempDir(), step))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(result.OutputTail, "RUN_SLOW=1") {
		t.Errorf("OutputTail = %q, want RUN_SLOW=1 from step env", result.OutputTail)
	}
}

func TestShellExecutorExpandsTestFiles(t *testing.T) {
	dir := t.TempDir()
	scaffoldModel(t, dir)
	writeTestFile(t, filepath.Join(dir, layout.TestsRoot, "bert", "test_modeling_bert_extra.py"))

	step := &domain.Step{
		StepID:  "test",
		Type:    "shell",
		Command: []string{"echo", pipeline.PlaceholderTestFiles},
	}

	exec := &ShellExecutor{}
	result, err := exec.Execute(context.Background(), testExecution(t, dir, step))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{
		layout.TestsRoot + "/bert/test_modeling_bert.py",
		layout.TestsRoot + "/bert/test_modeling_bert_extra.py",
	} {
		if !strings.Contains(result.OutputTail, want) {
			t.Errorf("OutputTail = %q, want expanded file %s", result.OutputTail, want)
		}
	}
}

func TestShellExecutorNoTestFiles(t *testing.T) {
	dir := t.TempDir()
	// Каталоги есть, тест-файлов нет
	writeTestFile(t, filepath.Join(dir, layout.ModelsRoot, "bert", "modeling_bert.py"))
	writeTestFile(t, filepath.Join(dir, layout.TestsRoot, "bert", "conftest.py"))

	step := &domain.Step{
		StepID:  "test",
		Type:    "shell",
		Command: []string{"echo", pipeline.PlaceholderTestFiles},
	}

	exec := &ShellExecutor{}
	_, err := exec.Execute(context.Background(), testExecution(t, dir, step))
	if !errors.Is(err, layout.ErrNoTestFiles) {
		t.Errorf("Execute() error = %v, want ErrNoTestFiles", err)
	}
}

func TestVerifyExecutor(t *testing.T) {
	tests := []struct {
		name      string
		scaffold  func(t *testing.T, dir string)
		wantError string
	}{
		{
			name:     "valid layout",
			scaffold: scaffoldModel,
		},
		{
			name:      "missing model dir",
			scaffold:  func(t *testing.T, dir string) {},
			wantError: layout.ErrModelDirMissing.Error(),
		},
		{
			name: "missing test dir",
			scaffold: func(t *testing.T, dir string) {
				writeTestFile(t, filepath.Join(dir, layout.ModelsRoot, "bert", "modeling_bert.py"))
			},
			wantError: layout.ErrTestDirMissing.Error(),
		},
		{
			name: "no test files",
			scaffold: func(t *testing.T, dir string) {
				writeTestFile(t, filepath.Join(dir, layout.ModelsRoot, "bert", "modeling_bert.py"))
				writeTestFile(t, filepath.Join(dir, layout.TestsRoot, "bert", "conftest.py"))
			},
			wantError: layout.ErrNoTestFiles.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.scaffold(t, dir)

			exec := &VerifyExecutor{}
			result, err := exec.Execute(context.Background(), testExecution(t, dir, &domain.Step{
				StepID: "verify",
				Type:   "verify",
			}))
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if tt.wantError == "" {
				if result.Error != "" {
					t.Errorf("Error = %q, want empty", result.Error)
				}
				if !strings.Contains(result.OutputTail, "test_modeling_bert.py") {
					t.Errorf("OutputTail = %q, want test file listing", result.OutputTail)
				}
				return
			}

			if !strings.Contains(result.Error, tt.wantError) {
				t.Errorf("Error = %q, want contains %q", result.Error, tt.wantError)
			}
		})
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("checkout"); err != nil {
		t.Errorf("Get(checkout) error = %v", err)
	}
	if _, err := r.Get("docker"); !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("Get(docker) error = %v, want ErrUnknownStepType", err)
	}
}

func TestFinishStep(t *testing.T) {
	exitCode := func(n int) *int { return &n }

	tests := []struct {
		name         string
		result       *ExecutionResult
		execErr      error
		wantStatus   domain.StepStatus
		wantExitCode *int
		wantError    string
	}{
		{
			name:         "success",
			result:       &ExecutionResult{ExitCode: 0, OutputTail: "ok"},
			wantStatus:   domain.StepStatusSucceeded,
			wantExitCode: exitCode(0),
		},
		{
			name:         "logical failure",
			result:       &ExecutionResult{ExitCode: 1, OutputTail: "boom", Error: "pytest exited with code 1"},
			wantStatus:   domain.StepStatusFailed,
			wantExitCode: exitCode(1),
			wantError:    "pytest exited with code 1",
		},
		{
			name:       "infrastructure failure",
			execErr:    errors.New("git not installed"),
			wantStatus: domain.StepStatusFailed,
			wantError:  "git not installed",
		},
		{
			name:       "timeout",
			execErr:    ErrExecutionTimeout,
			wantStatus: domain.StepStatusFailed,
			wantError:  "timed out after 60s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(Config{})
			step := &domain.Step{
				StepID:     "test",
				TimeoutSec: 60,
			}
			step.MarkRunning()

			w.finishStep(step, tt.result, tt.execErr)

			if step.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", step.Status, tt.wantStatus)
			}
			if step.FinishedAt == nil {
				t.Error("FinishedAt is nil")
			}
			if tt.wantExitCode == nil && step.ExitCode != nil {
				t.Errorf("ExitCode = %d, want nil", *step.ExitCode)
			}
			if tt.wantExitCode != nil && (step.ExitCode == nil || *step.ExitCode != *tt.wantExitCode) {
				t.Errorf("ExitCode = %v, want %d", step.ExitCode, *tt.wantExitCode)
			}
			if tt.wantError != "" && !strings.Contains(step.Error, tt.wantError) {
				t.Errorf("Error = %q, want contains %q", step.Error, tt.wantError)
			}
		})
	}
}

func TestOverlayEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root"}

	got := overlayEnv(base, map[string]string{"RUN_SLOW": "1"})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[2] != "RUN_SLOW=1" {
		t.Errorf("overlay entry = %q, want RUN_SLOW=1", got[2])
	}

	// Без overlay возвращается исходный срез
	if same := overlayEnv(base, nil); len(same) != len(base) {
		t.Errorf("len = %d, want %d", len(same), len(base))
	}
}

func TestTailString(t *testing.T) {
	if got := tailString("short", 10); got != "short" {
		t.Errorf("tailString(short) = %q", got)
	}
	if got := tailString("abcdef", 3); got != "def" {
		t.Errorf("tailString(abcdef, 3) = %q, want def", got)
	}
}
