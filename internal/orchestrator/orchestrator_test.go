package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
	"github.com/2020-qqtcg/mindci/internal/pipeline"
)

func TestNewDefaults(t *testing.T) {
	o, err := New(Config{Spec: pipeline.Default()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if o.pollInterval != defaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", o.pollInterval, defaultPollInterval)
	}
	if o.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want %d", o.batchSize, defaultBatchSize)
	}
	if o.logger == nil {
		t.Error("logger should be set")
	}
	if o.ActiveRunsCount() != 0 {
		t.Errorf("ActiveRunsCount() = %d, want 0", o.ActiveRunsCount())
	}
}

func TestTryActivate(t *testing.T) {
	o, err := New(Config{Spec: pipeline.Default()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	runID := uuid.New()

	if !o.tryActivate(runID) {
		t.Fatal("first tryActivate should succeed")
	}
	if o.tryActivate(runID) {
		t.Error("second tryActivate should fail while run is active")
	}
	if o.ActiveRunsCount() != 1 {
		t.Errorf("ActiveRunsCount() = %d, want 1", o.ActiveRunsCount())
	}

	o.deactivate(runID)

	if !o.tryActivate(runID) {
		t.Error("tryActivate after deactivate should succeed")
	}
}

func finishedRun(status domain.RunStatus) *domain.Run {
	started := time.Now().Add(-5 * time.Minute)
	finished := time.Now()
	return &domain.Run{
		ID:         uuid.New(),
		Model:      "bert",
		Repo:       "mindspore-lab/mindnlp",
		PRNumber:   42,
		Trigger:    domain.TriggerComment,
		Status:     status,
		StartedAt:  &started,
		FinishedAt: &finished,
	}
}

func TestBuildCommentSucceeded(t *testing.T) {
	run := finishedRun(domain.RunStatusSucceeded)
	steps := []domain.Step{
		{Name: "Checkout", Status: domain.StepStatusSucceeded},
		{Name: "Run pytest", Status: domain.StepStatusSucceeded},
	}

	body := buildComment(run, steps)

	if !strings.Contains(body, "✅") {
		t.Errorf("body = %q, want success marker", body)
	}
	if !strings.Contains(body, "`bert`") {
		t.Errorf("body = %q, want model name", body)
	}
	if !strings.Contains(body, "Run pytest") {
		t.Errorf("body = %q, want step table", body)
	}
	if strings.Contains(body, "<details>") {
		t.Errorf("body = %q, no output section expected for success", body)
	}
}

func TestBuildCommentFailed(t *testing.T) {
	run := finishedRun(domain.RunStatusFailed)
	run.Error = `step "test" failed: pytest exited with code 1`

	steps := []domain.Step{
		{Name: "Checkout", Status: domain.StepStatusSucceeded},
		{Name: "Run pytest", Status: domain.StepStatusFailed, OutputTail: "FAILED test_modeling_bert.py::test_forward"},
		{Name: "Lint", Status: domain.StepStatusSkipped},
	}

	body := buildComment(run, steps)

	if !strings.Contains(body, "❌") {
		t.Errorf("body = %q, want failure marker", body)
	}
	if !strings.Contains(body, "pytest exited with code 1") {
		t.Errorf("body = %q, want run error", body)
	}
	if !strings.Contains(body, "SKIPPED") {
		t.Errorf("body = %q, want skipped step in table", body)
	}
	if !strings.Contains(body, "test_forward") {
		t.Errorf("body = %q, want failed step output", body)
	}
}

func TestBuildCommentTruncatesOutput(t *testing.T) {
	run := finishedRun(domain.RunStatusFailed)
	run.Error = "step failed"

	long := strings.Repeat("x", maxCommentOutput*2) + "TAIL"
	steps := []domain.Step{
		{Name: "Run pytest", Status: domain.StepStatusFailed, OutputTail: long},
	}

	body := buildComment(run, steps)

	if len(body) > maxCommentOutput+2048 {
		t.Errorf("body length = %d, want truncated output", len(body))
	}
	if !strings.Contains(body, "TAIL") {
		t.Error("truncation should keep the end of the output")
	}
}

func TestFirstFailedStep(t *testing.T) {
	steps := []domain.Step{
		{StepID: "checkout", Status: domain.StepStatusSucceeded},
		{StepID: "test", Status: domain.StepStatusFailed},
		{StepID: "lint", Status: domain.StepStatusFailed},
	}

	failed := firstFailedStep(steps)
	if failed == nil || failed.StepID != "test" {
		t.Errorf("firstFailedStep() = %v, want step test", failed)
	}

	if got := firstFailedStep(steps[:1]); got != nil {
		t.Errorf("firstFailedStep() = %v, want nil", got)
	}
}
