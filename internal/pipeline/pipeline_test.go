package pipeline

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	spec := Default()

	if err := Validate(spec); err != nil {
		t.Fatalf("default pipeline must validate: %v", err)
	}

	// Порядок фиксирован: checkout → verify → deps → lint → test.
	want := []string{"checkout", "verify", "deps", "lint", "test"}
	if len(spec.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(spec.Steps))
	}
	for i, id := range want {
		if spec.Steps[i].ID != id {
			t.Errorf("step %d: expected %s, got %s", i, id, spec.Steps[i].ID)
		}
	}
}

func TestDefault_TestStepHasRunSlow(t *testing.T) {
	spec := Default()

	var testStep *domain.StepDef
	for i := range spec.Steps {
		if spec.Steps[i].ID == "test" {
			testStep = &spec.Steps[i]
		}
	}
	if testStep == nil {
		t.Fatal("default pipeline has no test step")
	}

	if testStep.Env["RUN_SLOW"] != "1" {
		t.Errorf("test step must set RUN_SLOW=1, got env %v", testStep.Env)
	}

	// RUN_SLOW только у шага test.
	for i := range spec.Steps {
		step := &spec.Steps[i]
		if step.ID != "test" && step.Env["RUN_SLOW"] != "" {
			t.Errorf("step %s must not set RUN_SLOW", step.ID)
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec *domain.PipelineSpec
		want error
	}{
		{name: "nil spec", spec: nil, want: ErrEmptySteps},
		{
			name: "empty steps",
			spec: &domain.PipelineSpec{Steps: []domain.StepDef{}},
			want: ErrEmptySteps,
		},
		{
			name: "empty step id",
			spec: &domain.PipelineSpec{Steps: []domain.StepDef{
				{ID: "", Type: StepTypeVerify},
			}},
			want: ErrEmptyStepID,
		},
		{
			name: "duplicate step id",
			spec: &domain.PipelineSpec{Steps: []domain.StepDef{
				{ID: "a", Type: StepTypeVerify},
				{ID: "a", Type: StepTypeCheckout},
			}},
			want: ErrDuplicateStepID,
		},
		{
			name: "unknown type",
			spec: &domain.PipelineSpec{Steps: []domain.StepDef{
				{ID: "a", Type: "docker"},
			}},
			want: ErrUnknownStepType,
		},
		{
			name: "shell without command",
			spec: &domain.PipelineSpec{Steps: []domain.StepDef{
				{ID: "a", Type: StepTypeShell},
			}},
			want: ErrEmptyCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spec)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
version: "1"
name: custom
defaults:
  timeout_sec: 120
steps:
  - id: checkout
    type: checkout
  - id: verify
    type: verify
  - id: test
    type: shell
    command: ["python", "-m", "pytest", "tests/ut/transformers/models/{model}"]
    env:
      RUN_SLOW: "1"
    timeout_sec: 300
`)

	spec, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(spec.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(spec.Steps))
	}
	if spec.EffectiveTimeoutSec(&spec.Steps[0]) != 120 {
		t.Errorf("expected defaults timeout 120, got %d", spec.EffectiveTimeoutSec(&spec.Steps[0]))
	}
	if spec.EffectiveTimeoutSec(&spec.Steps[2]) != 300 {
		t.Errorf("expected step timeout 300, got %d", spec.EffectiveTimeoutSec(&spec.Steps[2]))
	}
}

func TestParse_InvalidYAMLAndSpec(t *testing.T) {
	if _, err := Parse([]byte("steps: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}

	if _, err := Parse([]byte("steps: []")); !errors.Is(err, ErrEmptySteps) {
		t.Errorf("expected ErrEmptySteps, got %v", err)
	}
}

func TestExpand_SubstitutesModel(t *testing.T) {
	run := &domain.Run{
		ID:    uuid.New(),
		Model: "bert",
	}

	steps := Expand(Default(), run)

	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}

	for i, step := range steps {
		if step.Seq != i {
			t.Errorf("step %s: expected seq %d, got %d", step.StepID, i, step.Seq)
		}
		if step.RunID != run.ID {
			t.Errorf("step %s: wrong run id", step.StepID)
		}
		if step.Status != domain.StepStatusQueued {
			t.Errorf("step %s: expected QUEUED, got %s", step.StepID, step.Status)
		}
	}

	// lint получает подставленный путь модели.
	lint := steps[3]
	found := false
	for _, arg := range lint.Command {
		if arg == "mindnlp/transformers/models/bert" {
			found = true
		}
	}
	if !found {
		t.Errorf("lint command must reference model dir, got %v", lint.Command)
	}

	// {test_files} остаётся для воркера.
	test := steps[4]
	found = false
	for _, arg := range test.Command {
		if arg == PlaceholderTestFiles {
			found = true
		}
	}
	if !found {
		t.Errorf("test command must keep %s placeholder, got %v", PlaceholderTestFiles, test.Command)
	}
}
