package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2020-qqtcg/mindci/internal/domain"
)

// Лимит на фрагмент вывода упавшего шага в комментарии PR.
const maxCommentOutput = 4 * 1024

// notify публикует итог run'а комментарием в PR.
// Best-effort: ошибка уведомления не влияет на статус run.
func (o *Orchestrator) notify(ctx context.Context, run *domain.Run, steps []domain.Step) {
	if o.github == nil || !o.github.Enabled() {
		return
	}
	if run.Trigger != domain.TriggerComment || run.PRNumber <= 0 {
		return
	}

	body := buildComment(run, steps)
	if err := o.github.PostComment(ctx, run.Repo, run.PRNumber, body); err != nil {
		o.logger.Warn("failed to post PR comment",
			"run_id", run.ID,
			"repo", run.Repo,
			"pr", run.PRNumber,
			"error", err,
		)
	}
}

// buildComment строит markdown-итог run'а для комментария в PR.
func buildComment(run *domain.Run, steps []domain.Step) string {
	var b strings.Builder

	switch run.Status {
	case domain.RunStatusSucceeded:
		fmt.Fprintf(&b, "✅ Tests for model `%s` passed.\n\n", run.Model)
	default:
		fmt.Fprintf(&b, "❌ Tests for model `%s` failed: %s\n\n", run.Model, run.Error)
	}

	fmt.Fprintf(&b, "Run `%s` finished in %s.\n", run.ID, run.Duration().Round(time.Second))

	if len(steps) > 0 {
		b.WriteString("\n| Step | Status | Duration |\n|---|---|---|\n")
		for i := range steps {
			s := &steps[i]
			fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, s.Status, s.Duration().Round(time.Second))
		}
	}

	if failed := firstFailedStep(steps); failed != nil && failed.OutputTail != "" {
		tail := failed.OutputTail
		if len(tail) > maxCommentOutput {
			tail = tail[len(tail)-maxCommentOutput:]
		}
		fmt.Fprintf(&b, "\n<details><summary>Output of %s</summary>\n\n```\n%s\n```\n</details>\n", failed.Name, tail)
	}

	return b.String()
}

// firstFailedStep возвращает первый упавший шаг или nil.
func firstFailedStep(steps []domain.Step) *domain.Step {
	for i := range steps {
		if steps[i].Status == domain.StepStatusFailed {
			return &steps[i]
		}
	}
	return nil
}
