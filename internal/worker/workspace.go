package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace управляет рабочими каталогами runs.
//
// Каждый run получает изолированный каталог WORKSPACE_ROOT/<run-id>,
// внутри которого checkout создаёт подкаталог repo.
type Workspace struct {
	root string
	keep bool
}

// NewWorkspace создаёт Workspace из окружения:
//   - WORKSPACE_ROOT — корень рабочих каталогов
//     (по умолчанию <os.TempDir()>/mindci)
//   - KEEP_WORKSPACE=1 — не удалять каталоги после завершения run
func NewWorkspace() *Workspace {
	root := os.Getenv("WORKSPACE_ROOT")
	if root == "" {
		root = filepath.Join(os.TempDir(), "mindci")
	}
	return &Workspace{
		root: root,
		keep: os.Getenv("KEEP_WORKSPACE") == "1",
	}
}

// RepoDir возвращает каталог рабочей копии для run.
func (w *Workspace) RepoDir(runID uuid.UUID) string {
	return filepath.Join(w.root, runID.String(), "repo")
}

// Cleanup удаляет каталог run. No-op при KEEP_WORKSPACE=1.
func (w *Workspace) Cleanup(runID uuid.UUID) error {
	if w.keep {
		return nil
	}
	dir := filepath.Join(w.root, runID.String())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", dir, err)
	}
	return nil
}
