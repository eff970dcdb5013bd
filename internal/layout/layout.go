// Package layout проверяет файловый контракт репозитория моделей.
//
// Для модели <name> в корне checkout'а должны существовать:
//   - mindnlp/transformers/models/<name>/           — исходники модели
//   - tests/ut/transformers/models/<name>/          — юнит-тесты
//     (минимум один файл test_modeling_*.py)
//
// Любое нарушение контракта валит run с диагностикой до запуска
// тест-раннера.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Относительные пути контракта.
const (
	// ModelsRoot — корень исходников моделей.
	ModelsRoot = "mindnlp/transformers/models"

	// TestsRoot — корень юнит-тестов моделей.
	TestsRoot = "tests/ut/transformers/models"

	// TestFilePattern — шаблон файлов тестов.
	TestFilePattern = "test_modeling_*.py"
)

// Ошибки проверки контракта.
var (
	// ErrModelDirMissing — каталог исходников модели отсутствует.
	ErrModelDirMissing = errors.New("model source directory does not exist")

	// ErrTestDirMissing — каталог тестов модели отсутствует.
	ErrTestDirMissing = errors.New("model test directory does not exist")

	// ErrNoTestFiles — в каталоге тестов нет файлов test_modeling_*.py.
	ErrNoTestFiles = errors.New("no test_modeling_*.py files found")
)

// ModelDir возвращает путь к исходникам модели.
func ModelDir(root, model string) string {
	return filepath.Join(root, filepath.FromSlash(ModelsRoot), model)
}

// TestDir возвращает путь к тестам модели.
func TestDir(root, model string) string {
	return filepath.Join(root, filepath.FromSlash(TestsRoot), model)
}

// Verify проверяет файловый контракт для модели.
//
// Порядок проверок повторяет порядок диагностик оригинального пайплайна:
// сначала исходники, затем каталог тестов, затем наличие тест-файлов.
// Возвращается первая нарушенная проверка.
func Verify(root, model string) error {
	modelDir := ModelDir(root, model)
	if !dirExists(modelDir) {
		return fmt.Errorf("%w: %s", ErrModelDirMissing, relPath(root, modelDir))
	}

	testDir := TestDir(root, model)
	if !dirExists(testDir) {
		return fmt.Errorf("%w: %s", ErrTestDirMissing, relPath(root, testDir))
	}

	files, err := TestFiles(root, model)
	if err != nil {
		return fmt.Errorf("list test files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoTestFiles, relPath(root, testDir))
	}

	return nil
}

// TestFiles возвращает отсортированный список файлов test_modeling_*.py
// модели (пути относительно root).
func TestFiles(root, model string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(TestDir(root, model), TestFilePattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", TestFilePattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(root, m)
		if err != nil {
			return nil, fmt.Errorf("rel path: %w", err)
		}
		files = append(files, filepath.ToSlash(rel))
	}
	sort.Strings(files)
	return files, nil
}

// dirExists проверяет, что путь существует и является каталогом.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// relPath возвращает путь относительно root для диагностик.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
