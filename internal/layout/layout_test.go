package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// makeRepo создаёт временный checkout с заданными каталогами и файлами.
func makeRepo(t *testing.T, dirs []string, files []string) string {
	t.Helper()
	root := t.TempDir()

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", f, err)
		}
		if err := os.WriteFile(path, []byte("# test"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	return root
}

func TestVerify_OK(t *testing.T) {
	root := makeRepo(t,
		[]string{"mindnlp/transformers/models/bert"},
		[]string{"tests/ut/transformers/models/bert/test_modeling_bert.py"},
	)

	if err := Verify(root, "bert"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerify_ModelDirMissing(t *testing.T) {
	root := makeRepo(t,
		[]string{"tests/ut/transformers/models/bert"},
		[]string{"tests/ut/transformers/models/bert/test_modeling_bert.py"},
	)

	err := Verify(root, "bert")
	if !errors.Is(err, ErrModelDirMissing) {
		t.Errorf("expected ErrModelDirMissing, got %v", err)
	}
}

func TestVerify_TestDirMissing(t *testing.T) {
	root := makeRepo(t,
		[]string{"mindnlp/transformers/models/bert"},
		nil,
	)

	err := Verify(root, "bert")
	if !errors.Is(err, ErrTestDirMissing) {
		t.Errorf("expected ErrTestDirMissing, got %v", err)
	}
}

func TestVerify_NoTestFiles(t *testing.T) {
	root := makeRepo(t,
		[]string{
			"mindnlp/transformers/models/bert",
			"tests/ut/transformers/models/bert",
		},
		// Файлы есть, но не по шаблону test_modeling_*.py
		[]string{"tests/ut/transformers/models/bert/test_tokenization_bert.py"},
	)

	err := Verify(root, "bert")
	if !errors.Is(err, ErrNoTestFiles) {
		t.Errorf("expected ErrNoTestFiles, got %v", err)
	}
}

func TestVerify_ChecksOrderedSourceFirst(t *testing.T) {
	// Нет вообще ничего — первой должна сработать проверка исходников.
	root := t.TempDir()

	err := Verify(root, "bert")
	if !errors.Is(err, ErrModelDirMissing) {
		t.Errorf("expected ErrModelDirMissing, got %v", err)
	}
}

func TestTestFiles(t *testing.T) {
	root := makeRepo(t,
		[]string{"mindnlp/transformers/models/clvp"},
		[]string{
			"tests/ut/transformers/models/clvp/test_modeling_clvp.py",
			"tests/ut/transformers/models/clvp/test_modeling_clvp_extra.py",
			"tests/ut/transformers/models/clvp/test_processor_clvp.py",
			"tests/ut/transformers/models/clvp/conftest.py",
		},
	)

	files, err := TestFiles(root, "clvp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"tests/ut/transformers/models/clvp/test_modeling_clvp.py",
		"tests/ut/transformers/models/clvp/test_modeling_clvp_extra.py",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(files), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}

func TestModelDirAndTestDir(t *testing.T) {
	root := "/work/run-1/repo"

	if got := ModelDir(root, "bert"); filepath.ToSlash(got) != "/work/run-1/repo/mindnlp/transformers/models/bert" {
		t.Errorf("unexpected ModelDir: %s", got)
	}
	if got := TestDir(root, "bert"); filepath.ToSlash(got) != "/work/run-1/repo/tests/ut/transformers/models/bert" {
		t.Errorf("unexpected TestDir: %s", got)
	}
}
