package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeInput(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCollectInputFilesWalksDirs(t *testing.T) {
	root := t.TempDir()
	b := writeInput(t, root, "b.affine", "(d0) -> (d0)\n")
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	a := writeInput(t, sub, "a.affine", "(d0) -> (d0)\n")
	writeInput(t, root, "notes.txt", "ignored")

	files, err := collectInputFiles([]string{root})
	if err != nil {
		t.Fatalf("collectInputFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	// Directory contents come back in sorted path order.
	if files[0] != b || files[1] != a {
		t.Fatalf("files = %v, want [%s %s]", files, b, a)
	}
}

func TestCollectInputFilesDropsDuplicates(t *testing.T) {
	root := t.TempDir()
	f := writeInput(t, root, "m.affine", "(d0) -> (d0)\n")

	files, err := collectInputFiles([]string{f, root})
	if err != nil {
		t.Fatalf("collectInputFiles: %v", err)
	}
	if len(files) != 1 || files[0] != f {
		t.Fatalf("files = %v, want [%s]", files, f)
	}
}

func TestCollectInputFilesRejectsWrongExtension(t *testing.T) {
	root := t.TempDir()
	f := writeInput(t, root, "notes.txt", "not a map")
	if _, err := collectInputFiles([]string{f}); err == nil {
		t.Fatalf("expected error for %s", f)
	}
}

func TestCollectInputFilesEmptyDir(t *testing.T) {
	if _, err := collectInputFiles([]string{t.TempDir()}); err == nil {
		t.Fatalf("expected error for directory without inputs")
	}
}

func TestCollectInputFilesMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.affine")
	if _, err := collectInputFiles([]string{missing}); err == nil {
		t.Fatalf("expected error for %s", missing)
	}
}
