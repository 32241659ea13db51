package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestCopyFile checks byte-identical copy with parent creation
func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	data := []byte("some video bytes")
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "nested", "dst.mp4")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	copied, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(copied, data) {
		t.Fatal("copy is not byte-identical")
	}
}

// TestCopyFileMissingSource checks the error path
func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "dst.mp4")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

// TestEnsureDirIdempotent checks repeated creation is not an error
func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir twice: %v", err)
	}
}
