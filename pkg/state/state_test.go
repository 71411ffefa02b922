package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureStateDirs(t *testing.T) {
	root := t.TempDir()
	if err := EnsureStateDirs(root); err != nil {
		t.Fatalf("EnsureStateDirs: %v", err)
	}
	p := PathsFor(root)
	for _, dir := range []string{p.Store, p.Backups, p.Logs, p.Tmp} {
		fi, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !fi.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}

func TestEnsureStateDirsRejectsFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "store"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureStateDirs(root); err == nil {
		t.Fatalf("expected error when store path is a file")
	}
}

func TestEnsureStateDirsRejectsSymlink(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.Symlink(target, filepath.Join(root, "store")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := EnsureStateDirs(root); err == nil {
		t.Fatalf("expected error when store path is a symlink")
	}
}

func TestFreeBytes(t *testing.T) {
	n, err := FreeBytes(t.TempDir())
	if err == ErrFreeBytesUnsupported {
		t.Skip("unsupported platform")
	}
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected some free space")
	}
}
