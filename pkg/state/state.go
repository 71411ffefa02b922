package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EnsureStateDirs creates the runtime folder layout under dbPath. Every
// directory must be a real, writable directory.
func EnsureStateDirs(dbPath string) error {
	p := PathsFor(dbPath)
	for _, dir := range []string{p.Store, p.Backups, p.Logs, p.Tmp} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureDir(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("cannot create parent for %s: %w", p, err)
	}

	if fi, err := os.Lstat(p); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("path is a symlink: %s", p)
		}
		if !fi.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %s", p)
		}
	}

	if err := os.MkdirAll(p, 0o700); err != nil {
		return fmt.Errorf("cannot create path %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(p, ".validate-*")
	if err != nil {
		return fmt.Errorf("path not writable: %s: %w", p, err)
	}
	tmp.Close()
	_ = os.Remove(tmp.Name())
	return nil
}

var ErrFreeBytesUnsupported = errors.New("free space check unsupported on this platform")

var (
	PathsVar Paths
	initOnce sync.Once
	initErr  error
)

// Init resolves the layout for dbPath and creates it. Safe to call multiple
// times; only the first call has effect.
func Init(dbPath string) error {
	initOnce.Do(func() {
		path := strings.TrimSpace(dbPath)
		if path == "" {
			path = "./database"
		}
		path = filepath.Clean(path)
		PathsVar = PathsFor(path)
		initErr = EnsureStateDirs(path)
	})
	return initErr
}
