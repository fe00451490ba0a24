// Package testutil provides fixture builders shared by the package test
// suites: synthetic home directories, fake external tools and file-time
// manipulation.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/storage-intel/internal/platform"
)

// FakeHome builds a temporary home directory and returns a platform.Info
// rooted at it, with no external tools available. The home is created under
// the package directory, NOT t.TempDir: temp dirs resolve under /tmp, and
// "/tmp/" is itself a classifier safe pattern, so item paths inside a
// /tmp-rooted fixture would classify safe no matter what the component
// under test does.
func FakeHome(t *testing.T) *platform.Info {
	t.Helper()
	home, err := os.MkdirTemp(".", "fakehome-")
	if err != nil {
		t.Fatal(err)
	}
	if home, err = filepath.Abs(home); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(home) })
	return &platform.Info{
		HomeDir:    home,
		LibraryDir: filepath.Join(home, "Library"),
		Tools:      &FakeRunner{},
	}
}

// WriteFile creates a file of the given size, making parent directories.
func WriteFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

// MkdirAll creates a directory tree.
func MkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

// Touch backdates a path's access and modification times.
func Touch(t *testing.T, path string, when time.Time) {
	t.Helper()
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
}

// BackdateTree backdates every entry under root, deepest first, so parent
// directory times survive.
func BackdateTree(t *testing.T, root string, when time.Time) {
	t.Helper()
	var paths []string
	filepath.Walk(root, func(path string, _ os.FileInfo, err error) error {
		if err == nil {
			paths = append(paths, path)
		}
		return nil
	})
	for i := len(paths) - 1; i >= 0; i-- {
		Touch(t, paths[i], when)
	}
}

// FakeRunner satisfies platform.Runner from a canned output table keyed by
// "name arg1 arg2...". Unknown commands report a missing tool.
type FakeRunner struct {
	Outputs map[string]string
	Calls   []string
}

// Run looks up the canned output for the invocation.
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.Calls = append(f.Calls, key)
	if f.Outputs != nil {
		if out, ok := f.Outputs[key]; ok {
			return out, nil
		}
		// Allow keying by bare tool name for call sites with variable args.
		if out, ok := f.Outputs[name]; ok {
			return out, nil
		}
	}
	return "", platform.ErrToolMissing
}
