package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSizeRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.bin"), 100)
	writeFile(t, filepath.Join(dir, "sub", "b.bin"), 200)
	writeFile(t, filepath.Join(dir, "sub", "deep", "c.bin"), 300)

	if got := Size(dir); got != 600 {
		t.Errorf("Size = %d, want 600", got)
	}
}

func TestSizeSingleFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "only.bin")
	writeFile(t, f, 42)

	if got := Size(f); got != 42 {
		t.Errorf("Size(file) = %d, want 42", got)
	}
}

func TestSizeSkipsSymlinkedSubtree(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, filepath.Join(target, "big.bin"), 5000)

	scanned := filepath.Join(dir, "scanned")
	writeFile(t, filepath.Join(scanned, "real.bin"), 10)
	if err := os.Symlink(target, filepath.Join(scanned, "link")); err != nil {
		t.Skip("symlinks unavailable")
	}

	if got := Size(scanned); got != 10 {
		t.Errorf("Size = %d, want 10 (symlinked subtree must not count)", got)
	}
}

func TestSizeSkipsSymlinkedFile(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.bin")
	writeFile(t, real, 77)
	link := filepath.Join(dir, "link.bin")
	if err := os.Symlink(real, link); err != nil {
		t.Skip("symlinks unavailable")
	}

	if got := Size(dir); got != 77 {
		t.Errorf("Size = %d, want 77 (symlink itself must not count)", got)
	}
	if got := Size(link); got != 0 {
		t.Errorf("Size(symlink) = %d, want 0", got)
	}
}

func TestSizeMissingPath(t *testing.T) {
	if got := Size(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("Size(missing) = %d, want 0", got)
	}
}

func TestSizeSymlinkLoopTerminates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "f.bin"), 10)
	if err := os.Symlink(dir, filepath.Join(dir, "loop")); err != nil {
		t.Skip("symlinks unavailable")
	}

	// Must terminate and count only the regular file.
	if got := Size(dir); got != 10 {
		t.Errorf("Size = %d, want 10", got)
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !DirExists(dir) {
		t.Error("DirExists(tempdir) = false")
	}
	if DirExists(filepath.Join(dir, "missing")) {
		t.Error("DirExists(missing) = true")
	}
	f := filepath.Join(dir, "file")
	writeFile(t, f, 1)
	if DirExists(f) {
		t.Error("DirExists(file) = true")
	}
}
