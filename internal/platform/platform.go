// Package platform resolves the process-wide filesystem roots and wraps the
// OS facilities the engine depends on: disk usage queries and best-effort
// external tool invocation.
package platform

import (
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Info contains the resolved roots every scanner phase works from. It is
// constructed once at startup and passed by reference.
type Info struct {
	HomeDir    string
	LibraryDir string
	Tools      Runner
}

// GetInfo resolves the user's home from $HOME, falling back to the user
// database when unset.
func GetInfo() (*Info, error) {
	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		currentUser, err := user.Current()
		if err != nil {
			return nil, err
		}
		homeDir = currentUser.HomeDir
	}

	return &Info{
		HomeDir:    homeDir,
		LibraryDir: filepath.Join(homeDir, "Library"),
		Tools:      NewExecRunner(),
	}, nil
}

// DiskUsage reports total, used and free bytes for the volume holding path.
type DiskUsage struct {
	Total int64
	Used  int64
	Free  int64
}

// GetDiskUsage queries the filesystem holding path.
func GetDiskUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, err
	}

	total := int64(st.Blocks) * int64(st.Bsize)
	free := int64(st.Bavail) * int64(st.Bsize)
	return DiskUsage{
		Total: total,
		Used:  total - free,
		Free:  free,
	}, nil
}

// GoModCachePath resolves the Go module download cache, consulting $GOPATH
// when the default location does not exist.
func GoModCachePath(homeDir string) string {
	def := filepath.Join(homeDir, "go", "pkg", "mod", "cache")
	if fi, err := os.Stat(def); err == nil && fi.IsDir() {
		return def
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		return filepath.Join(gopath, "pkg", "mod", "cache")
	}
	return def
}
