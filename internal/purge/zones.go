// Package purge validates and executes caller-supplied deletions. The
// correctness bound is absolute: nothing outside an explicitly whitelisted
// zone is ever opened for deletion, and every decision is made on fully
// resolved real paths so a symlink cannot smuggle a target out of bounds.
package purge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/storage-intel/internal/platform"
)

// alwaysSafeBasenames may be deleted anywhere under the user's home: they
// are regenerable build outputs by construction.
var alwaysSafeBasenames = map[string]bool{
	"node_modules":  true,
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".next":         true,
	".nuxt":         true,
	".cache":        true,
	".tox":          true,
	".gradle":       true,
	"Pods":          true,
	"DerivedData":   true,
	".dart_tool":    true,
	"coverage":      true,
	".parcel-cache": true,
	".turbo":        true,
}

// Zones holds the resolved forbidden set and safe-zone roots for one home.
type Zones struct {
	home      string
	forbidden map[string]bool
	safeRoots []string
}

// NewZones builds the zone tables for home. Every root is real-path
// resolved once so later containment checks compare like with like.
func NewZones(home string) *Zones {
	z := &Zones{
		home:      resolve(home),
		forbidden: map[string]bool{},
	}
	// Every table below derives from the resolved home so containment
	// checks compare resolved paths on both sides.
	home = z.home

	forbidden := []string{
		home,
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Pictures"),
		filepath.Join(home, "Music"),
		filepath.Join(home, "Movies"),
		filepath.Join(home, "Library"),
		"/", "/System", "/Applications", "/Users",
		"/var", "/private", "/usr", "/bin", "/sbin", "/tmp",
	}
	for _, p := range forbidden {
		z.forbidden[resolve(p)] = true
	}

	lib := filepath.Join(home, "Library")
	appSupport := filepath.Join(lib, "Application Support")
	safeRoots := []string{
		// Library junk drawers.
		filepath.Join(lib, "Caches"),
		filepath.Join(lib, "Logs"),
		filepath.Join(lib, "Saved Application State"),
		filepath.Join(lib, "Mail Downloads"),
		filepath.Join(lib, "Containers", "com.apple.mail", "Data", "Library", "Mail Downloads"),
		filepath.Join(home, ".Trash"),
		// Browser application-support roots.
		filepath.Join(appSupport, "Google", "Chrome"),
		filepath.Join(appSupport, "Google", "Chrome Canary"),
		filepath.Join(appSupport, "Microsoft Edge"),
		filepath.Join(appSupport, "BraveSoftware", "Brave-Browser"),
		filepath.Join(appSupport, "Firefox", "Profiles"),
		// Application caches living outside ~/Library/Caches.
		filepath.Join(appSupport, "Slack", "Cache"),
		filepath.Join(appSupport, "Slack", "Service Worker"),
		filepath.Join(appSupport, "discord", "Cache"),
		filepath.Join(appSupport, "discord", "Code Cache"),
		filepath.Join(appSupport, "Spotify", "PersistentCache"),
		filepath.Join(appSupport, "Code", "Cache"),
		filepath.Join(appSupport, "Code", "CachedExtensionVSIXs"),
		filepath.Join(appSupport, "Microsoft Teams", "Cache"),
		filepath.Join(appSupport, "zoom.us", "data"),
		filepath.Join(appSupport, "Adobe", "Common", "Media Cache Files"),
		filepath.Join(appSupport, "MobileSync", "Backup"),
		// Xcode state.
		filepath.Join(lib, "Developer", "Xcode", "DerivedData"),
		filepath.Join(lib, "Developer", "Xcode", "Archives"),
		filepath.Join(lib, "Developer", "Xcode", "iOS DeviceSupport"),
		filepath.Join(lib, "Developer", "CoreSimulator", "Devices"),
		filepath.Join(lib, "Audio", "Apple Loops"),
		// Developer tool caches.
		filepath.Join(home, ".npm"),
		filepath.Join(home, ".cargo", "registry"),
		filepath.Join(home, ".gradle", "caches"),
		platform.GoModCachePath(home),
	}
	for _, p := range safeRoots {
		z.safeRoots = append(z.safeRoots, resolve(p))
	}

	return z
}

// resolve returns the real path when the target exists, the cleaned path
// otherwise.
func resolve(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return filepath.Clean(path)
}

// Validate resolves one candidate and decides whether it may be deleted.
// The returned path is the real path to operate on; ok is false for any
// candidate that fails the zone test, including paths that do not exist.
func (z *Zones) Validate(path string) (realPath string, ok bool) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	if _, err := os.Lstat(real); err != nil {
		return "", false
	}

	if z.forbidden[real] {
		return "", false
	}

	if alwaysSafeBasenames[filepath.Base(real)] && z.strictlyUnder(real, z.home) {
		return real, true
	}

	for _, root := range z.safeRoots {
		if real == root || z.strictlyUnder(real, root) {
			return real, true
		}
	}
	return "", false
}

// strictlyUnder reports whether path sits below root (not equal to it).
func (z *Zones) strictlyUnder(path, root string) bool {
	return strings.HasPrefix(path, root+string(os.PathSeparator)) && len(path) > len(root)+1
}
