package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/probe"
)

// maxWalkDepth bounds the deep walk below each search root.
const maxWalkDepth = 5

// projectSearchDirs are the likely project roots under HOME.
var projectSearchDirs = []string{
	"Desktop", "Documents", "Projects", "Developer",
	"dev", "code", "repos", "workspace", "src",
}

// noiseDirs are never descended into during the deep walk.
var noiseDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
	"venv":         true,
	".venv":        true,
}

// SearchRoots returns the absolute project search roots for home.
func SearchRoots(home string) []string {
	roots := make([]string, 0, len(projectSearchDirs))
	for _, dir := range projectSearchDirs {
		roots = append(roots, filepath.Join(home, dir))
	}
	return roots
}

// ScanDevCaches runs the phase-2 deep walk: the global tool caches, then a
// bounded traversal of the project roots collecting node_modules trees.
func (s *Scanner) ScanDevCaches(ctx context.Context) []model.Item {
	home := s.info.HomeDir
	lib := s.info.LibraryDir
	var items []model.Item

	items = append(items, s.scanDockerOverhead(ctx)...)

	globalCaches := []struct{ name, path, description string }{
		{"NPM Cache (~/.npm)", filepath.Join(home, ".npm"), "Global NPM package cache"},
		{"Python pip Cache", filepath.Join(lib, "Caches", "pip"), "Cached pip package downloads"},
		{"Homebrew Cache", filepath.Join(lib, "Caches", "Homebrew"), "Homebrew downloaded packages and build artifacts"},
		{"Cargo Registry Cache", filepath.Join(home, ".cargo", "registry"), "Rust crate registry cache and source downloads"},
		{"Go Module Cache", platform.GoModCachePath(home), "Go module download cache"},
	}

	for _, cache := range globalCaches {
		if !probe.DirExists(cache.path) || s.excluded(cache.path) {
			continue
		}
		s.tracker.Update(cache.path, 0, 0)
		size := s.sizeDir(cache.path)
		if size <= MinItemSize {
			continue
		}
		it := s.newItem(cache.path, size, model.CategoryDevCache, cache.name, cache.description)
		items = append(items, it)
		s.emitItem(it)
	}

	for _, root := range SearchRoots(home) {
		if !probe.DirExists(root) || s.excluded(root) {
			continue
		}
		s.tracker.Update(root, 0, 0)
		items = append(items, s.walkForNodeModules(root)...)
	}

	s.emitFound(model.CategoryDevCache, "Developer Caches", items)
	return items
}

// walkForNodeModules walks a project root to a bounded depth. Every
// node_modules found as a direct child is sized, reported under its parent
// project's name and pruned; hidden and noise directories are pruned too.
func (s *Scanner) walkForNodeModules(root string) []model.Item {
	var items []model.Item

	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > maxWalkDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.tracker.RecordError(err)
			return
		}

		for _, e := range entries {
			if !e.IsDir() || e.Type()&os.ModeSymlink != 0 {
				continue
			}
			name := e.Name()
			child := filepath.Join(dir, name)

			if name == "node_modules" {
				size := s.sizeDir(child)
				if size > MinItemSize {
					projectName := filepath.Base(dir)
					it := s.newItem(child, size, model.CategoryDevCache,
						fmt.Sprintf("node_modules (%s)", projectName),
						fmt.Sprintf("Node.js dependencies for %s", projectName))
					items = append(items, it)
					s.emitItem(it)
				}
				continue
			}
			if strings.HasPrefix(name, ".") || noiseDirs[name] || s.excluded(child) {
				continue
			}
			walk(child, depth+1)
		}
	}

	walk(root, 0)
	return items
}

// scanDockerOverhead surfaces Docker's reclaimable bytes via `docker system
// df` and the Docker Desktop VM image when present. A missing docker binary
// contributes nothing.
func (s *Scanner) scanDockerOverhead(ctx context.Context) []model.Item {
	var items []model.Item

	if s.info.Tools != nil {
		if out, err := s.info.Tools.Run(ctx, "docker", "system", "df"); err == nil {
			total, reclaimable := platform.ParseDockerDF(out)
			if reclaimable > MinItemSize {
				vm := filepath.Join(s.info.LibraryDir, "Containers", "com.docker.docker", "Data")
				it := s.newItem(vm, reclaimable, model.CategoryDevCache,
					"Docker Environment",
					fmt.Sprintf("Reclaimable images, containers and volumes (%s in use). Run `docker system prune` to free them.",
						humanize.IBytes(uint64(total))))
				items = append(items, it)
				s.emitItem(it)
				return items
			}
		}
	}

	// No usable df output: fall back to the VM disk image size.
	dockerVM := filepath.Join(s.info.LibraryDir, "Containers", "com.docker.docker", "Data")
	if probe.DirExists(dockerVM) && !s.excluded(dockerVM) {
		s.tracker.Update(dockerVM, 0, 0)
		if size := s.sizeDir(dockerVM); size > MinItemSize {
			it := s.newItem(dockerVM, size, model.CategoryDevCache,
				"Docker Desktop Data",
				"Docker Desktop VM disk image, containers, volumes, and build cache")
			items = append(items, it)
			s.emitItem(it)
		}
	}
	return items
}

// ScanGeneralCaches sweeps the leftover ~/Library/Caches entries not already
// covered by a specific scanner. Only caches above 5 MB are worth a row.
func (s *Scanner) ScanGeneralCaches() []model.Item {
	cachesRoot := filepath.Join(s.info.LibraryDir, "Caches")
	var items []model.Item

	alreadyScanned := []string{
		"com.spotify.client", "com.apple.Safari", "com.apple.Safari.SafeBrowsing",
		"Adobe", "pip", "Homebrew", "com.apple.dt.Xcode",
		"com.google.Chrome", "com.microsoft.Edge", "com.brave.Browser",
	}

	entries, err := os.ReadDir(cachesRoot)
	if err != nil {
		return items
	}

	const reportFloor = 5 * 1024 * 1024

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		skip := false
		for _, prefix := range alreadyScanned {
			if name == prefix || strings.HasPrefix(name, prefix) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		path := filepath.Join(cachesRoot, name)
		if s.excluded(path) {
			continue
		}
		s.tracker.Update(path, 0, 0)
		size := s.sizeDir(path)
		if size <= reportFloor {
			continue
		}
		it := s.newItem(path, size, model.CategoryGeneralCache,
			fmt.Sprintf("Cache: %s", name),
			fmt.Sprintf("Application cache for %s", name))
		items = append(items, it)
		s.emitItem(it)
	}

	s.emitFound(model.CategoryGeneralCache, "Other Application Caches", items)
	return items
}
