package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/probe"
)

// projectMarkers identify a directory as a development project.
var projectMarkers = []string{
	".git", "package.json", "Cargo.toml", "go.mod", "setup.py",
	"pyproject.toml", "Gemfile", "Makefile", "CMakeLists.txt",
	"pom.xml", "build.gradle", ".xcodeproj",
}

// cleanableArtifacts names the build-output directories a stale project can
// shed, with their display descriptions.
var cleanableArtifacts = []struct{ name, description string }{
	{"node_modules", "Node.js dependencies"},
	{".venv", "Python virtual environment"},
	{"venv", "Python virtual environment"},
	{"__pycache__", "Python bytecode cache"},
	{"target", "Rust/Java build output"},
	{"build", "Build output"},
	{"dist", "Distribution artifacts"},
	{".next", "Next.js build cache"},
	{".nuxt", "Nuxt build cache"},
	{".cache", "Tool cache"},
	{"coverage", "Coverage reports"},
	{".tox", "Tox environments"},
	{".gradle", "Gradle caches"},
	{"Pods", "CocoaPods dependencies"},
	{"DerivedData", "Xcode build artifacts"},
	{".dart_tool", "Dart tool cache"},
}

// artifactReportFloor is the minimum artifact size worth listing.
const artifactReportFloor = 1 << 20

// DetectStaleProjects scans the direct children of each search root for
// project directories whose most recent activity is past the staleness
// threshold, and enumerates their cleanable artifacts.
func (s *Scanner) DetectStaleProjects() []model.StaleProject {
	var projects []model.StaleProject

	for _, root := range SearchRoots(s.info.HomeDir) {
		if !probe.DirExists(root) || s.excluded(root) {
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			s.tracker.RecordError(err)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(root, e.Name())
			if s.excluded(path) {
				continue
			}
			s.tracker.Update(path, 0, 0)
			if project, ok := s.inspectProject(path); ok {
				projects = append(projects, project)
			}
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ReclaimableBytes > projects[j].ReclaimableBytes
	})
	return projects
}

// inspectProject checks one candidate directory for markers and staleness.
func (s *Scanner) inspectProject(path string) (model.StaleProject, bool) {
	var markers []string
	for _, marker := range projectMarkers {
		if _, err := os.Lstat(filepath.Join(path, marker)); err == nil {
			markers = append(markers, marker)
		}
	}
	if len(markers) == 0 {
		return model.StaleProject{}, false
	}

	mostRecent := mostRecentActivity(path)
	if mostRecent.IsZero() {
		return model.StaleProject{}, false
	}

	daysStale := int(time.Since(mostRecent).Hours() / 24)
	if daysStale < s.opts.StaleAgeDays {
		return model.StaleProject{}, false
	}

	var artifacts []model.ArtifactDir
	var reclaimable int64
	for _, artifact := range cleanableArtifacts {
		artifactPath := filepath.Join(path, artifact.name)
		if !probe.DirExists(artifactPath) {
			continue
		}
		size := s.sizeDir(artifactPath)
		if size < artifactReportFloor {
			continue
		}
		artifacts = append(artifacts, model.ArtifactDir{
			Name:        artifact.name,
			Path:        artifactPath,
			Description: artifact.description,
			Size:        size,
		})
		reclaimable += size
	}

	return model.StaleProject{
		Path:             path,
		Basename:         filepath.Base(path),
		Markers:          markers,
		MostRecentAccess: mostRecent,
		DaysStale:        daysStale,
		Artifacts:        artifacts,
		ReclaimableBytes: reclaimable,
	}, true
}

// mostRecentActivity returns the newest access or modification time across
// a directory's immediate children.
func mostRecentActivity(path string) time.Time {
	entries, err := os.ReadDir(path)
	if err != nil {
		return time.Time{}
	}

	var most time.Time
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mt := info.ModTime(); mt.After(most) {
			most = mt
		}
		if at := platform.AccessTime(info); at.After(most) {
			most = at
		}
	}
	return most
}
