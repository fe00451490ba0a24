// Package scanner implements the phased discovery engine: a fast sweep of
// known cache locations, a bounded deep walk of project directories, a
// full-disk usage map and stale-project detection. Each phase emits items
// onto the event stream as it finds them and contributes to a single growing
// result set.
package scanner

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/fenilsonani/storage-intel/internal/classify"
	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/probe"
	"github.com/fenilsonani/storage-intel/internal/progress"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

// MinItemSize is the reporting floor; only artifacts larger than it are
// reported.
const MinItemSize = model.MinItemSize

// Options tune the discovery pass.
type Options struct {
	// StaleAgeDays is the inactivity threshold for stale-project
	// detection.
	StaleAgeDays int
	// ExcludedRoots are absolute paths no phase descends into.
	ExcludedRoots []string
	// ApplicationsDir is the installed-applications root mapped by the
	// disk mapper.
	ApplicationsDir string
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{StaleAgeDays: 90, ApplicationsDir: "/Applications"}
}

// Scanner coordinates the scan phases.
type Scanner struct {
	info    *platform.Info
	emitter *events.Emitter
	tracker *progress.Tracker
	opts    Options
}

// Result is the accumulated outcome of a full discovery pass.
type Result struct {
	Items         []model.Item
	Tree          []model.DiskCategory
	StaleProjects []model.StaleProject
	HiddenSpace   HiddenSpace
	Disk          platform.DiskUsage
	Duration      time.Duration
}

// HiddenSpace carries the bytes the OS holds outside the visible tree.
type HiddenSpace struct {
	PurgeableBytes   int64    `json:"purgeable_bytes"`
	Snapshots        []string `json:"snapshots"`
	UnaccountedBytes int64    `json:"unaccounted_bytes"`
}

// New creates a Scanner over the given roots.
func New(info *platform.Info, em *events.Emitter, tr *progress.Tracker, opts Options) *Scanner {
	if opts.StaleAgeDays <= 0 {
		opts.StaleAgeDays = DefaultOptions().StaleAgeDays
	}
	if opts.ApplicationsDir == "" {
		opts.ApplicationsDir = DefaultOptions().ApplicationsDir
	}
	return &Scanner{info: info, emitter: em, tracker: tr, opts: opts}
}

// Run executes all four phases in order and returns the combined result.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	s.tracker.SetPhase("fast")
	s.tracker.Update("Initializing scan...", 0, 0)

	// Phase 1: known locations.
	res.Items = append(res.Items, s.ScanBrowserCaches()...)
	res.Items = append(res.Items, s.ScanAppCaches(ctx)...)
	res.Items = append(res.Items, s.ScanSystemLogs()...)
	res.Items = append(res.Items, s.ScanMailAndBackups(ctx)...)

	// Phase 2: deep walk.
	s.tracker.SetPhase("deep")
	s.tracker.Update("Starting deep scan...", 0, 0)
	res.Items = append(res.Items, s.ScanDevCaches(ctx)...)
	res.Items = append(res.Items, s.ScanGeneralCaches()...)

	// Phase 3: full-disk map.
	s.tracker.SetPhase("mapping")
	if du, err := platform.GetDiskUsage("/"); err == nil {
		res.Disk = du
	}
	res.Tree, res.HiddenSpace = s.BuildDiskMap(ctx, res.Disk)

	// Phase 4: stale projects.
	s.tracker.SetPhase("stale_projects")
	res.StaleProjects = s.DetectStaleProjects()

	// Largest first, matching the order consumers display.
	sort.Slice(res.Items, func(i, j int) bool {
		return res.Items[i].Size > res.Items[j].Size
	})

	res.Duration = time.Since(start)
	return res, nil
}

// newItem constructs an immutable Item. Risk always comes from the
// classifier so every item's risk can be re-derived from its path.
func (s *Scanner) newItem(path string, size int64, category model.Category, name, description string) model.Item {
	return model.Item{
		Path:          path,
		Size:          size,
		SizeFormatted: utils.FormatBytes(size),
		LastAccessed:  lastAccessed(path),
		Risk:          classify.Risk(path),
		Category:      category,
		Name:          name,
		Description:   description,
	}
}

// emitItem streams one discovered item and advances the tracker.
func (s *Scanner) emitItem(it model.Item) {
	s.tracker.Update(it.Path, 1, it.Size)
	s.emitter.Item(it)
}

// emitFound streams a category summary once all its items are out.
func (s *Scanner) emitFound(category model.Category, name string, items []model.Item) {
	if len(items) == 0 {
		return
	}
	var total int64
	for _, it := range items {
		total += it.Size
	}
	s.emitter.Found(category, name, len(items), total)
}

// excluded reports whether path falls under a configured exclusion root.
func (s *Scanner) excluded(path string) bool {
	for _, root := range s.opts.ExcludedRoots {
		if path == root || len(path) > len(root) && path[:len(root)] == root && path[len(root)] == os.PathSeparator {
			return true
		}
	}
	return false
}

// sizeDir probes a directory, tolerating every recoverable error.
func (s *Scanner) sizeDir(path string) int64 {
	return probe.Size(path)
}

// lastAccessed formats a path's access time for display. "Unknown" when the
// path cannot be stat'ed.
func lastAccessed(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "Unknown"
	}
	at := platform.AccessTime(fi)
	if at.IsZero() {
		at = fi.ModTime()
	}
	return at.Format("2006-01-02 15:04:05")
}

// CategorySummary is the per-category roll-up embedded in the terminal
// event.
type CategorySummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Count          int    `json:"count"`
	TotalBytes     int64  `json:"total_bytes"`
	TotalFormatted string `json:"total_formatted"`
}

// categoryLabels names the item categories for display.
var categoryLabels = map[model.Category]string{
	model.CategoryBrowserCache: "Browser Caches",
	model.CategoryDevCache:     "Developer Tools",
	model.CategoryAppCache:     "Application Caches",
	model.CategorySystemLogs:   "System Logs",
	model.CategoryMailBackups:  "Mail & Backups",
	model.CategoryGeneralCache: "Other Caches",
}

// SummarizeCategories rolls items up by category, largest first.
func SummarizeCategories(items []model.Item) []CategorySummary {
	type acc struct {
		count int
		total int64
	}
	accs := map[model.Category]*acc{}
	for _, it := range items {
		a := accs[it.Category]
		if a == nil {
			a = &acc{}
			accs[it.Category] = a
		}
		a.count++
		a.total += it.Size
	}

	out := make([]CategorySummary, 0, len(accs))
	for cat, a := range accs {
		name := categoryLabels[cat]
		if name == "" {
			name = string(cat)
		}
		out = append(out, CategorySummary{
			ID:             string(cat),
			Name:           name,
			Count:          a.count,
			TotalBytes:     a.total,
			TotalFormatted: utils.FormatBytes(a.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalBytes > out[j].TotalBytes })
	return out
}
