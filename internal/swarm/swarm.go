package swarm

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/storage-intel/internal/classify"
	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/progress"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

// workersPerPhase bounds each phase's pool.
const workersPerPhase = 4

// minItemSize mirrors the engine-wide reporting floor.
const minItemSize = model.MinItemSize

// deepTarget is a complex directory an explorer hands to the analyzers.
type deepTarget struct {
	kind string // "dev_project" or "git_repo"
	path string
}

// Coordinator drives the explorer and analyzer pools.
type Coordinator struct {
	info    *platform.Info
	batcher *Batcher
	tracker *progress.Tracker

	// ownNodeModules is the real path of this process's bundled
	// node_modules; both phases hard-exclude it.
	ownNodeModules string
}

// New creates a Coordinator. The process's own install directory is
// resolved once so workers can refuse to walk into it.
func New(info *platform.Info, em *events.Emitter, tr *progress.Tracker) *Coordinator {
	c := &Coordinator{
		info:    info,
		batcher: NewBatcher(em),
		tracker: tr,
	}
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(filepath.Dir(exe)); err == nil {
			c.ownNodeModules = filepath.Join(real, "node_modules")
		}
	}
	return c
}

// SetOwnNodeModules overrides the self-exclusion path. Test hook.
func (c *Coordinator) SetOwnNodeModules(path string) {
	c.ownNodeModules = path
}

// defaultRoots are the starting points when no target path is given.
func (c *Coordinator) defaultRoots() []string {
	home := c.info.HomeDir
	return []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Downloads"),
		filepath.Join(c.info.LibraryDir, "Caches"),
		filepath.Join(c.info.LibraryDir, "Application Support"),
		filepath.Join(home, ".npm"),
	}
}

// Deploy runs the two swarm phases and returns every discovered item. The
// caller embeds the result in the terminal event.
func (c *Coordinator) Deploy(ctx context.Context, targetPath string) ([]model.Item, error) {
	c.tracker.SetPhase("swarm_scanning")

	roots := c.defaultRoots()
	if targetPath != "" {
		roots = []string{targetPath}
	}

	c.batcher.Emit(map[string]any{
		"event":   events.EventSwarmInit,
		"message": "Deploying Explorer Agents...",
	})

	var mu sync.Mutex
	var allItems []model.Item
	var deepTargets []deepTarget

	// Phase 1: explorers map the territory.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workersPerPhase)
	explorerID := 0
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		explorerID++
		root := root
		agentID := fmt.Sprintf("Exp-%d", explorerID)
		g.Go(func() error {
			items, targets := c.explore(gctx, root, agentID)
			mu.Lock()
			allItems = append(allItems, items...)
			deepTargets = append(deepTargets, targets...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.batcher.Emit(map[string]any{
		"event":   events.EventSwarmPhase,
		"phase":   "Deep Analysis",
		"message": fmt.Sprintf("Found %d complex targets.", len(deepTargets)),
	})

	// Phase 2: analyzers deep-dive the discovered targets.
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workersPerPhase)
	for i, target := range deepTargets {
		target := target
		agentID := fmt.Sprintf("Ana-%d", i+1)
		g.Go(func() error {
			if item, ok := c.analyze(gctx, target, agentID); ok {
				mu.Lock()
				allItems = append(allItems, item)
				mu.Unlock()
				c.tracker.Update(item.Path, 1, item.Size)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.batcher.Flush()
	return allItems, nil
}

// agentStatus reports one worker's state to the UI swarm panel.
func (c *Coordinator) agentStatus(agentID, status, kind string) {
	c.batcher.Emit(map[string]any{
		"event":    events.EventAgentStatus,
		"agent_id": agentID,
		"status":   status,
		"type":     kind,
	})
}

// extensionCategory maps simple file extensions to item categories.
func extensionCategory(name string) model.Category {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".temp", ".cache":
		return model.CategoryGeneralCache
	case ".log", ".out", ".err":
		return model.CategorySystemLogs
	default:
		return model.CategoryOther
	}
}

// explore walks one root sequentially, emitting file items as it goes and
// collecting node_modules and .git directories for the analyzers.
func (c *Coordinator) explore(ctx context.Context, root, agentID string) ([]model.Item, []deepTarget) {
	c.agentStatus(agentID, fmt.Sprintf("Exploring %s", root), "explorer")

	var items []model.Item
	var targets []deepTarget

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			c.tracker.RecordError(err)
			return nil
		}

		if d.IsDir() {
			if c.isOwnNodeModules(path) {
				return fs.SkipDir
			}
			switch d.Name() {
			case "node_modules":
				targets = append(targets, deepTarget{kind: "dev_project", path: path})
				return fs.SkipDir
			case ".git":
				targets = append(targets, deepTarget{kind: "git_repo", path: path})
				return fs.SkipDir
			case ".hg", ".svn", "__pycache__":
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			c.tracker.RecordError(err)
			return nil
		}
		if info.Size() <= minItemSize {
			return nil
		}

		category := extensionCategory(d.Name())
		if category == model.CategoryOther {
			return nil
		}

		it := model.Item{
			Path:          path,
			Size:          info.Size(),
			SizeFormatted: utils.FormatBytes(info.Size()),
			LastAccessed:  platform.AccessTime(info).Format("2006-01-02 15:04:05"),
			Risk:          classify.Risk(path),
			Category:      category,
			Name:          d.Name(),
			Description:   "Discovered by Explorer Agent",
		}
		items = append(items, it)
		c.tracker.Update(path, 1, info.Size())
		c.batcher.AddItem(it)
		return nil
	})

	c.agentStatus(agentID, "Finished exploring", "explorer")
	return items, targets
}

// isOwnNodeModules guards against the scanner walking its own install.
func (c *Coordinator) isOwnNodeModules(path string) bool {
	if c.ownNodeModules == "" {
		return false
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}
	return real == c.ownNodeModules || strings.HasPrefix(real, c.ownNodeModules+string(os.PathSeparator))
}

// analyze deep-dives one target: exact recursive size plus staleness from
// the oldest access time in the tree.
func (c *Coordinator) analyze(ctx context.Context, target deepTarget, agentID string) (model.Item, bool) {
	c.agentStatus(agentID, fmt.Sprintf("Deep analyzing %s", filepath.Base(target.path)), "analyzer")
	defer c.agentStatus(agentID, "Idle", "analyzer")

	var size int64
	oldestAccess := time.Now()

	filepath.WalkDir(target.path, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			c.tracker.RecordError(err)
			return nil
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		if at := platform.AccessTime(info); !at.IsZero() && at.Before(oldestAccess) {
			oldestAccess = at
		}
		return nil
	})

	if size <= minItemSize {
		return model.Item{}, false
	}

	staleDays := int(time.Since(oldestAccess).Hours() / 24)
	if staleDays < 0 {
		staleDays = 0
	}

	projectName := filepath.Base(target.path)
	if target.kind == "dev_project" {
		projectName = filepath.Base(filepath.Dir(target.path))
	}

	it := model.Item{
		Path:          target.path,
		Size:          size,
		SizeFormatted: utils.FormatBytes(size),
		LastAccessed:  oldestAccess.Format("2006-01-02 15:04:05"),
		Risk:          classify.Risk(target.path),
		Category:      model.CategoryDevCache,
		Name:          fmt.Sprintf("%s (%s)", projectName, target.kind),
		Description:   fmt.Sprintf("Analyzed by %s. Stale for ~%d days.", agentID, staleDays),
	}
	c.batcher.AddItem(it)

	// Very stale, sizable targets earn an insight for the UI.
	if staleDays > 30 && size > 10<<20 {
		c.batcher.Emit(map[string]any{
			"event":                 events.EventInsight,
			"type":                  "stale_project",
			"project_name":          projectName,
			"days_stale":            staleDays,
			"reclaimable_bytes":     size,
			"reclaimable_formatted": utils.FormatBytes(size),
			"path":                  target.path,
		})
	}
	return it, true
}
