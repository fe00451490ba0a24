// Package recommend ranks cleanup actions from the discovered item set and
// stale-project list. Output is ordered by category priority, then impact.
package recommend

import (
	"fmt"
	"sort"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

const (
	// quickWinFloor is the item size above which a lone safe item earns
	// its own recommendation.
	quickWinFloor = 500 << 20
	// devCleanupFloor is the reclaimable size a stale project must carry.
	devCleanupFloor = 50 << 20
	// maintenanceFloor is the grouped size a category batch must reach.
	maintenanceFloor = 100 << 20
	// lowSpaceFraction triggers the urgent recommendation.
	lowSpaceFraction = 0.10
)

// Build assembles the ranked recommendation list.
func Build(items []model.Item, projects []model.StaleProject, disk platform.DiskUsage) []model.Recommendation {
	var recs []model.Recommendation

	recs = append(recs, urgent(items, disk)...)
	recs = append(recs, quickWins(items)...)
	recs = append(recs, devCleanup(projects)...)
	recs = append(recs, maintenance(items)...)

	sort.SliceStable(recs, func(i, j int) bool {
		pi, pj := model.CategoryPriority(recs[i].Category), model.CategoryPriority(recs[j].Category)
		if pi != pj {
			return pi < pj
		}
		return recs[i].ImpactBytes > recs[j].ImpactBytes
	})
	return recs
}

// urgent targets every safe item at once when the disk is nearly full.
func urgent(items []model.Item, disk platform.DiskUsage) []model.Recommendation {
	if disk.Total <= 0 || float64(disk.Free) >= lowSpaceFraction*float64(disk.Total) {
		return nil
	}

	var paths []string
	var impact int64
	for _, it := range items {
		if it.Risk == model.RiskSafe {
			paths = append(paths, it.Path)
			impact += it.Size
		}
	}
	if len(paths) == 0 {
		return nil
	}

	return []model.Recommendation{{
		ID:       utils.ShortHash(paths),
		Title:    "Free up disk space now",
		Description: fmt.Sprintf("Disk is almost full (%s free). Removing all safe items reclaims %s.",
			utils.FormatBytes(disk.Free), utils.FormatBytes(impact)),
		Category:    model.RecUrgent,
		ImpactBytes: impact,
		Confidence:  1.0,
		Risk:        model.RiskSafe,
		TargetPaths: paths,
		ActionType:  "delete",
	}}
}

// quickWins gives every large safe item its own recommendation.
func quickWins(items []model.Item) []model.Recommendation {
	var recs []model.Recommendation
	for _, it := range items {
		if it.Risk != model.RiskSafe || it.Size <= quickWinFloor {
			continue
		}
		recs = append(recs, model.Recommendation{
			ID:          utils.ShortHash([]string{it.Path}),
			Title:       fmt.Sprintf("Clear %s", it.Name),
			Description: fmt.Sprintf("%s is using %s and is safe to remove.", it.Name, it.SizeFormatted),
			Category:    model.RecQuickWins,
			ImpactBytes: it.Size,
			Confidence:  0.95,
			Risk:        it.Risk,
			TargetPaths: []string{it.Path},
			ActionType:  "delete",
		})
	}
	return recs
}

// devCleanup targets the cleanable artifacts of each stale project.
func devCleanup(projects []model.StaleProject) []model.Recommendation {
	var recs []model.Recommendation
	for _, p := range projects {
		if p.ReclaimableBytes <= devCleanupFloor {
			continue
		}
		paths := make([]string, 0, len(p.Artifacts))
		for _, a := range p.Artifacts {
			paths = append(paths, a.Path)
		}
		recs = append(recs, model.Recommendation{
			ID:    utils.ShortHash(paths),
			Title: fmt.Sprintf("Clean stale project: %s", p.Basename),
			Description: fmt.Sprintf("%s has been untouched for %d days; its build artifacts total %s.",
				p.Basename, p.DaysStale, utils.FormatBytes(p.ReclaimableBytes)),
			Category:    model.RecDevCleanup,
			ImpactBytes: p.ReclaimableBytes,
			Confidence:  0.85,
			Risk:        model.RiskSafe,
			TargetPaths: paths,
			ActionType:  "delete",
		})
	}
	return recs
}

// maintenance batches the remaining small safe items by category.
func maintenance(items []model.Item) []model.Recommendation {
	type group struct {
		paths []string
		total int64
	}
	groups := map[model.Category]*group{}
	for _, it := range items {
		if it.Risk != model.RiskSafe || it.Size > quickWinFloor {
			continue
		}
		g := groups[it.Category]
		if g == nil {
			g = &group{}
			groups[it.Category] = g
		}
		g.paths = append(g.paths, it.Path)
		g.total += it.Size
	}

	cats := make([]model.Category, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var recs []model.Recommendation
	for _, cat := range cats {
		g := groups[cat]
		if g.total <= maintenanceFloor {
			continue
		}
		recs = append(recs, model.Recommendation{
			ID:    utils.ShortHash(g.paths),
			Title: fmt.Sprintf("Tidy up %s items", string(cat)),
			Description: fmt.Sprintf("%d safe %s items together use %s.",
				len(g.paths), string(cat), utils.FormatBytes(g.total)),
			Category:    model.RecMaintenance,
			ImpactBytes: g.total,
			Confidence:  0.9,
			Risk:        model.RiskSafe,
			TargetPaths: g.paths,
			ActionType:  "delete",
		})
	}
	return recs
}
