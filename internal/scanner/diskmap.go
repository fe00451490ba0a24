package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
)

// maxDirsPerCategory caps the per-category directory list; the remainder is
// aggregated into a "more items" tail.
const maxDirsPerCategory = 50

// categoryMeta fixes the display name and color token of each disk bucket.
var categoryMeta = map[model.DiskCategoryID]struct {
	name  string
	color string
}{
	model.DiskCategoryApplications: {"Applications", "#4F8EF7"},
	model.DiskCategoryDeveloper:    {"Developer", "#9B59B6"},
	model.DiskCategoryDocuments:    {"Documents", "#F5A623"},
	model.DiskCategoryMedia:        {"Media", "#E74C3C"},
	model.DiskCategoryPhotos:       {"Photos", "#E91E8C"},
	model.DiskCategoryMailMsgs:     {"Mail Messages", "#16A085"},
	model.DiskCategoryAppData:      {"App Data", "#7F8C8D"},
	model.DiskCategorySystemData:   {"System Data", "#34495E"},
	model.DiskCategoryOther:        {"Other", "#95A5A6"},
	model.DiskCategoryCleanable:    {"Cleanable", "#2ECC71"},
}

// homeNameTable maps well-known top-level HOME directories to buckets.
var homeNameTable = map[string]model.DiskCategoryID{
	"Applications": model.DiskCategoryApplications,
	"Desktop":      model.DiskCategoryDocuments,
	"Documents":    model.DiskCategoryDocuments,
	"Downloads":    model.DiskCategoryDocuments,
	"Movies":       model.DiskCategoryMedia,
	"Music":        model.DiskCategoryMedia,
	"Pictures":     model.DiskCategoryPhotos,
	"Projects":     model.DiskCategoryDeveloper,
	"Developer":    model.DiskCategoryDeveloper,
	"dev":          model.DiskCategoryDeveloper,
	"code":         model.DiskCategoryDeveloper,
	"repos":        model.DiskCategoryDeveloper,
	"workspace":    model.DiskCategoryDeveloper,
	"src":          model.DiskCategoryDeveloper,
	"go":           model.DiskCategoryDeveloper,
	"Public":       model.DiskCategoryOther,
}

// libraryNameTable maps immediate ~/Library children to buckets.
var libraryNameTable = map[string]model.DiskCategoryID{
	"Mail":                model.DiskCategoryMailMsgs,
	"Messages":            model.DiskCategoryMailMsgs,
	"Caches":              model.DiskCategoryCleanable,
	"Logs":                model.DiskCategoryCleanable,
	"Containers":          model.DiskCategoryAppData,
	"Application Support": model.DiskCategoryAppData,
	"Group Containers":    model.DiskCategoryAppData,
	"Developer":           model.DiskCategoryDeveloper,
	"Photos":              model.DiskCategoryPhotos,
}

// projectMarkerFiles trigger the developer fallback rule for unrecognized
// home directories.
var projectMarkerFiles = []string{
	".git", "package.json", "Cargo.toml", "go.mod",
	"setup.py", "Makefile", "CMakeLists.txt",
}

// diskMapBuilder accumulates directory entries per bucket.
type diskMapBuilder struct {
	buckets map[model.DiskCategoryID][]model.DirEntrySize
}

func newDiskMapBuilder() *diskMapBuilder {
	return &diskMapBuilder{buckets: map[model.DiskCategoryID][]model.DirEntrySize{}}
}

func (b *diskMapBuilder) add(id model.DiskCategoryID, path string, size int64) {
	if size <= 0 {
		return
	}
	b.buckets[id] = append(b.buckets[id], model.DirEntrySize{Path: path, Size: size})
}

// build sorts each bucket, truncates to the display cap and rolls the rest
// into the more-items tail.
func (b *diskMapBuilder) build() []model.DiskCategory {
	ids := make([]model.DiskCategoryID, 0, len(b.buckets))
	for id := range b.buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []model.DiskCategory
	for _, id := range ids {
		dirs := b.buckets[id]
		sort.Slice(dirs, func(i, j int) bool { return dirs[i].Size > dirs[j].Size })

		var total int64
		for _, d := range dirs {
			total += d.Size
		}

		cat := model.DiskCategory{
			ID:          id,
			DisplayName: categoryMeta[id].name,
			Color:       categoryMeta[id].color,
			Bytes:       total,
			Count:       len(dirs),
		}
		if len(dirs) > maxDirsPerCategory {
			cat.Dirs = dirs[:maxDirsPerCategory]
			for _, d := range dirs[maxDirsPerCategory:] {
				cat.MoreCount++
				cat.MoreBytes += d.Size
			}
		} else {
			cat.Dirs = dirs
		}
		out = append(out, cat)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bytes > out[j].Bytes })
	return out
}

// BuildDiskMap decomposes the home volume into display categories and
// detects the space the OS hides from the visible tree.
func (s *Scanner) BuildDiskMap(ctx context.Context, disk platform.DiskUsage) ([]model.DiskCategory, HiddenSpace) {
	home := s.info.HomeDir
	builder := newDiskMapBuilder()

	// (a) top-level HOME entries, Library handled separately below.
	if entries, err := os.ReadDir(home); err == nil {
		for _, e := range entries {
			if !e.IsDir() || e.Name() == "Library" {
				continue
			}
			path := filepath.Join(home, e.Name())
			if s.excluded(path) {
				continue
			}
			s.tracker.Update(path, 0, 0)
			size := s.sizeDir(path)
			builder.add(s.homeCategory(e.Name(), path), path, size)
		}
	} else {
		s.tracker.RecordError(err)
	}

	// (b) immediate ~/Library children.
	if entries, err := os.ReadDir(s.info.LibraryDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(s.info.LibraryDir, e.Name())
			if s.excluded(path) {
				continue
			}
			s.tracker.Update(path, 0, 0)
			size := s.sizeDir(path)
			id, ok := libraryNameTable[e.Name()]
			if !ok {
				id = model.DiskCategorySystemData
			}
			builder.add(id, path, size)
		}
	} else {
		s.tracker.RecordError(err)
	}

	// (c) installed applications above the noise floor.
	if entries, err := os.ReadDir(s.opts.ApplicationsDir); err == nil {
		const appFloor = 1 << 20
		for _, e := range entries {
			path := filepath.Join(s.opts.ApplicationsDir, e.Name())
			s.tracker.Update(path, 0, 0)
			size := s.sizeDir(path)
			if size >= appFloor {
				builder.add(model.DiskCategoryApplications, path, size)
			}
		}
	}

	tree := builder.build()

	var mapped int64
	for _, cat := range tree {
		mapped += cat.Bytes
	}

	hidden := s.detectHiddenSpace(ctx, disk, mapped)
	return tree, hidden
}

// homeCategory resolves a top-level home directory's bucket, applying the
// developer fallback when the name table misses but project markers exist.
func (s *Scanner) homeCategory(name, path string) model.DiskCategoryID {
	if id, ok := homeNameTable[name]; ok {
		return id
	}
	for _, marker := range projectMarkerFiles {
		if _, err := os.Lstat(filepath.Join(path, marker)); err == nil {
			return model.DiskCategoryDeveloper
		}
	}
	return model.DiskCategoryOther
}

// detectHiddenSpace queries the OS for purgeable bytes and local snapshots,
// then computes what the map could not attribute.
func (s *Scanner) detectHiddenSpace(ctx context.Context, disk platform.DiskUsage, mapped int64) HiddenSpace {
	var hidden HiddenSpace

	if s.info.Tools != nil {
		if out, err := s.info.Tools.Run(ctx, "diskutil", "info", "/"); err == nil {
			hidden.PurgeableBytes = platform.ParseDiskutilPurgeable(out)
		}
		if out, err := s.info.Tools.Run(ctx, "tmutil", "listlocalsnapshots", "/"); err == nil {
			hidden.Snapshots = platform.ParseTmutilSnapshots(out)
		}
	}

	if disk.Used > mapped {
		hidden.UnaccountedBytes = disk.Used - mapped
	}
	return hidden
}
