package recommend

import (
	"testing"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
)

func safeItem(path string, size int64) model.Item {
	return model.Item{
		Path: path, Size: size, Risk: model.RiskSafe,
		Category: model.CategoryGeneralCache, Name: path,
	}
}

func roomyDisk() platform.DiskUsage {
	return platform.DiskUsage{Total: 1 << 40, Used: 1 << 39, Free: 1 << 39}
}

func TestUrgentWhenDiskNearlyFull(t *testing.T) {
	disk := platform.DiskUsage{Total: 100 << 30, Used: 95 << 30, Free: 5 << 30}
	items := []model.Item{
		safeItem("/a", 10<<20),
		{Path: "/b", Size: 1 << 30, Risk: model.RiskCaution},
	}

	recs := Build(items, nil, disk)
	if len(recs) == 0 {
		t.Fatal("no recommendations")
	}
	first := recs[0]
	if first.Category != model.RecUrgent {
		t.Errorf("first category = %q, want urgent", first.Category)
	}
	if first.Confidence != 1.0 {
		t.Errorf("urgent confidence = %v, want 1.0", first.Confidence)
	}
	if len(first.TargetPaths) != 1 || first.TargetPaths[0] != "/a" {
		t.Errorf("urgent must target only safe items, got %v", first.TargetPaths)
	}
}

func TestNoUrgentWithRoom(t *testing.T) {
	recs := Build([]model.Item{safeItem("/a", 10 << 20)}, nil, roomyDisk())
	for _, r := range recs {
		if r.Category == model.RecUrgent {
			t.Error("urgent emitted with plenty of free space")
		}
	}
}

func TestQuickWins(t *testing.T) {
	items := []model.Item{
		safeItem("/big", 600<<20),
		safeItem("/small", 100<<20),
		{Path: "/big-caution", Size: 700 << 20, Risk: model.RiskCaution},
	}

	recs := Build(items, nil, roomyDisk())
	var quick []model.Recommendation
	for _, r := range recs {
		if r.Category == model.RecQuickWins {
			quick = append(quick, r)
		}
	}
	if len(quick) != 1 {
		t.Fatalf("expected 1 quick win, got %d", len(quick))
	}
	if quick[0].TargetPaths[0] != "/big" || quick[0].Confidence != 0.95 {
		t.Errorf("unexpected quick win: %+v", quick[0])
	}
}

func TestDevCleanupScenario(t *testing.T) {
	project := model.StaleProject{
		Path:      "/Users/t/Projects/proj",
		Basename:  "proj",
		Markers:   []string{".git"},
		DaysStale: 120,
		Artifacts: []model.ArtifactDir{{
			Name: "node_modules",
			Path: "/Users/t/Projects/proj/node_modules",
			Size: 200 << 20,
		}},
		ReclaimableBytes: 200 << 20,
	}

	recs := Build(nil, []model.StaleProject{project}, roomyDisk())
	if len(recs) != 1 {
		t.Fatalf("expected exactly 1 recommendation, got %d", len(recs))
	}
	r := recs[0]
	if r.Category != model.RecDevCleanup {
		t.Errorf("category = %q", r.Category)
	}
	if r.Title != "Clean stale project: proj" {
		t.Errorf("title = %q", r.Title)
	}
	if r.ImpactBytes != 200<<20 {
		t.Errorf("impact = %d, want 200 MiB", r.ImpactBytes)
	}
	if r.Confidence != 0.85 {
		t.Errorf("confidence = %v", r.Confidence)
	}
}

func TestDevCleanupFloor(t *testing.T) {
	small := model.StaleProject{
		Basename: "tiny", DaysStale: 200,
		Artifacts:        []model.ArtifactDir{{Name: "dist", Path: "/p/dist", Size: 10 << 20}},
		ReclaimableBytes: 10 << 20,
	}
	if recs := Build(nil, []model.StaleProject{small}, roomyDisk()); len(recs) != 0 {
		t.Errorf("project under the floor produced %v", recs)
	}
}

func TestMaintenanceBatch(t *testing.T) {
	items := []model.Item{
		safeItem("/c1", 60<<20),
		safeItem("/c2", 70<<20), // together 130 MiB > floor
		{Path: "/d1", Size: 30 << 20, Risk: model.RiskSafe, Category: model.CategoryDevCache},
	}

	recs := Build(items, nil, roomyDisk())
	var maint []model.Recommendation
	for _, r := range recs {
		if r.Category == model.RecMaintenance {
			maint = append(maint, r)
		}
	}
	if len(maint) != 1 {
		t.Fatalf("expected 1 maintenance batch, got %d", len(maint))
	}
	if maint[0].ImpactBytes != 130<<20 || len(maint[0].TargetPaths) != 2 {
		t.Errorf("unexpected batch: %+v", maint[0])
	}
}

func TestOrderingAndStableIDs(t *testing.T) {
	items := []model.Item{
		safeItem("/huge", 900 << 20),
		safeItem("/big", 600 << 20),
	}
	project := model.StaleProject{
		Basename: "p", DaysStale: 100,
		Artifacts:        []model.ArtifactDir{{Name: "target", Path: "/p/target", Size: 100 << 20}},
		ReclaimableBytes: 100 << 20,
	}

	a := Build(items, []model.StaleProject{project}, roomyDisk())
	b := Build(items, []model.StaleProject{project}, roomyDisk())

	if len(a) != len(b) {
		t.Fatal("non-deterministic recommendation count")
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("unstable id at %d: %q vs %q", i, a[i].ID, b[i].ID)
		}
	}

	// quick_wins sort before dev_cleanup; within a category larger impact
	// sorts first.
	if a[0].Category != model.RecQuickWins || a[0].ImpactBytes != 900<<20 {
		t.Errorf("first rec = %+v", a[0])
	}
	if a[len(a)-1].Category != model.RecDevCleanup {
		t.Errorf("last rec = %+v", a[len(a)-1])
	}
}
