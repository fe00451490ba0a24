package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fenilsonani/storage-intel/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(when time.Time, totalBytes int64) model.ScanRecord {
	return model.ScanRecord{
		ScanTime: when,
		Items: []model.Item{{
			Path: "/Users/t/.npm", Size: totalBytes,
			Risk: model.RiskSafe, Category: model.CategoryDevCache,
		}},
		Tree:         []model.DiskCategory{{ID: model.DiskCategoryDeveloper, Bytes: totalBytes}},
		Metrics:      model.ScanMetrics{TotalBytes: totalBytes, TotalItems: 1},
		TotalBytes:   totalBytes,
		DurationSecs: 1.5,
		Signature:    `{"algorithm":"Ed25519","signature":"sig"}`,
	}
}

func TestSaveAndLatestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	when := time.Now().Truncate(time.Second)

	if err := s.SaveScan(record(when, 1000)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestScan()
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalBytes != 1000 {
		t.Errorf("total = %d", got.TotalBytes)
	}
	if len(got.Items) != 1 || got.Items[0].Path != "/Users/t/.npm" {
		t.Errorf("items = %+v", got.Items)
	}
	if len(got.Tree) != 1 || got.Tree[0].ID != model.DiskCategoryDeveloper {
		t.Errorf("tree = %+v", got.Tree)
	}
	if got.Signature != `{"algorithm":"Ed25519","signature":"sig"}` {
		t.Errorf("signature = %q", got.Signature)
	}
	if !got.ScanTime.Equal(when) {
		t.Errorf("scan time = %v, want %v", got.ScanTime, when)
	}
}

func TestLatestScanEmpty(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LatestScan(); !errors.Is(err, ErrNoScans) {
		t.Errorf("err = %v, want ErrNoScans", err)
	}
}

func TestEvictionKeepsTenMostRecent(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 13; i++ {
		if err := s.SaveScan(record(base.Add(time.Duration(i)*time.Minute), int64(i))); err != nil {
			t.Fatal(err)
		}
	}

	history, err := s.History(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 10 {
		t.Fatalf("history length = %d, want 10", len(history))
	}
	if history[0].TotalBytes != 12 {
		t.Errorf("newest row total = %d, want 12", history[0].TotalBytes)
	}
	if history[9].TotalBytes != 3 {
		t.Errorf("oldest surviving row total = %d, want 3", history[9].TotalBytes)
	}
}

func TestGrowthPredictionScenario(t *testing.T) {
	s := openTestStore(t)
	day := 24 * time.Hour
	base := time.Now().Add(-2 * day)

	// Two scans 1.0 day apart: 10 GiB then 11 GiB.
	if err := s.SaveScan(record(base, 10<<30)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveScan(record(base.Add(day), 11<<30)); err != nil {
		t.Fatal(err)
	}

	pred, err := s.PredictGrowth(50 << 30)
	if err != nil {
		t.Fatal(err)
	}
	if pred == nil {
		t.Fatal("expected a prediction")
	}
	if pred.SampleCount != 2 {
		t.Errorf("sample count = %d", pred.SampleCount)
	}
	wantRate := float64(int64(1) << 30)
	if diff := pred.RateBytesPerDay - wantRate; diff < -1e6 || diff > 1e6 {
		t.Errorf("rate = %f, want ~%f", pred.RateBytesPerDay, wantRate)
	}
	if pred.DaysUntilFull < 49.9 || pred.DaysUntilFull > 50.1 {
		t.Errorf("days until full = %f, want ~50", pred.DaysUntilFull)
	}
}

func TestNoPredictionWithOneScan(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveScan(record(time.Now(), 10<<30)); err != nil {
		t.Fatal(err)
	}
	pred, err := s.PredictGrowth(50 << 30)
	if err != nil {
		t.Fatal(err)
	}
	if pred != nil {
		t.Errorf("prediction from a single scan: %+v", pred)
	}
}

func TestNoPredictionWhenShrinking(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().Add(-48 * time.Hour)
	s.SaveScan(record(base, 11<<30))
	s.SaveScan(record(base.Add(24*time.Hour), 10<<30))

	pred, err := s.PredictGrowth(50 << 30)
	if err != nil {
		t.Fatal(err)
	}
	if pred != nil {
		t.Errorf("prediction from negative growth: %+v", pred)
	}
}

func TestCheckpointResume(t *testing.T) {
	s := openTestStore(t)
	mtime := 1700000000.5

	if !s.ShouldRescan("/p", mtime) {
		t.Error("unknown path must rescan")
	}
	if err := s.UpdateState("/p", "done", mtime, 4096); err != nil {
		t.Fatal(err)
	}
	if s.ShouldRescan("/p", mtime) {
		t.Error("matching mtime must skip")
	}
	if s.ShouldRescan("/p", mtime+0.005) {
		t.Error("mtime within tolerance must skip")
	}
	if !s.ShouldRescan("/p", mtime+1) {
		t.Error("changed mtime must rescan")
	}
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if v, err := s.GetMeta("missing"); err != nil || v != "" {
		t.Errorf("GetMeta(missing) = %q, %v", v, err)
	}
	if err := s.SetMeta("last_daemon_run", "2026-08-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMeta("last_daemon_run", "2026-08-01T01:00:00Z"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetMeta("last_daemon_run")
	if err != nil || v != "2026-08-01T01:00:00Z" {
		t.Errorf("GetMeta = %q, %v", v, err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Now()
	for i := 0; i < 3; i++ {
		s.SaveScan(record(base.Add(time.Duration(i)*time.Minute), int64(i)))
	}
	history, err := s.History(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].TotalBytes != 2 || history[1].TotalBytes != 1 {
		t.Errorf("history = %v", summarize(history))
	}
}

func summarize(recs []model.ScanRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = fmt.Sprintf("id=%d total=%d", r.ID, r.TotalBytes)
	}
	return out
}
