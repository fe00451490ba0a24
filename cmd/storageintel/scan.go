package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/storage-intel/internal/attest"
	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/recommend"
	"github.com/fenilsonani/storage-intel/internal/scanner"
	"github.com/fenilsonani/storage-intel/internal/store"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a full discovery pass, streaming events to stdout",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	_, err = executeScan(cmd.Context(), rt)
	return err
}

// executeScan runs the four scan phases, produces the final artifacts and
// emits the terminal event. It returns the total reclaimable bytes for the
// daemon's cycle log.
func executeScan(ctx context.Context, rt *runtime) (int64, error) {
	scnr := scanner.New(rt.info, rt.emitter, rt.tracker, rt.scanOptions())
	result, err := scnr.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan failed: %w", err)
	}

	recs := recommend.Build(result.Items, result.StaleProjects, result.Disk)

	att, attJSON := signResult(rt, result.Items)

	var totalBytes int64
	for _, it := range result.Items {
		totalBytes += it.Size
	}

	metrics := model.ScanMetrics{
		TotalBytes:   totalBytes,
		TotalItems:   len(result.Items),
		ErrorCounts:  rt.tracker.ErrorCounts(),
		DurationSecs: result.Duration.Seconds(),
	}

	var prediction *model.GrowthPrediction
	if st, err := store.Open(rt.stateDir); err == nil {
		rec := model.ScanRecord{
			ScanTime:     time.Now(),
			Items:        result.Items,
			Tree:         result.Tree,
			Metrics:      metrics,
			TotalBytes:   totalBytes,
			DurationSecs: result.Duration.Seconds(),
			Signature:    attJSON,
		}
		if err := st.SaveScan(rec); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to cache scan: %v\n", err)
		}
		recordCheckpoints(st, result.Items)
		prediction, _ = st.PredictGrowth(result.Disk.Free)
		st.Close()
	} else {
		fmt.Fprintf(os.Stderr, "warning: scan cache unavailable: %v\n", err)
	}

	rt.emitter.Emit(completeEvent(completeArgs{
		cached:        false,
		items:         result.Items,
		tree:          result.Tree,
		hidden:        &result.HiddenSpace,
		staleProjects: result.StaleProjects,
		recs:          recs,
		attestation:   att,
		metrics:       metrics,
		disk:          result.Disk,
		prediction:    prediction,
		duration:      result.Duration.Seconds(),
	}))

	return totalBytes, nil
}

// recordCheckpoints writes each item's current mtime into scan_state so a
// later pass can skip paths whose mtime has not moved.
func recordCheckpoints(st *store.Store, items []model.Item) {
	for _, it := range items {
		fi, err := os.Stat(it.Path)
		if err != nil {
			continue
		}
		mtime := float64(fi.ModTime().UnixNano()) / 1e9
		st.UpdateState(it.Path, "scanned", mtime, it.Size)
	}
}

// signResult attests to the item set. A signing failure degrades to an
// unsigned result rather than aborting the scan.
func signResult(rt *runtime, items []model.Item) (*model.Attestation, string) {
	var algorithm model.SigningAlgorithm
	if rt.cfg.SigningAlgorithm == "hmac" {
		algorithm = model.AlgorithmHMACSHA256
	}

	signer, err := attest.NewSigner(rt.stateDir, algorithm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: signing unavailable: %v\n", err)
		return nil, ""
	}
	att, err := signer.Sign(items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: signing failed: %v\n", err)
		return nil, ""
	}
	data, err := json.Marshal(att)
	if err != nil {
		return &att, ""
	}
	return &att, string(data)
}

// completeArgs carries everything the terminal event embeds.
type completeArgs struct {
	cached        bool
	items         []model.Item
	tree          []model.DiskCategory
	hidden        *scanner.HiddenSpace
	staleProjects []model.StaleProject
	recs          []model.Recommendation
	attestation   *model.Attestation
	metrics       model.ScanMetrics
	disk          platform.DiskUsage
	prediction    *model.GrowthPrediction
	duration      float64
}

// completeEvent assembles the terminal event map.
func completeEvent(a completeArgs) map[string]any {
	items := make([]map[string]any, 0, len(a.items))
	for _, it := range a.items {
		items = append(items, events.ItemFields(it))
	}

	fields := map[string]any{
		"event":           events.EventComplete,
		"cached":          a.cached,
		"total_items":     len(a.items),
		"total_bytes":     a.metrics.TotalBytes,
		"total_formatted": utils.FormatBytes(a.metrics.TotalBytes),
		"items":           items,
		"categories":      scanner.SummarizeCategories(a.items),
		"tree":            a.tree,
		"stale_projects":  a.staleProjects,
		"recommendations": a.recs,
		"metrics":         a.metrics,
		"duration":        a.duration,
		"disk_total":      a.disk.Total,
		"disk_used":       a.disk.Used,
		"disk_free":       a.disk.Free,
	}
	if a.hidden != nil {
		fields["hidden_space"] = a.hidden
	}
	if a.attestation != nil {
		fields["attestation"] = a.attestation
	}
	if a.prediction != nil {
		fields["prediction"] = a.prediction
	}
	return fields
}
