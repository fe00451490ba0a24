// Package progress aggregates scan counters and emits throttled progress
// frames onto the event stream.
package progress

import (
	"sync"
	"time"

	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/platform"
)

const (
	// EmitInterval is the minimum spacing between progress frames.
	EmitInterval = 100 * time.Millisecond
	// rateSampleWindow is the number of rate samples averaged for the
	// reported throughput.
	rateSampleWindow = 20
	// diskCheckEvery is the item cadence of the free-space check.
	diskCheckEvery = 100
	// diskWarnThreshold is the free-space floor below which a single
	// low_disk_space warning fires.
	diskWarnThreshold = int64(1) << 30 // 1 GiB
)

// Tracker accumulates monotonically increasing scan counters. All methods
// are safe for concurrent use; swarm workers share one tracker.
type Tracker struct {
	mu sync.Mutex

	emitter *events.Emitter
	phase   string

	startTime      time.Time
	lastEmitTime   time.Time
	filesProcessed int
	bytesScanned   int64
	currentDir     string

	rateSamples    []float64
	lastBytes      int64
	lastSampleTime time.Time

	errorCounts map[string]int
	lastError   string

	itemsSinceDiskCheck int
	diskWarned          bool

	now      func() time.Time
	freeDisk func() int64
}

// NewTracker creates a Tracker emitting onto em.
func NewTracker(em *events.Emitter) *Tracker {
	t := &Tracker{
		emitter:     em,
		phase:       "fast",
		errorCounts: map[string]int{},
		now:         time.Now,
		freeDisk: func() int64 {
			du, err := platform.GetDiskUsage("/")
			if err != nil {
				return -1
			}
			return du.Free
		},
	}
	t.startTime = t.now()
	t.lastSampleTime = t.startTime
	return t
}

// SetClock overrides the time source. Test hook.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	t.startTime = now()
	t.lastSampleTime = t.startTime
	t.lastEmitTime = time.Time{}
}

// SetFreeDiskFunc overrides the free-space query. Test hook.
func (t *Tracker) SetFreeDiskFunc(f func() int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freeDisk = f
}

// SetPhase names the scan phase carried on subsequent progress frames.
func (t *Tracker) SetPhase(phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}

// Update advances the counters and emits a progress frame if the throttle
// window has elapsed. Every hundred items it also checks free disk space and
// fires a single low_disk_space warning when the volume runs short.
func (t *Tracker) Update(currentDir string, files int, bytesAdded int64) {
	t.mu.Lock()

	t.currentDir = currentDir
	t.filesProcessed += files
	t.bytesScanned += bytesAdded

	t.itemsSinceDiskCheck += files
	checkDisk := false
	if t.itemsSinceDiskCheck >= diskCheckEvery {
		t.itemsSinceDiskCheck = 0
		checkDisk = !t.diskWarned
	}

	now := t.now()
	emitFrame := now.Sub(t.lastEmitTime) >= EmitInterval
	var frame map[string]any
	if emitFrame {
		frame = t.buildFrameLocked(now)
		t.lastEmitTime = now
	}

	var free int64 = -1
	if checkDisk {
		free = t.freeDisk()
		if free >= 0 && free < diskWarnThreshold {
			t.diskWarned = true
		} else {
			checkDisk = false
		}
	}
	t.mu.Unlock()

	if emitFrame && t.emitter != nil {
		t.emitter.Emit(frame)
	}
	if checkDisk && t.emitter != nil {
		t.emitter.Warning("low_disk_space", map[string]any{
			"free_bytes": free,
			"message":    "Disk space is critically low",
		})
	}
}

// RecordError classifies err, bumps the matching counter and retains the
// message for the next progress frame.
func (t *Tracker) RecordError(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorCounts[CategorizeError(err).String()]++
	t.lastError = err.Error()
}

// buildFrameLocked samples the throughput and assembles a progress frame.
// Caller holds the lock.
func (t *Tracker) buildFrameLocked(now time.Time) map[string]any {
	dt := now.Sub(t.lastSampleTime).Seconds()
	if dt > 0 {
		rate := float64(t.bytesScanned-t.lastBytes) / dt
		t.rateSamples = append(t.rateSamples, rate)
		if len(t.rateSamples) > rateSampleWindow {
			t.rateSamples = t.rateSamples[len(t.rateSamples)-rateSampleWindow:]
		}
		t.lastBytes = t.bytesScanned
		t.lastSampleTime = now
	}

	var avg float64
	if len(t.rateSamples) > 0 {
		for _, r := range t.rateSamples {
			avg += r
		}
		avg /= float64(len(t.rateSamples))
	}
	rateMBps := avg / (1024 * 1024)

	errorCount := 0
	for _, n := range t.errorCounts {
		errorCount += n
	}

	var lastError any
	if t.lastError != "" {
		lastError = t.lastError
	}

	return map[string]any{
		"event":          events.EventProgress,
		"phase":          t.phase,
		"current_path":   t.currentDir,
		"dir":            t.currentDir,
		"files_processed": t.filesProcessed,
		"files":          t.filesProcessed,
		"bytes_scanned":  t.bytesScanned,
		"bytes":          t.bytesScanned,
		"scan_rate_mbps": round2(rateMBps),
		"rate_mbps":      round2(rateMBps),
		"eta_seconds":    -1,
		"elapsed":        round1(now.Sub(t.startTime).Seconds()),
		"error_count":    errorCount,
		"last_error":     lastError,
	}
}

// FilesProcessed returns the running file count.
func (t *Tracker) FilesProcessed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filesProcessed
}

// BytesScanned returns the running byte count.
func (t *Tracker) BytesScanned() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytesScanned
}

// ErrorCounts returns a copy of the error tallies keyed by kind.
func (t *Tracker) ErrorCounts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.errorCounts))
	for k, v := range t.errorCounts {
		out[k] = v
	}
	return out
}

// Elapsed returns the wall time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.startTime)
}

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
func round1(f float64) float64 { return float64(int64(f*10+0.5)) / 10 }
