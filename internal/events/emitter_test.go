package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/fenilsonani/storage-intel/internal/model"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestItemAliases(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Item(model.Item{
		Path:          "/Users/t/.npm",
		Size:          3000000,
		SizeFormatted: "2.86 MB",
		LastAccessed:  "2026-01-01 12:00:00",
		Risk:          model.RiskSafe,
		Category:      model.CategoryDevCache,
		Name:          "NPM Cache (~/.npm)",
		Description:   "Global NPM package cache",
	})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	ev := lines[0]

	if ev["event"] != "item" {
		t.Errorf("event = %v, want item", ev["event"])
	}
	if ev["sizeBytes"] != float64(3000000) {
		t.Errorf("sizeBytes alias = %v", ev["sizeBytes"])
	}
	if ev["sizeFormatted"] != "2.86 MB" {
		t.Errorf("sizeFormatted alias = %v", ev["sizeFormatted"])
	}
	if ev["lastUsed"] != "2026-01-01 12:00:00" {
		t.Errorf("lastUsed alias = %v", ev["lastUsed"])
	}
	// Original snake_case fields are preserved alongside the aliases.
	if ev["size"] != float64(3000000) || ev["size_formatted"] != "2.86 MB" {
		t.Error("snake_case fields missing from item event")
	}
}

func TestFoundEvent(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Found(model.CategoryBrowserCache, "Browser Caches", 3, 4096)

	lines := decodeLines(t, &buf)
	ev := lines[0]
	if ev["event"] != "found" || ev["category"] != "browser_cache" {
		t.Errorf("unexpected found event: %v", ev)
	}
	if ev["count"] != float64(3) || ev["total_bytes"] != float64(4096) {
		t.Errorf("found totals wrong: %v", ev)
	}
	if ev["total_formatted"] != "4.00 KB" {
		t.Errorf("total_formatted = %v", ev["total_formatted"])
	}
}

func TestConcurrentEmitsStayLineDelimited(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Emit(map[string]any{"event": "progress", "files": j})
			}
		}()
	}
	wg.Wait()

	lines := decodeLines(t, &buf)
	if len(lines) != 400 {
		t.Fatalf("expected 400 intact JSON lines, got %d", len(lines))
	}
}

type failWriter struct{ err error }

func (f failWriter) Write(p []byte) (int, error) { return 0, f.err }

func TestBrokenPipeExitsZero(t *testing.T) {
	e := NewEmitter(failWriter{err: syscall.EPIPE})
	code := -1
	e.SetExitFunc(func(c int) { code = c })

	e.Emit(map[string]any{"event": "progress"})

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	e.Error("no cached scan available")

	if !strings.Contains(buf.String(), `"event":"error"`) {
		t.Errorf("missing error discriminator: %s", buf.String())
	}
}
