package ui

import (
	"strings"
	"testing"
)

func TestApplyProgressEvent(t *testing.T) {
	m := NewModel()
	m = m.applyEvent(EventMsg{
		"event": "progress", "phase": "deep", "current_path": "/Users/t/.npm",
		"files_processed": float64(12), "bytes_scanned": float64(4096), "rate_mbps": 3.5,
	})
	if m.phase != "deep" || m.files != 12 || m.bytes != 4096 {
		t.Errorf("progress not applied: %+v", m)
	}
}

func TestTopItemsBoundedAndSorted(t *testing.T) {
	m := NewModel()
	for i := 1; i <= 15; i++ {
		m = m.addItem(map[string]any{"name": "x", "size": float64(i * 1024), "risk": "safe"})
	}
	if len(m.topItems) != 10 {
		t.Fatalf("top items = %d, want 10", len(m.topItems))
	}
	if m.topItems[0].size != 15*1024 {
		t.Errorf("largest first violated: %d", m.topItems[0].size)
	}
}

func TestBatchEventUnpacksItems(t *testing.T) {
	m := NewModel()
	m = m.applyEvent(EventMsg{
		"event": "batch",
		"items": []any{
			map[string]any{"name": "a", "size": float64(2048), "risk": "safe"},
			map[string]any{"name": "b", "size": float64(1024), "risk": "caution"},
		},
	})
	if len(m.topItems) != 2 {
		t.Errorf("batch items = %d, want 2", len(m.topItems))
	}
}

func TestCompleteView(t *testing.T) {
	m := NewModel()
	m = m.applyEvent(EventMsg{
		"event": "complete", "total_bytes": float64(5 << 30),
		"total_items": float64(12), "duration": 4.2,
	})
	view := m.View()
	if !strings.Contains(view, "Scan complete") {
		t.Errorf("view missing completion banner: %s", view)
	}
}
