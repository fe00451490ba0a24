package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilsonani/storage-intel/internal/config"
	"github.com/fenilsonani/storage-intel/internal/events"
)

func testLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger("", "info")
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestDaemonRunsScanThenStops(t *testing.T) {
	var buf bytes.Buffer
	em := events.NewEmitter(&buf)

	var scans int32
	d := New(time.Hour, em, testLogger(t), nil, func(ctx context.Context) (int64, error) {
		atomic.AddInt32(&scans, 1)
		return 42, nil
	})

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	// Give the first scan cycle time to complete, then stop.
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	if atomic.LoadInt32(&scans) != 1 {
		t.Errorf("scan cycles = %d, want 1", scans)
	}

	var sawStarted, sawStopped bool
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var ev map[string]any
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatal(err)
		}
		switch ev["event"] {
		case "daemon_started":
			sawStarted = true
		case "daemon_stopped":
			if !sawStarted {
				t.Error("daemon_stopped before daemon_started")
			}
			sawStopped = true
		}
	}
	if !sawStarted || !sawStopped {
		t.Errorf("lifecycle events missing: started=%v stopped=%v", sawStarted, sawStopped)
	}
}

func TestDaemonStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	em := events.NewEmitter(&buf)
	ctx, cancel := context.WithCancel(context.Background())

	d := New(time.Hour, em, testLogger(t), nil, func(ctx context.Context) (int64, error) {
		return 0, nil
	})

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("daemon ignored context cancellation")
	}
}

func TestNotifierWebhook(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	cfg := &config.NotificationConfig{
		Enabled:   true,
		OnSuccess: true,
		Webhook:   config.WebhookConfig{URL: srv.URL},
	}
	n := NewNotifier(cfg, testLogger(t))
	n.SendScanNotification(5<<30, 90*time.Second, nil)

	if got["type"] != "scan_success" {
		t.Errorf("webhook type = %v", got["type"])
	}
	if got["title"] != "Storage Scan Completed" {
		t.Errorf("webhook title = %v", got["title"])
	}
}

func TestLoggerLevelGating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	l, err := NewLogger(path, "warn")
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("dropped debug")
	l.Info("dropped info")
	l.Warn("kept warn")
	l.Error("kept error %d", 7)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "[DEBUG]") || strings.Contains(out, "[INFO]") {
		t.Errorf("below-threshold lines leaked: %s", out)
	}
	if !strings.Contains(out, "[WARN] kept warn") || !strings.Contains(out, "[ERROR] kept error 7") {
		t.Errorf("threshold lines missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"nonsense", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNotifierRespectsEnableFlags(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	cfg := &config.NotificationConfig{
		Enabled:   true,
		OnSuccess: false, // success notifications suppressed
		Webhook:   config.WebhookConfig{URL: srv.URL},
	}
	n := NewNotifier(cfg, testLogger(t))
	n.SendScanNotification(1<<20, time.Second, nil)

	if hits != 0 {
		t.Errorf("suppressed notification was sent %d times", hits)
	}
}
