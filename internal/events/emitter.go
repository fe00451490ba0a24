// Package events serializes typed scan events to a line-delimited JSON
// stream. The emitter is the sole writer of the output stream; every write is
// serialized through a single lock and flushed immediately so consumers see
// events as they happen.
package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/fenilsonani/storage-intel/internal/model"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

// Event discriminator values carried in the "event" field.
const (
	EventProgress      = "progress"
	EventItem          = "item"
	EventBatch         = "batch"
	EventFound         = "found"
	EventWarning       = "warning"
	EventAgentStatus   = "agent_status"
	EventInsight       = "insight"
	EventSwarmInit     = "swarm_init"
	EventSwarmPhase    = "swarm_phase"
	EventDaemonStarted = "daemon_started"
	EventDaemonStopped = "daemon_stopped"
	EventComplete      = "complete"
	EventError         = "error"
)

// Emitter writes one JSON object per line and flushes after every write.
// Safe for concurrent use from multiple goroutines.
type Emitter struct {
	mu   sync.Mutex
	w    *bufio.Writer
	exit func(code int)
}

// NewEmitter creates an Emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:    bufio.NewWriter(w),
		exit: os.Exit,
	}
}

// SetExitFunc overrides the process-exit hook used on broken pipe.
func (e *Emitter) SetExitFunc(f func(code int)) {
	e.exit = f
}

// Emit writes one event object as a single JSON line. The map must carry the
// "event" discriminator. Item events get camelCase aliases injected for the
// three fields the UI boundary reads under different names.
func (e *Emitter) Emit(fields map[string]any) {
	if fields["event"] == EventItem {
		addItemAliases(fields)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(append(data, '\n')); err != nil {
		e.handleWriteError(err)
		return
	}
	if err := e.w.Flush(); err != nil {
		e.handleWriteError(err)
	}
}

// handleWriteError treats a closed consumer as normal termination: the
// consumer's absence is not an error, from any goroutine.
func (e *Emitter) handleWriteError(err error) {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
		e.exit(0)
	}
}

// addItemAliases injects the camelCase aliases the desktop UI reads.
func addItemAliases(fields map[string]any) {
	if v, ok := fields["size"]; ok {
		if _, exists := fields["sizeBytes"]; !exists {
			fields["sizeBytes"] = v
		}
	}
	if v, ok := fields["size_formatted"]; ok {
		if _, exists := fields["sizeFormatted"]; !exists {
			fields["sizeFormatted"] = v
		}
	}
	if v, ok := fields["last_accessed"]; ok {
		if _, exists := fields["lastUsed"]; !exists {
			fields["lastUsed"] = v
		}
	}
}

// ItemFields flattens an Item into the wire representation used by item
// events and batch payloads.
func ItemFields(it model.Item) map[string]any {
	return map[string]any{
		"path":           it.Path,
		"size":           it.Size,
		"size_formatted": it.SizeFormatted,
		"last_accessed":  it.LastAccessed,
		"risk":           string(it.Risk),
		"category":       string(it.Category),
		"name":           it.Name,
		"description":    it.Description,
	}
}

// Item emits one discovered item.
func (e *Emitter) Item(it model.Item) {
	fields := ItemFields(it)
	fields["event"] = EventItem
	e.Emit(fields)
}

// Found emits a category-completion summary. Item events for the category
// always precede it.
func (e *Emitter) Found(category model.Category, name string, count int, totalBytes int64) {
	e.Emit(map[string]any{
		"event":           EventFound,
		"category":        string(category),
		"name":            name,
		"count":           count,
		"total_bytes":     totalBytes,
		"total_formatted": utils.FormatBytes(totalBytes),
	})
}

// Warning emits a one-off warning event of the given kind.
func (e *Emitter) Warning(kind string, extra map[string]any) {
	fields := map[string]any{
		"event": EventWarning,
		"kind":  kind,
	}
	for k, v := range extra {
		fields[k] = v
	}
	e.Emit(fields)
}

// Error emits a terminal error event. The process still exits 0; the consumer
// reads the condition from the event.
func (e *Emitter) Error(message string) {
	e.Emit(map[string]any{
		"event":   EventError,
		"message": message,
	})
}
