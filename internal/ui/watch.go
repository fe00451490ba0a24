// Package ui renders a live terminal view of the scanner's event stream.
// It is a consumer of the line-delimited JSON contract, typically fed by
// piping `storageintel scan` into `storageintel watch`.
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// EventMsg is one decoded event line delivered to the model.
type EventMsg map[string]any

// StreamClosedMsg signals the input stream ended.
type StreamClosedMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	doneStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	riskStyles    = map[string]lipgloss.Style{
		"safe":     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"caution":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"critical": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// topItem is one row of the largest-items panel.
type topItem struct {
	name string
	size int64
	risk string
}

// Model is the watch-view state.
type Model struct {
	spinner spinner.Model

	phase       string
	currentPath string
	files       int64
	bytes       int64
	rateMBps    float64

	foundLines []string
	topItems   []topItem
	warnings   []string

	complete   bool
	totalBytes int64
	totalItems int64
	duration   float64

	streamDone bool
}

// NewModel creates the watch model.
func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	return Model{spinner: sp, phase: "starting"}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles stream events and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StreamClosedMsg:
		m.streamDone = true
		if m.complete {
			return m, tea.Quit
		}
		return m, nil
	case EventMsg:
		return m.applyEvent(msg), nil
	}
	return m, nil
}

// applyEvent folds one event into the view state.
func (m Model) applyEvent(ev EventMsg) Model {
	switch ev["event"] {
	case "progress":
		if v, ok := ev["phase"].(string); ok {
			m.phase = v
		}
		if v, ok := ev["current_path"].(string); ok && v != "" {
			m.currentPath = v
		}
		if v, ok := ev["files_processed"].(float64); ok {
			m.files = int64(v)
		}
		if v, ok := ev["bytes_scanned"].(float64); ok {
			m.bytes = int64(v)
		}
		if v, ok := ev["rate_mbps"].(float64); ok {
			m.rateMBps = v
		}
	case "item":
		m = m.addItem(ev)
	case "batch":
		if items, ok := ev["items"].([]any); ok {
			for _, raw := range items {
				if fields, ok := raw.(map[string]any); ok {
					m = m.addItem(fields)
				}
			}
		}
	case "found":
		name, _ := ev["name"].(string)
		formatted, _ := ev["total_formatted"].(string)
		count, _ := ev["count"].(float64)
		m.foundLines = append(m.foundLines,
			fmt.Sprintf("%s %s (%d items)", categoryStyle.Render(name), formatted, int(count)))
	case "warning":
		if kind, ok := ev["kind"].(string); ok {
			m.warnings = append(m.warnings, kind)
		}
	case "complete":
		m.complete = true
		if v, ok := ev["total_bytes"].(float64); ok {
			m.totalBytes = int64(v)
		}
		if v, ok := ev["total_items"].(float64); ok {
			m.totalItems = int64(v)
		}
		if v, ok := ev["duration"].(float64); ok {
			m.duration = v
		}
	}
	return m
}

// addItem tracks the ten largest items seen so far.
func (m Model) addItem(fields map[string]any) Model {
	size, _ := fields["size"].(float64)
	name, _ := fields["name"].(string)
	risk, _ := fields["risk"].(string)

	m.topItems = append(m.topItems, topItem{name: name, size: int64(size), risk: risk})
	sort.Slice(m.topItems, func(i, j int) bool { return m.topItems[i].size > m.topItems[j].size })
	if len(m.topItems) > 10 {
		m.topItems = m.topItems[:10]
	}
	return m
}

// View renders the current state.
func (m Model) View() string {
	var b strings.Builder

	if m.complete {
		b.WriteString(doneStyle.Render("Scan complete"))
		b.WriteString(fmt.Sprintf("  %s reclaimable across %d items in %.1fs\n\n",
			humanize.IBytes(uint64(m.totalBytes)), m.totalItems, m.duration))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), titleStyle.Render("Scanning ("+m.phase+")")))
		b.WriteString(pathStyle.Render(truncate(m.currentPath, 70)) + "\n")
		b.WriteString(statStyle.Render(fmt.Sprintf("%d files  %s  %.1f MB/s\n",
			m.files, humanize.IBytes(uint64(m.bytes)), m.rateMBps)))
	}

	for _, warning := range m.warnings {
		b.WriteString(warnStyle.Render("warning: "+warning) + "\n")
	}

	if len(m.foundLines) > 0 {
		b.WriteString("\n")
		for _, line := range m.foundLines {
			b.WriteString("  " + line + "\n")
		}
	}

	if len(m.topItems) > 0 {
		b.WriteString("\n" + titleStyle.Render("Largest items") + "\n")
		for _, it := range m.topItems {
			style, ok := riskStyles[it.risk]
			if !ok {
				style = statStyle
			}
			b.WriteString(fmt.Sprintf("  %10s  %s %s\n",
				humanize.IBytes(uint64(it.size)), truncate(it.name, 50), style.Render("["+it.risk+"]")))
		}
	}

	if m.complete {
		b.WriteString("\n" + pathStyle.Render("press q to quit") + "\n")
	}
	return b.String()
}

// truncate shortens s to its last max runes behind a leading ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return "…" + string(runes[len(runes)-max:])
}
