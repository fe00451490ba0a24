package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/storage-intel/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a scan's event stream as a live terminal view",
	Long: `Reads line-delimited JSON events from stdin and renders them live.
Pipe a scan into it:

  storageintel scan | storageintel watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		program := tea.NewProgram(ui.NewModel(), tea.WithOutput(os.Stderr))

		go func() {
			sc := bufio.NewScanner(os.Stdin)
			sc.Buffer(make([]byte, 1<<20), 64<<20)
			for sc.Scan() {
				var ev ui.EventMsg
				if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
					continue
				}
				program.Send(ev)
			}
			program.Send(ui.StreamClosedMsg{})
		}()

		if _, err := program.Run(); err != nil {
			return fmt.Errorf("watch view failed: %w", err)
		}
		return nil
	},
}
