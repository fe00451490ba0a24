package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/purge"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete caller-supplied paths after zone validation",
	Long: `Reads {"target_paths":[...]} from stdin, validates every candidate
against the hardcoded forbidden set and safe zones on fully resolved real
paths, deletes the survivors and writes one JSON result to stdout.
Per-path failures go to stderr; the exit code is 0 either way.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := platform.GetInfo()
		if err != nil {
			return err
		}
		executor := purge.NewExecutor(info.HomeDir, os.Stderr)
		return executor.Run(os.Stdin, os.Stdout)
	},
}
