// Command storageintel is the storage intelligence engine CLI: a streaming
// disk scanner, a cached status reader, a long-running rescan daemon, a
// parallel swarm variant and the safe purge executor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/storage-intel/internal/config"
	"github.com/fenilsonani/storage-intel/internal/events"
	"github.com/fenilsonani/storage-intel/internal/platform"
	"github.com/fenilsonani/storage-intel/internal/progress"
	"github.com/fenilsonani/storage-intel/internal/scanner"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	stateDir   string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storageintel",
	Short: "macOS storage intelligence engine",
	Long: `storageintel discovers reclaimable storage across known cache hierarchies
and project directories, classifies every finding by deletion risk, maps the
home volume, detects stale development projects and signs its results.
Events stream to stdout as one JSON object per line.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	// A bare invocation runs a full scan.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/storage-intel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "persistent state directory (default ~/.local/state/storageintel)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics on stderr")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(swarmCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(watchCmd)
}

// runtime bundles what every entrypoint needs.
type runtime struct {
	cfg      *config.Config
	info     *platform.Info
	emitter  *events.Emitter
	tracker  *progress.Tracker
	stateDir string
}

// newRuntime resolves config, roots and state location, and wires the
// emitter to stdout.
func newRuntime() (*runtime, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
	}

	info, err := platform.GetInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	dir := stateDir
	if dir == "" {
		dir = cfg.StateDir
	}
	if dir == "" {
		dir, err = config.DefaultStateDir()
		if err != nil {
			return nil, err
		}
	}

	em := events.NewEmitter(os.Stdout)
	tr := progress.NewTracker(em)

	return &runtime{
		cfg:      cfg,
		info:     info,
		emitter:  em,
		tracker:  tr,
		stateDir: dir,
	}, nil
}

// scanOptions maps config onto the scanner's knobs.
func (r *runtime) scanOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	if r.cfg.StaleAgeDays > 0 {
		opts.StaleAgeDays = r.cfg.StaleAgeDays
	}
	opts.ExcludedRoots = r.cfg.ExcludedRoots
	return opts
}
