package purge

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fenilsonani/storage-intel/internal/probe"
	"github.com/fenilsonani/storage-intel/pkg/utils"
)

// Request is the stdin document naming the deletion candidates.
type Request struct {
	TargetPaths []string `json:"target_paths"`
}

// Result is the single stdout document reporting the outcome.
type Result struct {
	Status         string   `json:"status"`
	Message        string   `json:"message,omitempty"`
	PathsToDelete  int      `json:"paths_to_delete,omitempty"`
	FreedBytes     int64    `json:"freed_bytes,omitempty"`
	FreedFormatted string   `json:"freed_formatted,omitempty"`
	Deleted        []string `json:"deleted,omitempty"`
}

// Executor validates candidates against the zone tables and deletes the
// survivors. Per-path failures go to stderr and never abort the run.
type Executor struct {
	zones  *Zones
	stderr io.Writer
}

// NewExecutor creates an Executor for the given home directory.
func NewExecutor(home string, stderr io.Writer) *Executor {
	return &Executor{zones: NewZones(home), stderr: stderr}
}

// Run reads one request document from in, executes it and writes one result
// document to out. The process exit code is 0 regardless of per-path
// outcomes; an unreadable request, or one in which no path passes
// validation, is surfaced as an error result.
func (e *Executor) Run(in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)

	data, err := io.ReadAll(in)
	if err != nil {
		return enc.Encode(Result{Status: "error", Message: err.Error()})
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return enc.Encode(Result{Status: "error", Message: err.Error()})
	}

	return enc.Encode(e.Execute(req))
}

// Execute validates every candidate, deletes the accepted set and reports
// what was actually removed.
func (e *Executor) Execute(req Request) Result {
	var validated []string
	for _, path := range req.TargetPaths {
		real, ok := e.zones.Validate(path)
		if !ok {
			continue
		}
		validated = append(validated, real)
	}

	if len(validated) == 0 {
		return Result{
			Status:  "error",
			Message: "No valid or safe paths provided for deletion.",
		}
	}

	result := Result{Status: "success"}
	for _, path := range validated {
		size := probe.Size(path)
		if err := removePath(path); err != nil {
			fmt.Fprintf(e.stderr, "Error deleting %s: %v\n", path, err)
			continue
		}
		result.PathsToDelete++
		result.FreedBytes += size
		result.Deleted = append(result.Deleted, path)
	}
	result.FreedFormatted = utils.FormatBytes(result.FreedBytes)
	return result
}

// removePath deletes a file or a directory tree.
func removePath(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}
