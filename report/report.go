// Package report builds the final run summary from a compiled store
// and writes it out. Writing is pluggable via Sink; the local writer
// covers the common case of a single JSON file or stderr.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/store"
	"github.com/ashstone-io/testpool/types"
)

// Report is the structured document written at the end of a run.
// RunID is generated fresh per run; nothing persists it across runs.
type Report struct {
	RunID      string             `json:"run_id"`
	StartedAt  string             `json:"started_at"`
	DurationMs int64              `json:"duration_ms"`
	ExitCode   int                `json:"exit_code"`

	ProgramCount int `json:"program_count"`
	TestCount    int `json:"test_count"`
	PassCount    int `json:"pass_count"`
	FailCount    int `json:"fail_count"`

	Metrics *metrics.Snapshot `json:"metrics,omitempty"`

	Compiled *store.CompiledReport `json:"compiled"`
}

// Build composes a Report from a compiled store snapshot. started is
// the run's start time: it becomes StartedAt and, together with now,
// gives DurationMs. Both times are supplied by the caller, so this
// package never reads the wall clock itself.
func Build(compiled *store.CompiledReport, snap *metrics.Snapshot, started time.Time, now time.Time, exitCode int) *Report {
	pass, fail := 0, 0
	for _, s := range compiled.Statuses {
		if s == types.StatusSuccess {
			pass++
		} else {
			fail++
		}
	}

	return &Report{
		RunID:        uuid.NewString(),
		StartedAt:    started.UTC().Format(time.RFC3339),
		DurationMs:   now.Sub(started).Milliseconds(),
		ExitCode:     exitCode,
		ProgramCount: len(compiled.Programs),
		TestCount:    len(compiled.Statuses),
		PassCount:    pass,
		FailCount:    fail,
		Metrics:      snap,
		Compiled:     compiled,
	}
}

// Sink persists a Report somewhere: a local file, stderr, or an
// object store via the lode package.
type Sink interface {
	Write(r *Report) error
}

// LocalSink writes the report to Path. Path == "-" writes to stderr
// instead of a file, matching the convention used throughout this
// codebase's CLI flags for "write to stdout/stderr". The encoding is
// chosen by file extension: ".msgpack" or ".mp" writes MessagePack,
// anything else (including "-") writes indented JSON.
type LocalSink struct {
	Path string
}

// Write encodes r and writes it to s.Path.
func (s LocalSink) Write(r *Report) error {
	if s.Path == "" {
		return errors.New("report: local sink path must not be empty")
	}

	data, err := s.encode(r)
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	if s.Path == "-" {
		if _, err := os.Stderr.Write(data); err != nil {
			return fmt.Errorf("report: write to stderr: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("report: write to %s: %w", s.Path, err)
	}
	return nil
}

// usesMsgpack reports whether Path's extension selects the
// MessagePack codec over the default JSON one.
func (s LocalSink) usesMsgpack() bool {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".msgpack", ".mp":
		return true
	default:
		return false
	}
}

func (s LocalSink) encode(r *Report) ([]byte, error) {
	if s.usesMsgpack() {
		return msgpack.Marshal(r)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
