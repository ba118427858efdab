// Package lode provides an optional object-store-backed report sink,
// layered on top of the local report.Sink via the Lode dataset
// library. Real implementations connect to filesystem or S3 storage;
// a stub Client lets callers test the run-completion path without a
// live store.
package lode

import (
	"context"
	"time"

	"github.com/ashstone-io/testpool/report"
)

// DeriveDay computes the partition day from a run's start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// DefaultDataset is the default Lode dataset name.
const DefaultDataset = "testpool"

// Config holds sink configuration. Dataset and partition keys are
// applied as a Hive layout of day/run_id.
type Config struct {
	// Dataset is the Lode dataset ID (default: DefaultDataset).
	Dataset string
	// Day is the partition key derived from the run's start time.
	Day string
	// RunID is the partition key for the run identifier.
	RunID string
}

// Client abstracts the Lode storage client so Sink can be tested
// without a live dataset.
type Client interface {
	// WriteReport writes a single compiled run report to storage,
	// partitioned by dataset/day/run_id.
	WriteReport(ctx context.Context, dataset, runID string, rep *report.Report) error

	// Close releases client resources.
	Close() error
}

// Sink adapts a Client to report.Sink.
type Sink struct {
	config Config
	client Client
}

// NewSink creates a Sink over client.
func NewSink(config Config, client Client) *Sink {
	if config.Dataset == "" {
		config.Dataset = DefaultDataset
	}
	return &Sink{config: config, client: client}
}

// Write implements report.Sink.
func (s *Sink) Write(r *report.Report) error {
	err := s.client.WriteReport(context.Background(), s.config.Dataset, r.RunID, r)
	if err != nil {
		return WrapWriteError(err, s.config.Dataset+"/"+s.config.Day+"/"+r.RunID)
	}
	return nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}

var _ report.Sink = (*Sink)(nil)
