package lode

import (
	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/report"
)

// InstrumentedSink wraps a report.Sink and records write metrics.
// Each Write call increments lode_write_success or
// lode_write_failure on the wrapped collector.
type InstrumentedSink struct {
	inner     report.Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps inner with metrics instrumentation.
func NewInstrumentedSink(inner report.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// Write delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) Write(r *report.Report) error {
	err := s.inner.Write(r)
	if err != nil {
		s.collector.IncLodeWriteFailure()
	} else {
		s.collector.IncLodeWriteSuccess()
	}
	return err
}

// Close releases the inner sink's resources if it is closeable.
func (s *InstrumentedSink) Close() error {
	if closer, ok := s.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

var _ report.Sink = (*InstrumentedSink)(nil)
