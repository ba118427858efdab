// Package metrics provides per-run metrics collection. The Collector
// accumulates counters during a single run; it is a leaf package with
// no internal dependencies so every other package can take a
// *Collector without risking an import cycle.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of a run's counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	SpawnSuccess int64
	SpawnFailure int64

	ChildExitedOK      int64
	ChildExitedNonzero int64
	ChildSignaled      int64
	ChildStopped       int64
	ChildUnknown       int64

	FramesDecoded     int64
	FrameDecodeErrors int64

	RegisterEvents int64
	StatusEvents   int64
	LogEvents      int64
	StoreErrors    int64

	CompileErrors int64

	LodeWriteSuccess int64
	LodeWriteFailure int64
}

// Collector accumulates metrics during a single run. Thread-safe via
// sync.Mutex. All increment methods are nil-receiver safe so a
// *Collector can be passed around optionally without a nil check at
// every call site.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) inc(f func(*Snapshot)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	f(&c.s)
	c.mu.Unlock()
}

func (c *Collector) IncSpawnSuccess()       { c.inc(func(s *Snapshot) { s.SpawnSuccess++ }) }
func (c *Collector) IncSpawnFailure()       { c.inc(func(s *Snapshot) { s.SpawnFailure++ }) }
func (c *Collector) IncChildExitedOK()      { c.inc(func(s *Snapshot) { s.ChildExitedOK++ }) }
func (c *Collector) IncChildExitedNonzero() { c.inc(func(s *Snapshot) { s.ChildExitedNonzero++ }) }
func (c *Collector) IncChildSignaled()      { c.inc(func(s *Snapshot) { s.ChildSignaled++ }) }
func (c *Collector) IncChildStopped()       { c.inc(func(s *Snapshot) { s.ChildStopped++ }) }
func (c *Collector) IncChildUnknown()       { c.inc(func(s *Snapshot) { s.ChildUnknown++ }) }
func (c *Collector) IncFramesDecoded()      { c.inc(func(s *Snapshot) { s.FramesDecoded++ }) }
func (c *Collector) IncFrameDecodeErrors()  { c.inc(func(s *Snapshot) { s.FrameDecodeErrors++ }) }
func (c *Collector) IncRegisterEvents()     { c.inc(func(s *Snapshot) { s.RegisterEvents++ }) }
func (c *Collector) IncStatusEvents()       { c.inc(func(s *Snapshot) { s.StatusEvents++ }) }
func (c *Collector) IncLogEvents()          { c.inc(func(s *Snapshot) { s.LogEvents++ }) }
func (c *Collector) IncStoreErrors()        { c.inc(func(s *Snapshot) { s.StoreErrors++ }) }
func (c *Collector) IncCompileErrors()      { c.inc(func(s *Snapshot) { s.CompileErrors++ }) }
func (c *Collector) IncLodeWriteSuccess()   { c.inc(func(s *Snapshot) { s.LodeWriteSuccess++ }) }
func (c *Collector) IncLodeWriteFailure()   { c.inc(func(s *Snapshot) { s.LodeWriteFailure++ }) }

// Snapshot returns an immutable copy of the current counters. Safe to
// call on a nil Collector, returning a zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
