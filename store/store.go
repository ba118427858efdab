// Package store implements the Record Store: a shared, thread-safe
// registry of programs, their tests, per-test status, and per-test
// log buffers. Many goroutines hold a Handle concurrently during a
// run; exactly one Handle remains when Compile is called.
package store

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ashstone-io/testpool/types"
)

// ErrAlreadyExists is returned when a program or test is registered
// a second time. Non-fatal: callers log and discard.
var ErrAlreadyExists = errors.New("store: already exists")

// ErrNotFound is returned when a Status or Log event names a program
// or test that was never registered. Non-fatal: callers log and
// discard.
var ErrNotFound = errors.New("store: not found")

// ErrStillShared is returned by Compile when more than one Handle to
// the store is outstanding.
var ErrStillShared = errors.New("store: still shared")

type programEntry struct {
	mu    sync.RWMutex
	tests map[string]int // TestName -> TestIndex
}

// store is the shared backing state. It is never exposed directly;
// all access goes through a Handle so the reference count stays
// accurate.
type store struct {
	log *zap.SugaredLogger

	programsMu sync.RWMutex
	programs   map[string]*programEntry

	// vectorMu guards the length of statuses/logs/statusMu/logMu: it
	// is taken exclusively only while allocating a new TestIndex.
	// Readers and per-slot writers take it for read, then the
	// relevant per-slot mutex, so that mutations to distinct indices
	// never contend with each other.
	vectorMu  sync.RWMutex
	statuses  []types.Status
	statusMu  []*sync.Mutex
	logs      [][]types.LogEntry
	logMu     []*sync.Mutex

	refs int32
}

// Handle is a cheap-to-clone reference to a Store. Mutation uses the
// store's interior synchronization; Handle itself carries no lock.
type Handle struct {
	s *store
}

// New creates an empty Store and returns the first Handle to it. The
// refcount starts at 1.
func New(logger *zap.SugaredLogger) *Handle {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &store{
		log:      logger,
		programs: make(map[string]*programEntry),
	}
	s.refs = 1
	return &Handle{s: s}
}

// Clone returns a new Handle to the same underlying Store and
// increments the reference count. Safe to call concurrently.
func (h *Handle) Clone() *Handle {
	atomic.AddInt32(&h.s.refs, 1)
	return &Handle{s: h.s}
}

// Release drops this Handle's reference. It must be called exactly
// once per Handle obtained from New or Clone.
func (h *Handle) Release() {
	atomic.AddInt32(&h.s.refs, -1)
}

// RegisterProcess inserts an empty ProgramEntry for name if absent.
// Returns ErrAlreadyExists if the program was already registered.
func (h *Handle) RegisterProcess(name string) error {
	s := h.s
	s.programsMu.Lock()
	defer s.programsMu.Unlock()

	if _, exists := s.programs[name]; exists {
		return ErrAlreadyExists
	}
	s.programs[name] = &programEntry{tests: make(map[string]int)}
	return nil
}

// Store applies a decoded event to the store. All error paths are
// logged but never propagated: a worker goroutine must never
// terminate because of malformed or out-of-order input.
func (h *Handle) Store(ev Event) {
	var err error
	switch ev.Kind {
	case EventRegister:
		err = h.registerTest(ev.ProgramName, ev.FunctionName)
	case EventStatus:
		err = h.updateTestStatus(ev.ProgramName, ev.FunctionName, ev.Status)
	case EventLog:
		err = h.appendTestLog(ev.ProgramName, ev.FunctionName, types.LogEntry{Kind: ev.LogKind, Msg: ev.Msg})
	default:
		err = errors.New("store: unknown event kind")
	}
	if err != nil {
		h.s.log.Warnw("discarding event",
			"kind", ev.Kind.String(),
			"program", ev.ProgramName,
			"function", ev.FunctionName,
			"error", err)
	}
}

func (h *Handle) registerTest(program, function string) error {
	s := h.s
	s.programsMu.RLock()
	entry, ok := s.programs[program]
	s.programsMu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if _, exists := entry.tests[function]; exists {
		return ErrAlreadyExists
	}

	idx := s.allocateIndex()
	entry.tests[function] = idx
	return nil
}

// allocateIndex extends the statuses/logs vectors by one slot and
// returns its index. Requires the vector writer lock; never called
// while holding any per-slot mutex.
func (s *store) allocateIndex() int {
	s.vectorMu.Lock()
	defer s.vectorMu.Unlock()

	idx := len(s.statuses)
	s.statuses = append(s.statuses, types.StatusFail)
	s.statusMu = append(s.statusMu, &sync.Mutex{})
	s.logs = append(s.logs, nil)
	s.logMu = append(s.logMu, &sync.Mutex{})
	return idx
}

func (h *Handle) resolveIndex(program, function string) (int, error) {
	s := h.s
	s.programsMu.RLock()
	entry, ok := s.programs[program]
	s.programsMu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}

	entry.mu.RLock()
	idx, ok := entry.tests[function]
	entry.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	return idx, nil
}

func (h *Handle) updateTestStatus(program, function string, status types.Status) error {
	idx, err := h.resolveIndex(program, function)
	if err != nil {
		return err
	}

	s := h.s
	s.vectorMu.RLock()
	defer s.vectorMu.RUnlock()

	s.statusMu[idx].Lock()
	s.statuses[idx] = status
	s.statusMu[idx].Unlock()
	return nil
}

func (h *Handle) appendTestLog(program, function string, entry types.LogEntry) error {
	idx, err := h.resolveIndex(program, function)
	if err != nil {
		return err
	}

	s := h.s
	s.vectorMu.RLock()
	defer s.vectorMu.RUnlock()

	s.logMu[idx].Lock()
	s.logs[idx] = append(s.logs[idx], entry)
	s.logMu[idx].Unlock()
	return nil
}

// CompiledReport is an immutable snapshot of the Store, produced once
// at shutdown. It has the same shape as the live store but carries no
// synchronization.
type CompiledReport struct {
	Programs []ProgramReport     `json:"programs"`
	Statuses []types.Status      `json:"statuses"`
	Logs     [][]types.LogEntry  `json:"logs"`
}

// ProgramReport is one program's entry in a CompiledReport. Programs
// appear in lexicographic order by Name.
type ProgramReport struct {
	Name  string         `json:"name"`
	Tests map[string]int `json:"tests"`
}

// Compile consumes the store and returns an immutable snapshot. It
// requires unique ownership: every other Handle must have called
// Release first, or it returns ErrStillShared.
func (h *Handle) Compile() (*CompiledReport, error) {
	s := h.s
	if atomic.LoadInt32(&s.refs) != 1 {
		return nil, ErrStillShared
	}

	s.programsMu.RLock()
	names := make([]string, 0, len(s.programs))
	for name := range s.programs {
		names = append(names, name)
	}
	sort.Strings(names)

	programs := make([]ProgramReport, 0, len(names))
	for _, name := range names {
		entry := s.programs[name]
		entry.mu.RLock()
		tests := make(map[string]int, len(entry.tests))
		for fn, idx := range entry.tests {
			tests[fn] = idx
		}
		entry.mu.RUnlock()
		programs = append(programs, ProgramReport{Name: name, Tests: tests})
	}
	s.programsMu.RUnlock()

	s.vectorMu.RLock()
	statuses := make([]types.Status, len(s.statuses))
	copy(statuses, s.statuses)
	logs := make([][]types.LogEntry, len(s.logs))
	for i, l := range s.logs {
		if l == nil {
			continue
		}
		cp := make([]types.LogEntry, len(l))
		copy(cp, l)
		logs[i] = cp
	}
	s.vectorMu.RUnlock()

	return &CompiledReport{Programs: programs, Statuses: statuses, Logs: logs}, nil
}
