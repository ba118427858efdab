// Package executor implements the Process Pool Executor: it fills a
// fixed-size slot table with spawned children, each with its stdout
// redirected to a dedicated pipe, polls exit status non-blockingly,
// frees slots on termination, and feeds the next pending executable
// until all are done.
package executor

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ashstone-io/testpool/discover"
	"github.com/ashstone-io/testpool/dispatch"
	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/pipereader"
	"github.com/ashstone-io/testpool/store"
)

// Config holds the executor's tunables, taken directly from
// spec §6's process.* options.
type Config struct {
	// MaxChildSpawn is K: the size of the slot table and pipe array.
	MaxChildSpawn int
	// WorkerCount is N: the number of event-apply worker goroutines.
	WorkerCount int
	// ReapInterval is the per-slot sleep in the reap pass (~500ms in
	// the reference design; see spec §9's design note on replacing it
	// with an event-driven wait).
	ReapInterval time.Duration
	// DispatchBuffer sizes the channel between the Pipe Reader and
	// the worker pool.
	DispatchBuffer int
}

// slotState tracks one occupied slot.
type slotState struct {
	pid  int
	name string
}

type pipePair struct {
	read  *os.File
	write *os.File
}

// Executor runs a bounded pool of children over a work list and
// compiles the resulting Record Store into a report.
type Executor struct {
	cfg   Config
	log   *zap.SugaredLogger
	mtr   *metrics.Collector
}

// New creates an Executor with the given configuration.
func New(cfg Config, logger *zap.SugaredLogger, mtr *metrics.Collector) *Executor {
	if cfg.MaxChildSpawn < 1 {
		cfg.MaxChildSpawn = 1
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Executor{cfg: cfg, log: logger, mtr: mtr}
}

// Run spawns, supervises, and reaps every executable in work, then
// compiles and returns the final report. h is the sole Handle the
// caller holds; Run clones it for its internal worker pool and
// releases the clone before compiling, so the returned report comes
// from an uncontested Handle.
func (e *Executor) Run(work []discover.Executable, h *store.Handle) (*store.CompiledReport, error) {
	k := e.cfg.MaxChildSpawn

	pipes := make([]pipePair, k)
	readers := make([]*os.File, k)
	for i := 0; i < k; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		pipes[i] = pipePair{read: r, write: w}
		readers[i] = r
	}
	poolHandle := h.Clone()
	pool := dispatch.New(e.cfg.WorkerCount, e.cfg.DispatchBuffer, poolHandle, e.log, e.mtr)
	pool.Start()

	running := &atomic.Bool{}
	running.Store(true)

	ioReaders := make([]io.Reader, k)
	for i, r := range readers {
		ioReaders[i] = r
	}
	pr := pipereader.New(ioReaders, pool, running, e.log, e.mtr)

	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		pr.Run()
	}()

	slots := make([]*slotState, k)
	queue := work
	remaining := len(work)

	for remaining > 0 || anyOccupied(slots) {
		// Fill pass: spawn into every empty slot while work remains.
		for i := 0; i < k; i++ {
			if slots[i] != nil {
				continue
			}
			if len(queue) == 0 {
				continue
			}
			next := queue[0]
			queue = queue[1:]

			pid, err := e.spawn(next, pipes[i].write)
			if err != nil {
				e.log.Warnw("spawn failed", "program", next.Name, "error", err)
				e.mtr.IncSpawnFailure()
				remaining--
				continue
			}

			if err := h.RegisterProcess(next.Name); err != nil {
				e.log.Warnw("duplicate program registration", "program", next.Name, "error", err)
			}
			slots[i] = &slotState{pid: pid, name: next.Name}
			e.mtr.IncSpawnSuccess()
		}

		// Reap pass: poll every occupied slot, freeing it on any
		// terminal outcome.
		for i := 0; i < k; i++ {
			if slots[i] == nil {
				continue
			}
			time.Sleep(e.cfg.ReapInterval)

			outcome, err := poll(slots[i].pid)
			if err != nil {
				e.log.Errorw("poll failed", "program", slots[i].name, "pid", slots[i].pid, "error", err)
				slots[i] = nil
				remaining--
				continue
			}
			if outcome == Running {
				continue
			}

			e.recordOutcome(slots[i].name, outcome)
			slots[i] = nil
			remaining--
		}
	}

	for _, p := range pipes {
		p.write.Close()
	}
	running.Store(false)
	readerWG.Wait()

	pool.Close()
	poolHandle.Release()

	for _, p := range pipes {
		p.read.Close()
	}

	return h.Compile()
}

func (e *Executor) spawn(exe discover.Executable, stdout *os.File) (int, error) {
	cmd := exec.Command(exe.Path)
	cmd.Stdout = stdout
	if len(exe.Env) > 0 {
		cmd.Env = append(os.Environ(), exe.Env...)
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

func (e *Executor) recordOutcome(name string, outcome Outcome) {
	switch outcome {
	case ExitedOK:
		e.mtr.IncChildExitedOK()
	case ExitedNonzero:
		e.mtr.IncChildExitedNonzero()
	case Signaled:
		e.mtr.IncChildSignaled()
	case Stopped:
		e.mtr.IncChildStopped()
	default:
		e.mtr.IncChildUnknown()
	}
	e.log.Debugw("child terminated", "program", name, "outcome", outcome.String())
}

func anyOccupied(slots []*slotState) bool {
	for _, s := range slots {
		if s != nil {
			return true
		}
	}
	return false
}
