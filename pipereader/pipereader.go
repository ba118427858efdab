// Package pipereader implements the Pipe Reader: it owns the read
// ends of every child pipe, polls each in a fixed rotation, decodes
// whole frames, and forwards them to the Event Dispatcher. After the
// Executor signals shutdown it performs one final drain pass so that
// no frame written before a child's pipe closed is lost.
package pipereader

import (
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/wire"
)

// sender is the subset of dispatch.Pool the reader depends on. Kept
// as a narrow interface so pipereader can be tested without a real
// worker pool.
type sender interface {
	Send(wire.Event)
}

// PipeReader polls a fixed set of K read ends in rotation, where K is
// process.max_child_spawn. Slots are addressed by index; a nil entry
// is simply skipped. The Executor creates all K pipes once at startup
// and passes every read end in before any child is spawned.
type PipeReader struct {
	pipes   []io.Reader
	out     sender
	running *atomic.Bool
	log     *zap.SugaredLogger
	mtr     *metrics.Collector
}

// New creates a PipeReader over pipes, forwarding decoded frames to
// out. running is shared with the Executor: the Executor flips it to
// false once the last child has exited and every write end has been
// dropped. mtr may be nil.
func New(pipes []io.Reader, out sender, running *atomic.Bool, logger *zap.SugaredLogger, mtr *metrics.Collector) *PipeReader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PipeReader{pipes: pipes, out: out, running: running, log: logger, mtr: mtr}
}

// Run executes the rotation loop until running is false, then
// performs a drain pass (repeating the rotation until a full pass
// yields no frame from any pipe) before returning. Run is meant to be
// called on its own goroutine and joined by the Executor.
func (r *PipeReader) Run() {
	buf := make([]byte, wire.FrameSize)

	for r.running.Load() {
		r.rotationPass(buf)
	}

	for r.rotationPass(buf) > 0 {
		// drain pass: keep rotating while any pipe still yields a frame
	}
}

// rotationPass attempts one blocking-until-FrameSize-bytes read from
// every pipe in order, decoding and forwarding whatever succeeds. It
// returns the number of frames forwarded. A short read, EOF, or other
// error on a given pipe simply advances to the next pipe; the current
// read attempt is discarded, never retried mid-frame.
func (r *PipeReader) rotationPass(buf []byte) int {
	decoded := 0
	for _, p := range r.pipes {
		if p == nil {
			continue
		}
		if _, err := io.ReadFull(p, buf); err != nil {
			continue
		}
		ev, err := wire.Decode(buf)
		if err != nil {
			r.log.Warnw("dropping undecodable frame", "error", err)
			r.mtr.IncFrameDecodeErrors()
			continue
		}
		r.mtr.IncFramesDecoded()
		r.out.Send(ev)
		decoded++
	}
	return decoded
}
