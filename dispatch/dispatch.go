// Package dispatch implements the Event Dispatcher / Worker Pool: a
// bounded pool of worker goroutines that drain decoded wire events
// from a single channel and apply them to the Record Store.
//
// The reference design describes workers sharing one receive end
// behind a mutex so that arrival order from the single producer (the
// Pipe Reader) is preserved. Go's channels already give every
// receiving goroutine a safe, ordered view of a single producer's
// sends without an explicit lock, so that pattern collapses here into
// N goroutines ranging over one channel — no mutex-around-receiver is
// needed to get the same guarantee.
package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ashstone-io/testpool/metrics"
	"github.com/ashstone-io/testpool/store"
	"github.com/ashstone-io/testpool/wire"
)

// Pool applies decoded wire events to a Record Store using N worker
// goroutines. A worker exits only when the channel is closed, i.e.
// after Close is called by the sole producer.
type Pool struct {
	ch    chan wire.Event
	store *store.Handle
	log   *zap.SugaredLogger
	mtr   *metrics.Collector
	n     int
	wg    sync.WaitGroup
}

// New creates a worker pool of n workers applying events to h. buf
// sizes the channel between the Pipe Reader and the workers. mtr may
// be nil.
func New(n, buf int, h *store.Handle, logger *zap.SugaredLogger, mtr *metrics.Collector) *Pool {
	if n < 1 {
		n = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pool{
		ch:    make(chan wire.Event, buf),
		store: h,
		log:   logger,
		mtr:   mtr,
		n:     n,
	}
}

// Start launches the worker goroutines. It must be called before any
// Send.
func (p *Pool) Start() {
	p.wg.Add(p.n)
	for i := 0; i < p.n; i++ {
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for ev := range p.ch {
		sev, err := translate(ev)
		if err != nil {
			p.log.Warnw("dropping frame with unrecognized kind", "kind", ev.Kind.String(), "error", err)
			p.mtr.IncFrameDecodeErrors()
			continue
		}
		switch sev.Kind {
		case store.EventRegister:
			p.mtr.IncRegisterEvents()
		case store.EventStatus:
			p.mtr.IncStatusEvents()
		case store.EventLog:
			p.mtr.IncLogEvents()
		}
		p.store.Store(sev)
	}
}

// Send forwards a decoded event to the worker pool. It blocks if the
// channel buffer is full, applying back-pressure to the single
// producer (the Pipe Reader).
func (p *Pool) Send(ev wire.Event) {
	p.ch <- ev
}

// Close closes the channel and blocks until every worker has drained
// it and returned. Must be called exactly once, after the producer
// has sent its last event.
func (p *Pool) Close() {
	close(p.ch)
	p.wg.Wait()
}

func translate(ev wire.Event) (store.Event, error) {
	sev := store.Event{
		ProgramName:  ev.ProgramName,
		FunctionName: ev.FunctionName,
	}
	switch ev.Kind {
	case wire.KindRegister:
		sev.Kind = store.EventRegister
	case wire.KindStatus:
		sev.Kind = store.EventStatus
		sev.Status = translateStatus(ev.Status)
	case wire.KindLog:
		sev.Kind = store.EventLog
		sev.LogKind = translateLogKind(ev.LogKind)
		sev.Msg = ev.Msg
	default:
		return store.Event{}, wire.ErrUnknownKind
	}
	return sev, nil
}
