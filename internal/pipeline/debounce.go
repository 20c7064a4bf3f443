package pipeline

import (
	"context"
	"sync"
	"time"
)

// EventKind is the raw watcher event type.
type EventKind string

const (
	EventAdd    EventKind = "add"
	EventChange EventKind = "change"
	EventDelete EventKind = "delete"
)

// Event is one filtered, path-relative file-system change.
type Event struct {
	Path string
	Kind EventKind
	At   time.Time
}

// Debouncer coalesces events per path within a debounce window and forces
// a flush on a separate timer. All state is owned by a single background
// goroutine — callers only ever send on channels — generalized from one
// dirty flag to a per-path pending-event map.
type Debouncer struct {
	debounceWindow time.Duration
	flushWindow    time.Duration

	eventCh chan Event
	flushCh chan []Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDebouncer starts the background goroutine and returns a ready
// Debouncer. flushCh delivers coalesced batches; callers must drain it.
func NewDebouncer(debounceWindow, flushWindow time.Duration) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Debouncer{
		debounceWindow: debounceWindow,
		flushWindow:    flushWindow,
		eventCh:        make(chan Event, 256),
		flushCh:        make(chan []Event, 4),
		ctx:            ctx,
		cancel:         cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Submit enqueues a raw event. Non-blocking except for channel backpressure.
func (d *Debouncer) Submit(e Event) {
	select {
	case d.eventCh <- e:
	case <-d.ctx.Done():
	}
}

// Flushes returns the channel coalesced batches are delivered on.
func (d *Debouncer) Flushes() <-chan []Event { return d.flushCh }

// Stop cancels the background goroutine and waits for it to exit.
func (d *Debouncer) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Debouncer) run() {
	defer d.wg.Done()

	pending := make(map[string]Event)
	var debounceTimer, flushTimer *time.Timer
	var debounceC, flushC <-chan time.Time

	resetDebounce := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.NewTimer(d.debounceWindow)
		debounceC = debounceTimer.C
	}
	ensureFlushTimer := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(d.flushWindow)
			flushC = flushTimer.C
		}
	}
	clearTimers := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
			debounceTimer, debounceC = nil, nil
		}
		if flushTimer != nil {
			flushTimer.Stop()
			flushTimer, flushC = nil, nil
		}
	}
	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]Event, 0, len(pending))
		for _, e := range pending {
			batch = append(batch, e)
		}
		pending = make(map[string]Event)
		clearTimers()
		select {
		case d.flushCh <- batch:
		case <-d.ctx.Done():
		}
	}

	for {
		select {
		case e := <-d.eventCh:
			pending[e.Path] = e
			resetDebounce()
			ensureFlushTimer()
		case <-debounceC:
			flush()
		case <-flushC:
			flush()
		case <-d.ctx.Done():
			return
		}
	}
}
