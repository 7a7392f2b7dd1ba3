package dispatcher

import (
	"sync"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Task is a recording side effect executed on the dispatcher's worker.
// Tasks are opaque to the dispatcher: they are not inspected, retried, or
// timed out, and once enqueued they run to completion.
type Task func()

// Dispatcher is a single-worker FIFO task queue. Launch never blocks the
// caller; BlockOnQueue waits for everything launched before it. The zero
// value is not usable, construct with New.
type Dispatcher struct {
	mu       sync.Mutex
	queue    []Task
	shutdown bool

	signalChan chan struct{} // wakes the worker, capacity 1
	doneChan   chan struct{} // closed once the worker has drained and exited

	testing  atomic.Bool
	dropped  atomic.Uint64
	executed atomic.Uint64

	stopOnce sync.Once
}

// New creates a Dispatcher and starts its worker goroutine.
func New() *Dispatcher {
	d := &Dispatcher{
		signalChan: make(chan struct{}, 1),
		doneChan:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Launch enqueues a task for execution on the dispatcher's worker and returns
// immediately. Submission order is preserved. Tasks launched after Shutdown
// are dropped.
func (d *Dispatcher) Launch(task Task) {
	if task == nil {
		return
	}

	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		d.dropped.Add(1)
		log.Debug().Msg("dispatcher is shut down, dropping task")
		return
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	d.signal()
}

// BlockOnQueue blocks until every task enqueued before the call has
// completed. Tasks enqueued while waiting are not waited for.
func (d *Dispatcher) BlockOnQueue() {
	done := make(chan struct{})

	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		// The worker drains the remaining queue before closing doneChan.
		<-d.doneChan
		return
	}
	d.queue = append(d.queue, func() { close(done) })
	d.mu.Unlock()

	d.signal()
	<-done
}

// Shutdown drains the queue, stops the worker, and waits for it to exit.
// Safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.shutdown = true
		d.mu.Unlock()
		d.signal()
	})
	<-d.doneChan
}

// SetTestingMode toggles testing mode, which gates the synchronous Test*
// accessors on metric bindings.
func (d *Dispatcher) SetTestingMode(enabled bool) {
	d.testing.Store(enabled)
}

// InTestingMode reports whether testing mode is enabled.
func (d *Dispatcher) InTestingMode() bool {
	return d.testing.Load()
}

// AssertInTestingMode panics unless testing mode has been enabled. Test-only
// accessors call this before doing anything else: they block on the queue and
// bypass async isolation, so reaching one from production code is a
// programming error that must fail loudly rather than flake.
func (d *Dispatcher) AssertInTestingMode() {
	if !d.testing.Load() {
		panic("dispatcher: test-only API called without testing mode enabled")
	}
}

// ExecutedTasks returns the number of tasks the worker has completed.
func (d *Dispatcher) ExecutedTasks() uint64 { return d.executed.Load() }

// DroppedTasks returns the number of tasks dropped after shutdown.
func (d *Dispatcher) DroppedTasks() uint64 { return d.dropped.Load() }

// signal wakes the worker without blocking; a full signal channel means a
// wake-up is already pending.
func (d *Dispatcher) signal() {
	select {
	case d.signalChan <- struct{}{}:
	default:
	}
}

// run is the worker loop. It pops tasks in FIFO order, drains the queue on
// shutdown, and only then exits.
func (d *Dispatcher) run() {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			task := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()
			d.execute(task)
			continue
		}
		if d.shutdown {
			d.mu.Unlock()
			close(d.doneChan)
			return
		}
		d.mu.Unlock()
		<-d.signalChan
	}
}

// execute runs a single task, containing panics so a bad task cannot wedge
// the queue or strand a BlockOnQueue caller.
func (d *Dispatcher) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("dispatcher task panicked")
		}
		d.executed.Add(1)
	}()
	task()
}
