// Package scan runs the per-endpoint checker over a whole candidate set
// with a bounded worker pool, streaming results and progress to a single
// consumer and supporting cooperative stop and pause.
package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vafaeim/advanced-proxy-checker/internal/model"
)

// State is the coordinator lifecycle. Paused is a sub-state of Running:
// dispatch is gated but in-flight endpoints run to completion.
//
// Idle -> Running -> {Completed, Stopped}
// Idle -> Aborted          (empty input, nothing ever dispatched)
// Running <-> Paused
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateStopped
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// Event is one progress unit. Every endpoint completion emits exactly one
// event, success or rejection; Proxy is nil for a rejection.
type Event struct {
	Proxy *model.MeasuredProxy
	Done  int
	Total int
}

// CheckFunc measures one endpoint. A nil proxy with completed == true is
// a rejection and still counts as progress; completed == false means the
// endpoint was abandoned mid-flight by a stop and is not reported at all.
// Production wiring passes (*checker.Checker).Check.
type CheckFunc func(ctx context.Context, rec model.EndpointRecord) (result *model.MeasuredProxy, completed bool)

// ErrNoEndpoints aborts a scan before any worker starts.
var ErrNoEndpoints = errors.New("scan: no endpoints to check")

// ErrAlreadyStarted rejects reuse; a Coordinator runs exactly one scan.
var ErrAlreadyStarted = errors.New("scan: coordinator already started")

// Coordinator fans a candidate set out over a bounded worker pool. Each
// worker owns exactly one endpoint at a time; the only shared structures
// are the dispatch channel and the completion channel consumed by a single
// collector goroutine.
type Coordinator struct {
	workers int
	check   CheckFunc
	log     *slog.Logger

	mu       sync.Mutex
	state    State
	paused   bool
	resumeCh chan struct{}
	cancel   context.CancelFunc
	results  []model.MeasuredProxy
}

// New builds a coordinator with a fixed worker count (min 1).
func New(workers int, check CheckFunc, log *slog.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		workers: workers,
		check:   check,
		log:     log,
		state:   StateIdle,
	}
}

// Start begins the scan and returns the event stream. The channel is
// buffered for the whole set, so workers never block on a slow consumer,
// and is closed once the coordinator reaches a terminal state. After the
// channel closes, Results and CurrentState hold the outcome.
//
// An empty record set aborts before any worker starts.
func (c *Coordinator) Start(ctx context.Context, records []model.EndpointRecord) (<-chan Event, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	if len(records) == 0 {
		c.state = StateAborted
		c.mu.Unlock()
		return nil, ErrNoEndpoints
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateRunning
	c.mu.Unlock()

	total := len(records)
	events := make(chan Event, total)
	jobs := make(chan model.EndpointRecord)
	completions := make(chan *model.MeasuredProxy, total)

	// Dispatcher: feeds workers one record at a time.
	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				// The pause gate sits between taking a record and starting
				// its pipeline: endpoints already mid-flight always run to
				// completion, gated ones have not started at all.
				if !c.awaitDispatch(ctx) {
					return
				}
				result, completed := c.check(ctx, rec)
				if !completed {
					// Abandoned mid-flight by a stop: the endpoint never
					// finished, so it is not reported at all. A rejection
					// that races with Stop still completed and is counted.
					continue
				}
				completions <- result
			}
		}()
	}
	go func() {
		wg.Wait()
		close(completions)
	}()

	// Collector: sole owner of the aggregate result set.
	go func() {
		defer close(events)

		done := 0
		for result := range completions {
			done++
			if result != nil {
				c.mu.Lock()
				c.results = append(c.results, *result)
				c.mu.Unlock()
			}
			events <- Event{Proxy: result, Done: done, Total: total}
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.state = StateStopped
		} else {
			c.state = StateCompleted
		}
		final := c.state
		kept := len(c.results)
		c.mu.Unlock()

		cancel()
		c.log.Debug("scan finished", "state", final.String(), "completed", done, "total", total, "healthy", kept)
	}()

	return events, nil
}

// awaitDispatch blocks while paused. Returns false when the scan was
// stopped before dispatch could resume.
func (c *Coordinator) awaitDispatch(ctx context.Context) bool {
	for {
		c.mu.Lock()
		if !c.paused {
			c.mu.Unlock()
			return true
		}
		resume := c.resumeCh
		c.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return false
		}
	}
}

// Pause stops dispatching new work. Workers already mid-flight run their
// current endpoint to completion; pause is never preemptive.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || c.paused {
		return
	}
	c.paused = true
	c.resumeCh = make(chan struct{})
}

// Resume reopens dispatch after a Pause.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	close(c.resumeCh)
	c.resumeCh = nil
}

// Stop sets the cooperative cancellation signal. Workers observe it at
// their next probe-step boundary and abandon their current endpoint;
// already-completed results are retained. Callers should keep draining the
// event stream until it closes.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CurrentState reports the lifecycle state, surfacing Paused while the
// dispatch gate is closed.
func (c *Coordinator) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning && c.paused {
		return StatePaused
	}
	return c.state
}

// Results returns a copy of the accumulated result set. Complete only
// after the event stream has closed.
func (c *Coordinator) Results() []model.MeasuredProxy {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.MeasuredProxy, len(c.results))
	copy(out, c.results)
	return out
}
