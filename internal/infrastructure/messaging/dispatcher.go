// Package messaging implements the event bus for Axiom Hub.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes events from the bus to named handlers with middleware,
// per-handler retries and a dead letter queue. The worker wires its event
// handlers through a Dispatcher so one failing notification handler cannot
// lose a tier-change event silently.
type Dispatcher struct {
	eventBus    shared.EventBus
	retryConfig RetryConfig
	deadLetters *DeadLetterQueue
	logger      *slog.Logger
	slots       chan struct{}

	mu          sync.RWMutex
	handlers    map[shared.EventType][]*registration
	middlewares []Middleware

	ctx    context.Context
	cancel context.CancelFunc
}

// registration attaches retry and timeout policy to a named handler.
type registration struct {
	name    string
	handler shared.EventHandler
	async   bool
	retries int
	timeout time.Duration
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// EventBus is the underlying event bus.
	EventBus shared.EventBus

	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	// RetryConfig configures per-handler retry behavior.
	RetryConfig RetryConfig

	// EnableDeadLetterQueue keeps events whose handlers exhausted retries.
	EnableDeadLetterQueue bool

	// DeadLetterQueueSize is the max size of the DLQ.
	DeadLetterQueueSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(eventBus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:              eventBus,
		WorkerPoolSize:        10,
		RetryConfig:           DefaultRetryConfig(),
		EnableDeadLetterQueue: true,
		DeadLetterQueueSize:   1000,
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		eventBus:    config.EventBus,
		retryConfig: config.RetryConfig,
		logger:      config.Logger,
		slots:       make(chan struct{}, config.WorkerPoolSize),
		handlers:    make(map[shared.EventType][]*registration),
		ctx:         ctx,
		cancel:      cancel,
	}
	if config.EnableDeadLetterQueue {
		d.deadLetters = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}
	return d
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

const defaultHandlerTimeout = 30 * time.Second

// Register registers an async handler: dispatch does not wait for it
// beyond the current event.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.register(eventType, name, handler, true)
}

// RegisterSync registers a handler whose error propagates to the publisher.
func (d *Dispatcher) RegisterSync(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.register(eventType, name, handler, false)
}

func (d *Dispatcher) register(eventType shared.EventType, name string, handler shared.EventHandler, async bool) error {
	if handler == nil {
		return ErrNilHandler
	}
	if name == "" {
		return errors.New("handler name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], &registration{
		name:    name,
		handler: handler,
		async:   async,
		retries: d.retryConfig.MaxRetries,
		timeout: defaultHandlerTimeout,
	})
	d.logger.Debug("registered handler",
		"event_type", eventType,
		"handler_name", name,
		"async", async,
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use adds middleware. Middleware runs in the order it was added,
// outermost first.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware converts handler panics into errors.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT DISPATCHING
// ══════════════════════════════════════════════════════════════════════════════

// Start subscribes the dispatcher to the bus.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(func(event shared.Event) error {
		return d.dispatch(event)
	})
}

// Dispatch manually dispatches an event to registered handlers.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	return d.dispatch(event)
}

// Stop cancels in-flight retries and timeouts.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.logger.Info("dispatcher stopped")
	return nil
}

// DeadLetterQueue returns the dead letter queue, nil when disabled.
func (d *Dispatcher) DeadLetterQueue() *DeadLetterQueue {
	return d.deadLetters
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	regs := d.handlers[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	var wg sync.WaitGroup
	var errsMu sync.Mutex
	var syncErrs []error

	for _, reg := range regs {
		if reg.async {
			wg.Add(1)
			go func(r *registration) {
				defer wg.Done()
				_ = d.runHandler(event, r, middlewares)
			}(reg)
			continue
		}
		if err := d.runHandler(event, reg, middlewares); err != nil {
			errsMu.Lock()
			syncErrs = append(syncErrs, err)
			errsMu.Unlock()
		}
	}
	wg.Wait()

	if len(syncErrs) > 0 {
		return fmt.Errorf("sync handler errors: %v", syncErrs)
	}
	return nil
}

// runHandler executes one handler through the middleware chain with the
// configured retry budget, parking the event in the DLQ when the budget
// runs out.
func (d *Dispatcher) runHandler(event shared.Event, reg *registration, middlewares []Middleware) error {
	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	handler := reg.handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	backoff := d.retryConfig.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= reg.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * d.retryConfig.BackoffMultiplier)
			if backoff > d.retryConfig.MaxBackoff {
				backoff = d.retryConfig.MaxBackoff
			}
		}

		err := d.runWithTimeout(handler, event, reg.timeout)
		if err == nil {
			return nil
		}
		lastErr = err
		d.logger.Warn("handler attempt failed",
			"handler", reg.name,
			"attempt", attempt,
			"error", err,
		)
	}

	if d.deadLetters != nil {
		d.deadLetters.add(DeadLetterEntry{
			Event:       event,
			HandlerName: reg.name,
			Error:       lastErr,
			Attempts:    reg.retries + 1,
			FailedAt:    time.Now(),
		})
	}
	return fmt.Errorf("handler %s failed after %d attempts: %w", reg.name, reg.retries+1, lastErr)
}

func (d *Dispatcher) runWithTimeout(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry is an event whose handler exhausted its retries.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue keeps failed events in a bounded in-memory ring,
// oldest evicted first.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
	head    int
	count   int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{entries: make([]DeadLetterEntry, maxSize)}
}

func (q *DeadLetterQueue) add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tail := (q.head + q.count) % len(q.entries)
	q.entries[tail] = entry
	if q.count < len(q.entries) {
		q.count++
		return
	}
	// Full: the new entry overwrote the oldest one.
	q.head = (q.head + 1) % len(q.entries)
}

// Size returns the current queue size.
func (q *DeadLetterQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return DeadLetterEntry{}, false
	}
	entry := q.entries[q.head]
	q.entries[q.head] = DeadLetterEntry{}
	q.head = (q.head + 1) % len(q.entries)
	q.count--
	return entry, true
}
