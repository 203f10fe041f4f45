// Package shutdown ties a run's context to SIGINT/SIGTERM and releases
// registered resources when the run ends.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Callback releases one resource.
type Callback func(ctx context.Context) error

// Config holds shutdown configuration.
type Config struct {
	// Timeout bounds the time spent in each callback.
	Timeout time.Duration
	Signals []os.Signal
	// OnSignal is called once, before the context is cancelled.
	OnSignal func(sig os.Signal)
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Handler cancels its context on the first signal and runs callbacks in
// reverse registration order on Close.
type Handler struct {
	mu        sync.Mutex
	callbacks []Callback
	names     []string

	timeout     time.Duration
	onSignal    func(os.Signal)
	interrupted atomic.Bool
	closed      atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	sigChan chan os.Signal
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a handler whose context is derived from parent.
func New(parent context.Context, cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		timeout:  cfg.Timeout,
		onSignal: cfg.OnSignal,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  make(chan os.Signal, 1),
		stop:     make(chan struct{}),
	}

	signal.Notify(h.sigChan, cfg.Signals...)

	h.wg.Add(1)
	go h.watch()

	return h
}

func (h *Handler) watch() {
	defer h.wg.Done()

	select {
	case sig := <-h.sigChan:
		h.interrupted.Store(true)
		if h.onSignal != nil {
			h.onSignal(sig)
		}
		h.cancel()
	case <-h.stop:
	}
}

// Context is cancelled on the first signal or on Close.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted reports whether a signal was received.
func (h *Handler) Interrupted() bool {
	return h.interrupted.Load()
}

// Register adds a callback run by Close.
func (h *Handler) Register(name string, cb Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.callbacks = append(h.callbacks, cb)
	h.names = append(h.names, name)
}

// RegisterCloser registers fn, typically an io.Closer's Close method.
func (h *Handler) RegisterCloser(name string, fn func() error) {
	h.Register(name, func(context.Context) error {
		return fn()
	})
}

// Close stops listening for signals, cancels the context and runs the
// callbacks LIFO. It is safe to call more than once; only the first call
// runs callbacks.
func (h *Handler) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	signal.Stop(h.sigChan)
	close(h.stop)
	h.wg.Wait()
	h.cancel()

	h.mu.Lock()
	callbacks := append([]Callback(nil), h.callbacks...)
	names := append([]string(nil), h.names...)
	h.mu.Unlock()

	var errs []error
	for i := len(callbacks) - 1; i >= 0; i-- {
		if err := h.run(names[i], callbacks[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) run(name string, cb Callback) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- cb(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &CallbackError{Name: name, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &CallbackError{Name: name, Err: ctx.Err()}
	}
}

// CallbackError wraps a failed or timed-out callback.
type CallbackError struct {
	Name string
	Err  error
}

func (e *CallbackError) Error() string {
	return "shutdown " + e.Name + ": " + e.Err.Error()
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
