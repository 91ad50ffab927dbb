package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the verdict) when
// the buffer is full, instead of blocking. Only for destinations where
// lossiness is acceptable; the engine's own completeness guarantee ends at
// the output boundary.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async decouples verdict production from consumption via a buffered channel.
// The pipeline writes into the channel; a background goroutine drains it to
// the wrapped output. Errors from the inner output go to errFunc rather than
// back to the caller.
type Async struct {
	inner      output.Output
	ch         chan model.Verdict
	done       chan struct{}
	errFunc    func(error)
	bufSize    int
	dropOnFull bool
	closeOnce  sync.Once
}

// New wraps an output in an async channel-based writer. The background drain
// goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:   inner,
		bufSize: defaultBufferSize,
		errFunc: func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Verdict, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

func (a *Async) drain() {
	defer close(a.done)
	for v := range a.ch {
		if err := a.inner.Write(context.Background(), v); err != nil {
			a.errFunc(err)
		}
	}
}

// Write enqueues the verdict. Blocks when the buffer is full unless
// WithDropOnFull was set.
func (a *Async) Write(ctx context.Context, v model.Verdict) error {
	if a.dropOnFull {
		select {
		case a.ch <- v:
		default:
		}
		return nil
	}
	select {
	case a.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting verdicts, waits for the drain goroutine to finish
// (bounded by a timeout), and closes the inner output.
func (a *Async) Close() error {
	a.closeOnce.Do(func() { close(a.ch) })
	select {
	case <-a.done:
	case <-time.After(defaultDrainTimeout):
		slog.Warn("async output drain timed out")
	}
	return a.inner.Close()
}
