// Package eventloop is a single goroutine host for a reactive runtime.
//
// Tasks enter from any goroutine through Submit or Do and run one at a time on
// the goroutine that called Run. After every task the loop drains its
// microtask queue, so the flush a task's writes scheduled has finished before
// the next task starts.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/delaneyj/tendril/reactive"
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a loop that is
	// already running.
	ErrLoopAlreadyRunning = errors.New("eventloop: loop is already running")

	// ErrLoopTerminated is returned when work is submitted to a stopped loop.
	ErrLoopTerminated = errors.New("eventloop: loop has been terminated")
)

type task struct {
	fn   func()
	done chan struct{}
}

// Loop runs submitted tasks and their microtasks on one goroutine.
//
// Only Submit, Do and Stop are safe to call from other goroutines. Everything
// else, QueueMicrotask and ReportError included, belongs to the loop goroutine.
type Loop struct {
	logger   *slog.Logger
	uncaught func(error)

	ingress    chan task
	microtasks []func()

	running  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	// closed when Run returns
	done chan struct{}
}

var _ reactive.Host = (*Loop)(nil)

type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithUncaught receives every error no reactive handler caught, after it has
// been logged. It runs on the loop goroutine.
func WithUncaught(fn func(error)) Option {
	return func(l *Loop) {
		l.uncaught = fn
	}
}

// WithIngressSize sets how many submitted tasks may wait before Submit blocks.
func WithIngressSize(size int) Option {
	return func(l *Loop) {
		if size >= 0 {
			l.ingress = make(chan task, size)
		}
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		logger:  slog.Default(),
		ingress: make(chan task, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit queues fn to run on the loop goroutine.
func (l *Loop) Submit(fn func()) error {
	return l.submit(task{fn: fn})
}

func (l *Loop) submit(t task) error {
	select {
	case <-l.stop:
		return ErrLoopTerminated
	default:
	}

	select {
	case l.ingress <- t:
		return nil
	case <-l.stop:
		return ErrLoopTerminated
	}
}

// Do runs fn on the loop and waits until it and every microtask it queued
// have finished.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	if err := l.submit(t); err != nil {
		return err
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-t.done:
			return nil
		default:
			return ErrLoopTerminated
		}
	}
}

// Run processes tasks on the calling goroutine until Stop is called, which
// returns nil, or ctx is cancelled, which returns ctx.Err(). A loop runs once.
func (l *Loop) Run(ctx context.Context) error {
	select {
	case <-l.done:
		return ErrLoopTerminated
	default:
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer close(l.done)

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			l.logger.Debug("event loop cancelled", "error", ctx.Err())
			return ctx.Err()
		case <-l.stop:
			l.logger.Debug("event loop stopped")
			return nil
		case t := <-l.ingress:
			l.safely(t.fn)
			l.drainMicrotasks()
			if t.done != nil {
				close(t.done)
			}
		}
	}
}

// Stop ends Run after the current task. Tasks still queued are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) QueueMicrotask(fn func()) {
	l.microtasks = append(l.microtasks, fn)
}

func (l *Loop) ReportError(err error) {
	l.logger.Error("uncaught error", "error", err)
	if l.uncaught != nil {
		l.uncaught(err)
	}
}

func (l *Loop) drainMicrotasks() {
	for len(l.microtasks) > 0 {
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.safely(fn)
	}
	l.microtasks = nil
}

func (l *Loop) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.ReportError(&reactive.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	fn()
}
