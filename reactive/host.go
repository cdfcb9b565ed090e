package reactive

import (
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Host is the event loop a Runtime lives on.
type Host interface {
	// QueueMicrotask runs task after the current synchronous work finishes and
	// before the host picks up its next task.
	QueueMicrotask(task func())
	// ReportError is the uncaught-error channel, used when no error handler is
	// found on the failing node's ancestry.
	ReportError(err error)
}

// Microtasks is a Host for callers that drive the runtime by hand, mostly
// tests and tools. Tasks run in FIFO order when Drain is called.
type Microtasks struct {
	logger *slog.Logger
	tasks  []func()
	errs   *multierror.Error
}

func NewMicrotasks(logger *slog.Logger) *Microtasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Microtasks{logger: logger}
}

func (m *Microtasks) QueueMicrotask(task func()) {
	m.tasks = append(m.tasks, task)
}

func (m *Microtasks) ReportError(err error) {
	m.logger.Warn("uncaught reactive error", "error", err)
	m.errs = multierror.Append(m.errs, err)
}

// Len is the number of queued tasks.
func (m *Microtasks) Len() int {
	return len(m.tasks)
}

// Drain runs queued tasks until the queue is empty, including tasks queued
// while draining, then returns and forgets the errors reported so far.
func (m *Microtasks) Drain() error {
	for len(m.tasks) > 0 {
		task := m.tasks[0]
		m.tasks[0] = nil
		m.tasks = m.tasks[1:]
		task()
	}
	m.tasks = nil

	err := m.errs.ErrorOrNil()
	m.errs = nil
	return err
}
