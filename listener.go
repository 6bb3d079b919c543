package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// MessageHandler receives generic messages, and log messages when no LogHandler is set.
type MessageHandler func(worker WorkerID, kind Kind, payload any) error

// LogHandler receives log messages.
type LogHandler func(worker WorkerID, level Level, text string) error

// ListenerState is the lifecycle state of a Listener.
type ListenerState int32

const (
	ListenerIdle ListenerState = iota
	ListenerRunning
	ListenerStopped    // the receive loop has ended
	ListenerTerminated // the loop goroutine has exited
)

func (s ListenerState) String() string {
	switch s {
	case ListenerIdle:
		return "idle"
	case ListenerRunning:
		return "running"
	case ListenerStopped:
		return "stopped"
	case ListenerTerminated:
		return "terminated"
	}
	return "unknown"
}

// ListenerStats counts dispatched messages.
type ListenerStats struct {
	Delivered int64 // handler returned without error
	Failed    int64 // handler returned an error or panicked
}

// Listener is the single consumer of a Channel. It drains messages in a background goroutine and
// dispatches each of them to the user handlers.
type Listener struct {
	ch       *Channel
	dispatch func(Message) error
	log      *zap.Logger

	state     atomic.Int32
	delivered atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
	startOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewListener builds a listener draining ch. Any handler may be nil.
func NewListener(ch *Channel, onMessage MessageHandler, onLog LogHandler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		ch:       ch,
		dispatch: newDispatch(onMessage, onLog),
		log:      logger,
		done:     make(chan struct{}),
	}
}

// newDispatch resolves the routing rules once, so the receive loop never checks for missing handlers.
func newDispatch(onMessage MessageHandler, onLog LogHandler) func(Message) error {
	generic := func(Message) error { return nil }
	if onMessage != nil {
		generic = func(msg Message) error { return onMessage(msg.Worker, msg.Kind, msg.Payload) }
	}
	if onLog == nil {
		return generic // log messages fall through untouched
	}
	return func(msg Message) error {
		if msg.Kind == KindLog {
			if rec, ok := msg.Payload.(LogRecord); ok {
				return onLog(msg.Worker, rec.Level, rec.Text)
			}
		}
		return generic(msg)
	}
}

// Start launches the receive loop. Calling it again has no effect. The loop ends when the channel is
// closed and drained, when ctx is done, or when a handler returns a fatal error.
func (l *Listener) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		l.state.Store(int32(ListenerRunning))
		go l.run(ctx)
	})
}

// State returns the current lifecycle state.
func (l *Listener) State() ListenerState { return ListenerState(l.state.Load()) }

// Done is closed once the loop goroutine has exited.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Err returns the fatal error which stopped the loop, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Wait blocks until the loop goroutine exits and returns Err.
func (l *Listener) Wait() error {
	<-l.done
	return l.Err()
}

// Stats returns the dispatch counters.
func (l *Listener) Stats() ListenerStats {
	return ListenerStats{Delivered: l.delivered.Load(), Failed: l.failed.Load()}
}

func (l *Listener) run(ctx context.Context) {
	defer func() {
		l.state.Store(int32(ListenerTerminated))
		close(l.done)
	}()

	for {
		msg, err := l.ch.Receive(ctx)
		if err != nil {
			if !errors.Is(err, ErrChannelClosed) {
				l.stop(err)
			}
			l.state.Store(int32(ListenerStopped))
			return
		}

		err = l.deliver(msg)
		if err == nil {
			l.delivered.Add(1)
			continue
		}
		l.failed.Add(1)
		if IsFatal(err) {
			l.log.Error("handler failed, stopping listener",
				zap.Int("worker", int(msg.Worker)), zap.Int("job", msg.Job), zap.Error(err))
			l.stop(err)
			l.state.Store(int32(ListenerStopped))
			return
		}
		l.log.Error("handler failed",
			zap.Int("worker", int(msg.Worker)), zap.Int("job", msg.Job), zap.String("kind", string(msg.Kind)), zap.Error(err))
	}
}

// deliver runs the dispatch for one message, turning a handler panic into an error.
func (l *Listener) deliver(msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError("handler", rec)
		}
	}()
	return l.dispatch(msg)
}

func (l *Listener) stop(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}
