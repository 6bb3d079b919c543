package relay

import (
	"fmt"
	"sync"
	"time"
)

// Handle is given to every job so it can report progress to the coordinator while it runs.
//
// A Handle is bound to one job. It is safe to use from goroutines started by that job.
type Handle struct {
	ch     *Channel
	worker WorkerID
	job    int
	now    func() time.Time

	mu  sync.Mutex
	err error // first failed send
}

func newHandle(ch *Channel, worker WorkerID, job int) *Handle {
	return &Handle{ch: ch, worker: worker, job: job, now: time.Now}
}

// Worker returns the pool slot running the job.
func (h *Handle) Worker() WorkerID { return h.worker }

// Job returns the submission index of the job.
func (h *Handle) Job() int { return h.job }

// SendMessage sends a generic message carrying payload.
func (h *Handle) SendMessage(payload any) error {
	return h.send(KindGeneric, payload)
}

// Log sends a log message with the given level.
func (h *Handle) Log(level Level, text string) error {
	return h.send(KindLog, LogRecord{Time: h.now(), Level: level, Text: text})
}

func (h *Handle) Debug(text string) error { return h.Log(LevelDebug, text) }

func (h *Handle) Info(text string) error { return h.Log(LevelInfo, text) }

func (h *Handle) Warn(text string) error { return h.Log(LevelWarn, text) }

func (h *Handle) Error(text string) error { return h.Log(LevelError, text) }

func (h *Handle) Debugf(format string, args ...any) error {
	return h.Log(LevelDebug, fmt.Sprintf(format, args...))
}

func (h *Handle) Infof(format string, args ...any) error {
	return h.Log(LevelInfo, fmt.Sprintf(format, args...))
}

func (h *Handle) Warnf(format string, args ...any) error {
	return h.Log(LevelWarn, fmt.Sprintf(format, args...))
}

func (h *Handle) Errorf(format string, args ...any) error {
	return h.Log(LevelError, fmt.Sprintf(format, args...))
}

// Err returns the first send failure seen by the handle, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) send(kind Kind, payload any) error {
	err := h.ch.Send(Message{Worker: h.worker, Job: h.job, Kind: kind, Payload: payload})
	if err != nil {
		err = fmt.Errorf("worker %d, job %d: %w", h.worker, h.job, err)
		h.mu.Lock()
		if h.err == nil {
			h.err = err
		}
		h.mu.Unlock()
	}
	return err
}
