package relay

import (
	"io"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap/zapcore"
)

// Pool returns the underlying pool
func (s *Supervisor[A, R]) Pool() *ants.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// NewHandle builds a handle outside of a supervisor, with a fixed clock
func NewHandle(ch *Channel, worker WorkerID, job int, now time.Time) *Handle {
	h := newHandle(ch, worker, job)
	h.now = func() time.Time { return now }
	return h
}

// Backlog returns the read offset and the length of the channel buffer
func (c *Channel) Backlog() (head, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, len(c.items)
}

// SetDiagnostics redirects the fallback logger output, and returns a function restoring it
func SetDiagnostics(w io.Writer) (restore func()) {
	previous := diagnostics
	diagnostics = zapcore.AddSync(w)
	return func() { diagnostics = previous }
}
