// Package console prints relayed messages on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fogfactory/relay"
)

// Printer writes one line per message: "15:04:05 [w2] INFO  text".
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	now    func() time.Time
	levels map[relay.Level]*color.Color
	plain  *color.Color
	worker *color.Color
}

// New builds a printer writing to out. noColor disables colors whatever the terminal supports.
func New(out io.Writer, noColor bool) *Printer {
	p := &Printer{
		out: out,
		now: time.Now,
		levels: map[relay.Level]*color.Color{
			relay.LevelDebug: color.New(color.FgHiBlack),
			relay.LevelInfo:  color.New(color.FgGreen),
			relay.LevelWarn:  color.New(color.FgYellow),
			relay.LevelError: color.New(color.FgRed, color.Bold),
		},
		plain:  color.New(color.FgWhite),
		worker: color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range p.levels {
			c.DisableColor()
		}
		p.plain.DisableColor()
		p.worker.DisableColor()
	}
	return p
}

// Log is a relay.LogHandler.
func (p *Printer) Log(worker relay.WorkerID, level relay.Level, text string) error {
	return p.print(p.now(), worker, strings.ToUpper(string(level)), p.colorOf(level), text)
}

// Message is a relay.MessageHandler. Log messages reaching it are printed like Log does, with their own time.
func (p *Printer) Message(worker relay.WorkerID, kind relay.Kind, payload any) error {
	if rec, ok := payload.(relay.LogRecord); ok && kind == relay.KindLog {
		return p.print(rec.Time, worker, strings.ToUpper(string(rec.Level)), p.colorOf(rec.Level), rec.Text)
	}
	return p.print(p.now(), worker, "MSG", p.plain, fmt.Sprint(payload))
}

func (p *Printer) colorOf(level relay.Level) *color.Color {
	if c, ok := p.levels[level]; ok {
		return c
	}
	return p.plain
}

func (p *Printer) print(at time.Time, worker relay.WorkerID, tag string, c *color.Color, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.out, "%s %s %s %s\n",
		at.Format(time.TimeOnly),
		p.worker.Sprintf("[w%d]", worker),
		c.Sprintf("%-5s", tag),
		text)
	return err
}
