package console

import "time"

// SetClock freezes the printer clock
func (p *Printer) SetClock(now time.Time) {
	p.now = func() time.Time { return now }
}
