package console_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fogfactory/relay"
	"github.com/fogfactory/relay/internal/console"
	"github.com/maxatome/go-testdeep/td"
)

func TestPrinter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 15, 0, time.UTC)

	t.Run("log_lines", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		p := console.New(&buf, true)
		p.SetClock(now)

		// Act
		td.CmpNoError(t, p.Log(2, relay.LevelInfo, "start"))
		td.CmpNoError(t, p.Log(10, relay.LevelError, "boom"))
		td.CmpNoError(t, p.Log(1, "trace", "custom"))

		// Assert
		td.Cmp(t, buf.String(), ""+
			"12:30:15 [w2] INFO  start\n"+
			"12:30:15 [w10] ERROR boom\n"+
			"12:30:15 [w1] TRACE custom\n")
	})

	t.Run("generic_and_fallthrough_messages", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		p := console.New(&buf, true)
		p.SetClock(now)
		logged := now.Add(-time.Minute)

		// Act
		td.CmpNoError(t, p.Message(3, relay.KindGeneric, map[string]int{"done": 1}))
		td.CmpNoError(t, p.Message(3, relay.KindLog, relay.LogRecord{Time: logged, Level: relay.LevelWarn, Text: "slow"}))

		// Assert
		td.Cmp(t, buf.String(), ""+
			"12:30:15 [w3] MSG   map[done:1]\n"+
			"12:29:15 [w3] WARN  slow\n")
	})

	t.Run("as_run_handlers", func(t *testing.T) {
		// Arrange
		var buf bytes.Buffer
		p := console.New(&buf, true)
		cfg := relay.DefaultConfig()
		cfg.Workers = 1
		cfg.DrainTimeout = -1
		cfg.MessageHandler = p.Message
		cfg.LogHandler = p.Log

		// Act
		_, err := relay.Run(context.Background(), cfg, func(_ context.Context, x int, h *relay.Handle) (int, error) {
			return x, h.Warnf("job %d", x)
		}, []int{7})

		// Assert
		td.CmpNoError(t, err)
		td.Cmp(t, buf.String(), td.Re(`^\d\d:\d\d:\d\d \[w1\] WARN  job 7\n$`))
	})
}
