package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/fogfactory/relay"
	"github.com/maxatome/go-testdeep/td"
)

func drainAll(t testing.TB, ch *relay.Channel) []relay.Message {
	ch.Close()
	var msgs []relay.Message
	for {
		msg, err := ch.Receive(context.Background())
		if err != nil {
			td.Require(t).CmpErrorIs(err, relay.ErrChannelClosed)
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestHandle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("send_message", func(t *testing.T) {
		// Arrange
		ch := relay.NewChannel()
		h := relay.NewHandle(ch, 2, 7, now)

		// Act
		err := h.SendMessage(map[string]int{"done": 3})

		// Assert
		td.CmpNoError(t, err)
		td.Cmp(t, drainAll(t, ch), []relay.Message{
			{Worker: 2, Job: 7, Kind: relay.KindGeneric, Payload: map[string]int{"done": 3}},
		})
	})

	t.Run("log_levels", func(t *testing.T) {
		// Arrange
		ch := relay.NewChannel()
		h := relay.NewHandle(ch, 1, 0, now)

		// Act
		td.CmpNoError(t, h.Info("start"))
		td.CmpNoError(t, h.Error("boom"))
		td.CmpNoError(t, h.Warn("careful"))
		td.CmpNoError(t, h.Debug("details"))
		td.CmpNoError(t, h.Infof("%d%%", 50))
		td.CmpNoError(t, h.Log("trace", "custom level"))

		// Assert
		logOf := func(level relay.Level, text string) relay.Message {
			return relay.Message{Worker: 1, Kind: relay.KindLog, Payload: relay.LogRecord{Time: now, Level: level, Text: text}}
		}
		td.Cmp(t, drainAll(t, ch), []relay.Message{
			logOf(relay.LevelInfo, "start"),
			logOf(relay.LevelError, "boom"),
			logOf(relay.LevelWarn, "careful"),
			logOf(relay.LevelDebug, "details"),
			logOf(relay.LevelInfo, "50%"),
			logOf("trace", "custom level"),
		})
	})

	t.Run("identity", func(t *testing.T) {
		h := relay.NewHandle(relay.NewChannel(), 4, 9, now)

		td.Cmp(t, h.Worker(), relay.WorkerID(4))
		td.Cmp(t, h.Job(), 9)
	})

	t.Run("error_closed_channel", func(t *testing.T) {
		// Arrange
		ch := relay.NewChannel()
		ch.Close()
		h := relay.NewHandle(ch, 1, 3, now)

		// Act
		err := h.Info("lost")
		second := h.SendMessage("lost too")

		// Assert
		td.CmpErrorIs(t, err, relay.ErrChannelClosed)
		td.CmpContains(t, err, "worker 1, job 3")
		td.CmpErrorIs(t, second, relay.ErrChannelClosed)
		td.Cmp(t, h.Err(), err, "first failure is remembered")
	})
}
