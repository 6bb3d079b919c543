package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Run executes do once per entry of jobs on a pool of cfg.Workers workers, relaying the messages the jobs send
// through their Handle to cfg.MessageHandler and cfg.LogHandler while they run.
//
// Results are returned in the order of jobs. A failed job only fails its own Result. Run itself fails, without
// results, when the coordination breaks: ctx is done, a handler returns a Fatal error, or the pool cannot be
// joined.
func Run[A, R any](ctx context.Context, cfg Config, do JobFunc[A, R], jobs []A) ([]Result[R], error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger.With(zap.String("run", uuid.NewString()))
	log.Debug("run started", zap.Int("workers", cfg.Workers), zap.Int("jobs", len(jobs)))

	// Phase 1: the channel and its consumer, alive until every result is in.
	ch := NewChannel()
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	listener := NewListener(ch, cfg.MessageHandler, cfg.LogHandler, log)
	listener.Start(listenCtx)

	// Phase 2: the worker set.
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	supervisor, err := NewSupervisorWithOptions(cfg.Workers, ch, do, log, cfg.PoolOptions...)
	if err != nil {
		ch.Close()
		return nil, err
	}

	abort := func(err error) error {
		cancelJobs()
		supervisor.Close()
		supervisor.Release()
		ch.Close() // pending sends now fail their job
		log.Error("run aborted", zap.Error(err))
		return fmt.Errorf("coordination aborted: %w", err)
	}

	// A listener stopping on a fatal error cancels the jobs right away, not at the next poll.
	go func() {
		select {
		case <-listener.Done():
			if listener.Err() != nil {
				cancelJobs()
			}
		case <-jobCtx.Done():
		}
	}()

	futures := make([]*Future[R], 0, len(jobs))
	for _, args := range jobs {
		if err := lo.CoalesceOrEmpty(listener.Err(), ctx.Err()); err != nil {
			return nil, abort(err)
		}
		future, err := supervisor.Submit(jobCtx, args)
		if err != nil {
			return nil, abort(err)
		}
		futures = append(futures, future)
	}
	supervisor.Close()

	// Wait on the workers only. The channel stays open so their last messages are still accepted.
	if err := supervisor.AwaitIdle(ctx, cfg.CheckInterval, listener.Err); err != nil {
		return nil, abort(err)
	}
	if err := supervisor.Join(cfg.JoinTimeout); err != nil {
		return nil, abort(err)
	}
	// Every future is resolved once joined.
	results := Collect(context.Background(), futures)

	ch.Close()
	drain(listener, ch, cfg.DrainTimeout, log)
	if err := listener.Err(); err != nil {
		return nil, fmt.Errorf("coordination aborted: %w", err)
	}

	stats := listener.Stats()
	log.Debug("run done", zap.Int64("delivered", stats.Delivered), zap.Int64("failed", stats.Failed))
	return results, nil
}

// drain waits for the listener to deliver what is left in the closed channel.
func drain(listener *Listener, ch *Channel, timeout time.Duration, log *zap.Logger) {
	if timeout < 0 {
		<-listener.Done()
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-listener.Done():
	case <-timer.C:
		log.Warn("listener did not drain in time", zap.Duration("timeout", timeout), zap.Int("pending", ch.Len()))
	}
}
