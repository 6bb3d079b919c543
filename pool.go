package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// JobFunc runs one job. args is the job description, h reports progress to the coordinator.
type JobFunc[A, R any] func(ctx context.Context, args A, h *Handle) (R, error)

// Supervisor runs jobs on a bounded set of workers. Each job gets its own Handle on the shared channel
// and a Future for its result.
type Supervisor[A, R any] struct {
	pool  *ants.Pool
	ch    *Channel
	do    JobFunc[A, R]
	slots chan WorkerID // free worker ids, at most pool size jobs hold one
	log   *zap.Logger

	mu     sync.Mutex
	closed bool
	next   int

	active atomic.Int64
	wg     sync.WaitGroup
}

// NewSupervisorWithOptions builds a supervisor running at most workers jobs at once. opts are passed to the
// underlying ants pool.
func NewSupervisorWithOptions[A, R any](workers int, ch *Channel, do JobFunc[A, R], logger *zap.Logger, opts ...ants.Option) (*Supervisor[A, R], error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, workers)
	}
	if ch == nil || do == nil {
		return nil, fmt.Errorf("%w: supervisor needs a channel and a job function", ErrInvalidConfig)
	}
	pool, err := ants.NewPool(workers, opts...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	slots := make(chan WorkerID, workers)
	for i := 1; i <= workers; i++ {
		slots <- WorkerID(i)
	}
	return &Supervisor[A, R]{
		pool:  pool,
		ch:    ch,
		do:    do,
		slots: slots,
		log:   logger,
	}, nil
}

// NewSupervisor builds a supervisor with default pool options and no diagnostic logging.
func NewSupervisor[A, R any](workers int, ch *Channel, do JobFunc[A, R]) (*Supervisor[A, R], error) {
	return NewSupervisorWithOptions(workers, ch, do, nil)
}

// Submit queues a job. It blocks while every worker is busy, unless the pool was built non-blocking.
// Jobs are indexed in submission order, starting at 0.
func (s *Supervisor[A, R]) Submit(ctx context.Context, args A) (*Future[R], error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrPoolClosed
	}
	index := s.next
	s.next++
	s.active.Add(1)
	s.wg.Add(1)
	s.mu.Unlock()

	future := newFuture[R](index)
	err := s.pool.Submit(func() { s.execute(ctx, index, args, future) })
	if err != nil {
		s.active.Add(-1)
		s.wg.Done()
		return nil, fmt.Errorf("submit job %d: %w", index, err)
	}
	return future, nil
}

func (s *Supervisor[A, R]) execute(ctx context.Context, index int, args A, future *Future[R]) {
	worker := <-s.slots
	h := newHandle(s.ch, worker, index)
	log := s.log.With(zap.Int("worker", int(worker)), zap.Int("job", index))
	log.Debug("job started")

	var result Result[R]
	defer func() {
		if rec := recover(); rec != nil {
			result = Result[R]{Err: panicError("worker", rec)}
		}
		if result.Err == nil {
			// a job that lost the coordinator fails even if it ignored the send error
			result.Err = h.Err()
		}
		if result.Err != nil {
			log.Debug("job failed", zap.Error(result.Err))
		} else {
			log.Debug("job done")
		}
		s.slots <- worker
		future.resolve(result)
		s.active.Add(-1)
		s.wg.Done()
	}()

	if err := ctx.Err(); err != nil { // the run was aborted while the job waited for a worker
		result = Result[R]{Err: err}
		return
	}
	value, err := s.do(ctx, args, h)
	result = Result[R]{Value: value, Err: err}
}

// Close stops accepting new jobs. Jobs already submitted keep running.
func (s *Supervisor[A, R]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Supervisor[A, R]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Active returns the number of submitted jobs which have not completed yet.
func (s *Supervisor[A, R]) Active() int {
	return int(s.active.Load())
}

// AwaitIdle polls Active every interval until it drops to zero. Only the jobs are polled, never the channel,
// so a worker still sending its last messages cannot wedge the wait. abort is checked on every poll; a non nil
// error stops the wait and is returned. The context error is returned if ctx is done first.
func (s *Supervisor[A, R]) AwaitIdle(ctx context.Context, interval time.Duration, abort func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if abort != nil {
			if err := abort(); err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		if n := s.Active(); n > 0 {
			return struct{}{}, fmt.Errorf("%d jobs still active", n)
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}

// Join waits for every submitted job, then releases the pool and waits for its workers to exit.
// Call it after AwaitIdle: it blocks for as long as a job runs.
func (s *Supervisor[A, R]) Join(timeout time.Duration) error {
	s.wg.Wait()
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("join workers: %w", err)
	}
	return nil
}

// Release frees the pool without waiting for running jobs.
func (s *Supervisor[A, R]) Release() {
	s.pool.Release()
}
