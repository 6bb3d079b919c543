package relay

import (
	"context"

	"github.com/samber/lo"
)

// Result holds what a job produced: its value or its failure.
type Result[R any] struct {
	Value R
	Err   error
}

// Get returns the job value, or the job failure.
func (r Result[R]) Get() (R, error) {
	return r.Value, r.Err
}

// Future is the pending result of a submitted job.
type Future[R any] struct {
	index  int
	done   chan struct{}
	result Result[R]
}

func newFuture[R any](index int) *Future[R] {
	return &Future[R]{index: index, done: make(chan struct{})}
}

// Index returns the submission index of the job.
func (f *Future[R]) Index() int { return f.index }

// Done is closed once the job has completed.
func (f *Future[R]) Done() <-chan struct{} { return f.done }

// Get blocks until the job completes and returns its result. If ctx is done first, the result carries
// the context error. A completed job always yields its own result.
func (f *Future[R]) Get(ctx context.Context) Result[R] {
	select {
	case <-f.done:
		return f.result
	default:
	}
	select {
	case <-f.done:
		return f.result
	case <-ctx.Done():
		return Result[R]{Err: ctx.Err()}
	}
}

// resolve must be called exactly once.
func (f *Future[R]) resolve(r Result[R]) {
	f.result = r
	close(f.done)
}

// Collect waits for every future in turn and returns the results in the same order.
func Collect[R any](ctx context.Context, futures []*Future[R]) []Result[R] {
	return lo.Map(futures, func(f *Future[R], _ int) Result[R] {
		return f.Get(ctx)
	})
}

// Values unwraps results. It returns the values in order, or the first failure as a *JobError.
func Values[R any](results []Result[R]) ([]R, error) {
	values := make([]R, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, &JobError{Index: i, Err: r.Err}
		}
		values = append(values, r.Value)
	}
	return values, nil
}
