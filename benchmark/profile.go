package benchmark

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fogfactory/relay"
	"github.com/samber/lo"
)

// Profile generates a cpu profile of a relay run. It will be outputted as relay_{date}_w{workers}_j{jobs}_m{messages}.prof.
//
// - workers Pool size.
// - jobs Number of jobs.
// - messages Number of messages sent by each job.
//
// use pprof to read the file (go install github.com/google/pprof@latest).
func Profile(workers, jobs, messages int) {
	// Profile file
	f, err := os.Create(fmt.Sprintf("relay_%s_w%d_j%d_m%d.prof",
		strings.ReplaceAll(time.Now().Truncate(time.Second).Format(time.DateTime), " ", "-"),
		workers, jobs, messages))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer f.Close()

	// Init run
	var received atomic.Int64
	cfg := relay.DefaultConfig()
	cfg.Workers = workers
	cfg.DrainTimeout = -1
	cfg.MessageHandler = func(relay.WorkerID, relay.Kind, any) error {
		received.Add(1)
		return nil
	}
	cfg.LogHandler = func(relay.WorkerID, relay.Level, string) error {
		received.Add(1)
		return nil
	}
	dumbJob := func(_ context.Context, job int, h *relay.Handle) (int, error) {
		for i := 0; i < messages; i++ {
			var err error
			if i%2 == 0 {
				err = h.SendMessage(i)
			} else {
				err = h.Infof("job %d step %d", job, i)
			}
			if err != nil {
				return 0, err
			}
		}
		return job, nil
	}

	fmt.Println("total messages: ", jobs*messages)

	// Start profiling
	func() {
		_ = pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()

		start := time.Now()
		results, err := relay.Run(context.Background(), cfg, dumbJob, lo.Range(jobs))
		if err != nil {
			fmt.Println(err)
			return
		}
		elapsed := time.Since(start)
		fmt.Printf("(run: %s, %d results, %d messages, %.0f msg/s)\n",
			elapsed, len(results), received.Load(), float64(received.Load())/elapsed.Seconds())
	}()

	fmt.Printf("profile:%s\n", f.Name())

	// Call pprof on a file
	// pprof -http=:8080 $file
}
