// Package command runs shell command lines as relay jobs.
//
// Each command runs in its own OS process. Its standard output lines are relayed as info logs and its standard
// error lines as error logs, while it runs.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/fogfactory/relay"
	"github.com/samber/lo"
)

const DefaultShell = "/bin/sh"

// Outcome is what a command job returns.
type Outcome struct {
	Command  string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status 0.
func (o Outcome) Success() bool { return o.ExitCode == 0 }

// Runner runs command lines through a shell. The zero value uses DefaultShell in the current directory.
type Runner struct {
	Shell string
	Dir   string
	Env   []string // added to the current environment
}

// Run runs line and waits for it. A command exiting with a non zero status is not an error: its status is
// reported in the Outcome. Failing to start the command, or to read its output, is.
//
// Run is a relay.JobFunc[string, Outcome].
func (r Runner) Run(ctx context.Context, line string, h *relay.Handle) (Outcome, error) {
	shell := lo.Ternary(r.Shell == "", DefaultShell, r.Shell)
	cmd := exec.CommandContext(ctx, shell, "-c", line)
	cmd.Dir = r.Dir
	killGroupOnCancel(cmd)
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("start %q: %w", line, err)
	}

	var wg sync.WaitGroup
	var readErrs [2]error
	for i, stream := range []struct {
		r   io.Reader
		log func(string) error
	}{{stdout, h.Info}, {stderr, h.Error}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			readErrs[i] = forward(stream.r, stream.log)
		}()
	}
	wg.Wait() // pipes must be drained before Wait
	err = cmd.Wait()
	outcome := Outcome{Command: line, ExitCode: -1, Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return outcome, ctx.Err()
	case errors.As(err, &exitErr):
		_ = h.Errorf("exited with status %d", outcome.ExitCode)
	case err != nil:
		return outcome, fmt.Errorf("wait %q: %w", line, err)
	}
	if err := errors.Join(readErrs[:]...); err != nil {
		return outcome, fmt.Errorf("read output of %q: %w", line, err)
	}
	return outcome, nil
}

// forward relays every line of r. Send failures are remembered by the handle, so reading goes on to let the
// process finish.
func forward(r io.Reader, log func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		_ = log(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// ParseLines reads one command per line. Blank lines and lines starting with # are skipped.
func ParseLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lo.Filter(lines, func(line string, _ int) bool {
		return line != "" && !strings.HasPrefix(line, "#")
	}), nil
}
