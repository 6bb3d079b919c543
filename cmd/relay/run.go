package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fogfactory/relay"
	"github.com/fogfactory/relay/internal/command"
	"github.com/fogfactory/relay/internal/console"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] [command...]",
		Short: "Run each command (or each line of --file) on a bounded pool, printing their output as it comes",
		Example: `  relay run -w 4 "make -C a" "make -C b"
  relay run -f jobs.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := jobLines(v.GetString("file"), args)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return errors.New("no command to run")
			}

			printer := console.New(cmd.OutOrStdout(), v.GetBool("no-color"))
			cfg := relay.DefaultConfig()
			cfg.Workers = lo.Ternary(v.GetInt("workers") > 0, v.GetInt("workers"), cfg.Workers)
			cfg.CheckInterval = v.GetDuration("interval")
			cfg.DrainTimeout = v.GetDuration("drain-timeout")
			cfg.MessageHandler = printer.Message
			cfg.LogHandler = printer.Log
			cfg.Logger = zap.L().Named("relay")

			runner := command.Runner{Shell: v.GetString("shell"), Dir: v.GetString("dir")}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			results, err := relay.Run(ctx, cfg, runner.Run, lines)
			if err != nil {
				return err
			}
			return summarize(cmd.OutOrStdout(), lines, results)
		},
	}

	flags := cmd.Flags()
	flags.IntP("workers", "w", 0, "Number of commands running at once (0: one per CPU)")
	flags.StringP("file", "f", "", "File holding one command per line ('-' for stdin)")
	flags.Duration("interval", relay.DefaultConfig().CheckInterval, "Polling interval while waiting for the last commands")
	flags.Duration("drain-timeout", relay.DefaultConfig().DrainTimeout, "How long to wait for late output once every command is done (negative: no limit)")
	flags.String("shell", command.DefaultShell, "Shell used to run each command")
	flags.String("dir", "", "Working directory of the commands")
	flags.Bool("no-color", false, "Disable colored output")
	return cmd
}

// jobLines returns the commands given as arguments, followed by those read from file.
func jobLines(file string, args []string) ([]string, error) {
	if file == "" {
		return args, nil
	}
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	lines, err := command.ParseLines(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return append(args, lines...), nil
}

// summarize prints one line per command and fails if any command did.
func summarize(out io.Writer, lines []string, results []relay.Result[command.Outcome]) error {
	failed := 0
	fmt.Fprintln(out)
	for i, r := range results {
		outcome, err := r.Get()
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(out, "#%d %q: %v\n", i, lines[i], err)
		case !outcome.Success():
			failed++
			fmt.Fprintf(out, "#%d %q: exit %d after %s\n", i, lines[i], outcome.ExitCode, outcome.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(out, "#%d %q: ok after %s\n", i, lines[i], outcome.Duration.Round(time.Millisecond))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(results))
	}
	return nil
}
