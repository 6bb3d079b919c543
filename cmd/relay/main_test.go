package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// Act
		out, err := execute(t, "run", "--no-color", "-w", "2", "--interval", "5ms", "echo hello", "echo oops >&2")

		// Assert
		td.CmpNoError(t, err)
		td.CmpContains(t, out, "INFO  hello\n")
		td.CmpContains(t, out, "ERROR oops\n")
		td.Cmp(t, out, td.Re(`#0 "echo hello": ok after`))
		td.Cmp(t, out, td.Re(`#1 "echo oops >&2": ok after`))
	})

	t.Run("commands_from_file", func(t *testing.T) {
		// Arrange
		file := filepath.Join(t.TempDir(), "jobs.txt")
		td.Require(t).CmpNoError(os.WriteFile(file, []byte("# comment\necho from file\n\nexit 2\n"), 0o600))

		// Act
		out, err := execute(t, "run", "--no-color", "--interval", "5ms", "-f", file)

		// Assert
		td.CmpContains(t, err, "1 of 2 commands failed")
		td.CmpContains(t, out, "INFO  from file\n")
		td.CmpContains(t, out, "ERROR exited with status 2\n")
		td.Cmp(t, out, td.Re(`#1 "exit 2": exit 2 after`))
	})

	t.Run("error_no_command", func(t *testing.T) {
		_, err := execute(t, "run")

		td.CmpContains(t, err, "no command to run")
	})

	t.Run("error_missing_file", func(t *testing.T) {
		_, err := execute(t, "run", "-f", filepath.Join(t.TempDir(), "missing.txt"))

		td.CmpErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("error_log_level", func(t *testing.T) {
		_, err := execute(t, "--log-level", "loud", "run", "true")

		td.CmpContains(t, err, "invalid log level")
	})
}
