//go:build unix

package command

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel runs the command in its own process group and kills the whole group when the context is
// done, so that children of the shell cannot keep the output pipes open.
func killGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
