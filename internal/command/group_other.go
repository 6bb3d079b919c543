//go:build !unix

package command

import "os/exec"

// killGroupOnCancel keeps the default behavior: only the shell process is killed.
func killGroupOnCancel(*exec.Cmd) {}
