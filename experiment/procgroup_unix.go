//go:build unix

package experiment

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the experiment in its own process group and
// makes cancellation kill the whole group, so programs started by an
// experiment script die with it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
