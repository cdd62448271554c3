//go:build unix

package judge

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the child in its own process group and makes
// context cancellation SIGKILL the whole group, so helpers the judge
// spawned do not outlive it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
