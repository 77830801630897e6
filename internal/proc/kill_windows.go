//go:build windows

package proc

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}

// Windows has no SIGTERM equivalent for console children started this way;
// both stages kill the process outright.
func terminateGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func killGroup(cmd *exec.Cmd) {
	terminateGroup(cmd)
}
