//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr sets Linux-specific process attributes on cmd.
// Pdeathsig delivers SIGTERM to the emulator when the test binary dies
// abruptly, so crashed test runs do not leave orphaned emulator processes
// holding ports.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
