//go:build unix

package execshell

import (
	"os"
	"syscall"
)

const signalExitCodeBaseConstant = 128

func signalExitCode(processState *os.ProcessState) (int, bool) {
	if processState == nil {
		return 0, false
	}
	waitStatus, statusAvailable := processState.Sys().(syscall.WaitStatus)
	if !statusAvailable || !waitStatus.Signaled() {
		return 0, false
	}
	return signalExitCodeBaseConstant + int(waitStatus.Signal()), true
}
