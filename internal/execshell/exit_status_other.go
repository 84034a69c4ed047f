//go:build !unix

package execshell

import "os"

// Windows reports termination through the exit status itself.
func signalExitCode(*os.ProcessState) (int, bool) {
	return 0, false
}
