//go:build !windows

package execshell

func newPlatformAuxiliaryCapture() AuxiliaryCapture {
	return nil
}

func suppressHostCrashDialogs() {}
