package execshell

import (
	"errors"
	"io"
)

var (
	// ErrDebugStreamBusy indicates that another monitor already owns the host's debug string channel.
	ErrDebugStreamBusy = errors.New("execshell: debug string channel already monitored")
	// ErrDebugStreamNotAttached indicates that Start was called before Attach.
	ErrDebugStreamNotAttached = errors.New("execshell: debug string capture not attached to a process")
)

// AuxiliaryCapture exposes a diagnostic output channel that is not one of the child's standard pipes.
//
// The supervisor calls Open before spawning the child so that nothing the child emits early is
// lost, Attach once the pid is known, Start to begin forwarding, and Stop before it returns.
// Output reports end-of-stream once Stop has completed.
type AuxiliaryCapture interface {
	Open() error
	Attach(processIdentifier int) error
	Start() error
	Output() io.Reader
	Stop() error
}

// AuxiliaryCaptureProvider returns the capture available on this host, or nil when there is none.
type AuxiliaryCaptureProvider func() AuxiliaryCapture

// PlatformAuxiliaryCaptureProvider returns the provider for the running operating system.
// Only Windows offers a capture; elsewhere the provider always returns nil.
func PlatformAuxiliaryCaptureProvider() AuxiliaryCaptureProvider {
	return newPlatformAuxiliaryCapture
}

// HostDialogSuppressor prevents crash dialogs from blocking unattended runs.
type HostDialogSuppressor func()

// PlatformHostDialogSuppressor returns the suppressor for the running operating system.
func PlatformHostDialogSuppressor() HostDialogSuppressor {
	return suppressHostCrashDialogs
}
