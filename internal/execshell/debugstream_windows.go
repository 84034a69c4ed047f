//go:build windows

package execshell

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/gofrs/flock"
	"golang.org/x/sys/windows"
)

const (
	debugBufferNameConstant            = "DBWIN_BUFFER"
	debugBufferReadyEventNameConstant  = "DBWIN_BUFFER_READY"
	debugDataReadyEventNameConstant    = "DBWIN_DATA_READY"
	debugBufferSizeConstant            = 4096
	debugBufferProcessIdentifierLength = 4
	debugStreamLockFileNameConstant    = "toolrun-dbwin.lock"
	debugStreamOpenErrorTemplate       = "execshell: open %s: %w"

	// SetErrorMode flags: no critical-error handler box, no GP fault box, no missing-file box.
	semFailCriticalErrors = 0x0001
	semNoGPFaultErrorBox  = 0x0002
	semNoOpenFileErrorBox = 0x8000
)

// debugStringCapture implements the DBWIN_BUFFER protocol used by OutputDebugString.
// Only strings emitted by the attached process are forwarded.
type debugStringCapture struct {
	hostLock *flock.Flock

	bufferReadyEvent windows.Handle
	dataReadyEvent   windows.Handle
	stopEvent        windows.Handle
	bufferMapping    windows.Handle
	bufferView       uintptr

	processIdentifier uint32
	attached          bool

	outputReader *io.PipeReader
	outputWriter *io.PipeWriter

	readerDone chan struct{}
	stopOnce   sync.Once
	stopError  error
}

func newPlatformAuxiliaryCapture() AuxiliaryCapture {
	outputReader, outputWriter := io.Pipe()
	return &debugStringCapture{
		hostLock:     flock.New(filepath.Join(os.TempDir(), debugStreamLockFileNameConstant)),
		outputReader: outputReader,
		outputWriter: outputWriter,
		readerDone:   make(chan struct{}),
	}
}

func suppressHostCrashDialogs() {
	windows.SetErrorMode(semFailCriticalErrors | semNoGPFaultErrorBox | semNoOpenFileErrorBox)
}

// Open takes the host-wide lock and creates the shared buffer and events.
func (capture *debugStringCapture) Open() error {
	locked, lockError := capture.hostLock.TryLock()
	if lockError != nil {
		return lockError
	}
	if !locked {
		return ErrDebugStreamBusy
	}

	var openError error
	if capture.bufferReadyEvent, openError = createNamedEvent(debugBufferReadyEventNameConstant); openError != nil {
		capture.release()
		return openError
	}
	if capture.dataReadyEvent, openError = createNamedEvent(debugDataReadyEventNameConstant); openError != nil {
		capture.release()
		return openError
	}
	if capture.stopEvent, openError = windows.CreateEvent(nil, 1, 0, nil); openError != nil {
		capture.release()
		return fmt.Errorf(debugStreamOpenErrorTemplate, "stop event", openError)
	}

	bufferName, nameError := windows.UTF16PtrFromString(debugBufferNameConstant)
	if nameError != nil {
		capture.release()
		return nameError
	}
	if capture.bufferMapping, openError = ownedHandle(windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, debugBufferSizeConstant, bufferName)); openError != nil {
		capture.release()
		return fmt.Errorf(debugStreamOpenErrorTemplate, debugBufferNameConstant, openError)
	}
	if capture.bufferView, openError = windows.MapViewOfFile(capture.bufferMapping, windows.FILE_MAP_READ, 0, 0, debugBufferSizeConstant); openError != nil {
		capture.release()
		return fmt.Errorf(debugStreamOpenErrorTemplate, debugBufferNameConstant, openError)
	}
	return nil
}

// Attach restricts forwarding to strings emitted by the given process.
func (capture *debugStringCapture) Attach(processIdentifier int) error {
	capture.processIdentifier = uint32(processIdentifier)
	capture.attached = true
	return nil
}

// Start begins forwarding debug strings to Output.
func (capture *debugStringCapture) Start() error {
	if !capture.attached {
		return ErrDebugStreamNotAttached
	}
	go capture.forward()
	return nil
}

// Output yields one line per debug string.
func (capture *debugStringCapture) Output() io.Reader {
	return capture.outputReader
}

// Stop ends forwarding, closes Output and releases every handle.
func (capture *debugStringCapture) Stop() error {
	capture.stopOnce.Do(func() {
		if capture.stopEvent != 0 {
			capture.stopError = windows.SetEvent(capture.stopEvent)
		}
		if capture.attached {
			<-capture.readerDone
		}
		capture.outputWriter.Close()
		capture.release()
	})
	return capture.stopError
}

func (capture *debugStringCapture) forward() {
	defer close(capture.readerDone)

	bufferContent := unsafe.Slice((*byte)(unsafe.Pointer(capture.bufferView)), debugBufferSizeConstant)
	waitHandles := []windows.Handle{capture.dataReadyEvent, capture.stopEvent}
	for {
		if setError := windows.SetEvent(capture.bufferReadyEvent); setError != nil {
			return
		}

		waitResult, waitError := windows.WaitForMultipleObjects(waitHandles, false, windows.INFINITE)
		if waitError != nil || waitResult != windows.WAIT_OBJECT_0 {
			return
		}

		emitterIdentifier := binary.LittleEndian.Uint32(bufferContent[:debugBufferProcessIdentifierLength])
		if emitterIdentifier != capture.processIdentifier {
			continue
		}

		message := bufferContent[debugBufferProcessIdentifierLength:]
		messageLength := 0
		for messageLength < len(message) && message[messageLength] != 0 {
			messageLength++
		}

		line := make([]byte, 0, messageLength+1)
		line = append(line, message[:messageLength]...)
		if messageLength == 0 || line[messageLength-1] != lineDelimiterConstant {
			line = append(line, lineDelimiterConstant)
		}
		if _, writeError := capture.outputWriter.Write(line); writeError != nil {
			return
		}
	}
}

func (capture *debugStringCapture) release() {
	if capture.bufferView != 0 {
		windows.UnmapViewOfFile(capture.bufferView)
		capture.bufferView = 0
	}
	for _, handle := range []*windows.Handle{&capture.bufferMapping, &capture.stopEvent, &capture.dataReadyEvent, &capture.bufferReadyEvent} {
		if *handle != 0 {
			windows.CloseHandle(*handle)
			*handle = 0
		}
	}
	capture.hostLock.Unlock()
}

func createNamedEvent(eventName string) (windows.Handle, error) {
	encodedName, nameError := windows.UTF16PtrFromString(eventName)
	if nameError != nil {
		return 0, nameError
	}
	eventHandle, createError := ownedHandle(windows.CreateEvent(nil, 0, 0, encodedName))
	if createError != nil {
		return 0, fmt.Errorf(debugStreamOpenErrorTemplate, eventName, createError)
	}
	return eventHandle, nil
}

// ownedHandle closes a handle returned alongside an error. Named objects come back
// valid with ERROR_ALREADY_EXISTS when another debugger already owns them.
func ownedHandle(handle windows.Handle, createError error) (windows.Handle, error) {
	if createError == nil {
		return handle, nil
	}
	if handle != 0 && handle != windows.InvalidHandle {
		windows.CloseHandle(handle)
	}
	return 0, createError
}
