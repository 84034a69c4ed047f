//go:build windows

package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestDebugStringCaptureReleasesHandlesWhenChannelIsOwned(testInstance *testing.T) {
	eventName, nameError := windows.UTF16PtrFromString(debugBufferReadyEventNameConstant)
	require.NoError(testInstance, nameError)

	foreignEvent, foreignError := windows.CreateEvent(nil, 0, 0, eventName)
	if foreignError != nil {
		if foreignEvent != 0 {
			windows.CloseHandle(foreignEvent)
		}
		testInstance.Skip("another debugger owns the debug string channel")
	}

	capture := newPlatformAuxiliaryCapture()
	require.ErrorIs(testInstance, capture.Open(), windows.ERROR_ALREADY_EXISTS)
	require.NoError(testInstance, windows.CloseHandle(foreignEvent))

	recreatedEvent, recreateError := windows.CreateEvent(nil, 0, 0, eventName)
	require.NoError(testInstance, recreateError)
	require.NoError(testInstance, windows.CloseHandle(recreatedEvent))
}

func TestOwnedHandleClosesHandleOnError(testInstance *testing.T) {
	eventHandle, createError := windows.CreateEvent(nil, 0, 0, nil)
	require.NoError(testInstance, createError)

	handle, ownedError := ownedHandle(eventHandle, windows.ERROR_ALREADY_EXISTS)
	require.Zero(testInstance, handle)
	require.ErrorIs(testInstance, ownedError, windows.ERROR_ALREADY_EXISTS)
	require.Error(testInstance, windows.CloseHandle(eventHandle))
}
