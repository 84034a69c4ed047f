// Package execshell runs external build tools as supervised child processes.
//
// ProcessSupervisor owns one child per call: it sanitizes the command line for
// MSYS shells, spawns the executable with its standard streams on pipes, drains
// every stream concurrently into a StreamSink, emits keepalive notifications for
// long silent tools, and on Windows also drains the debug strings the child
// emits through OutputDebugString. Execute streams output to a zap logger as it
// arrives; CaptureOutput buffers it and returns the decoded text.
package execshell
