package execshell

import (
	"context"
	"time"
)

// HeartbeatNotifier receives keepalive notifications.
type HeartbeatNotifier interface {
	Keepalive(commandLine CommandLine, sequence int)
}

// HeartbeatNotifierFunc adapts a function to HeartbeatNotifier.
type HeartbeatNotifierFunc func(commandLine CommandLine, sequence int)

// Keepalive calls the wrapped function.
func (notifierFunction HeartbeatNotifierFunc) Keepalive(commandLine CommandLine, sequence int) {
	notifierFunction(commandLine, sequence)
}

// HeartbeatWorker emits one keepalive per interval while a child process runs.
// The n-th notification is scheduled at start+n*interval on the monotonic clock,
// so a late wakeup never accumulates drift or triggers a burst.
type HeartbeatWorker struct {
	commandLine CommandLine
	interval    time.Duration
	notifier    HeartbeatNotifier
}

// NewHeartbeatWorker returns nil when the interval is not positive; a nil worker is disabled.
func NewHeartbeatWorker(commandLine CommandLine, interval time.Duration, notifier HeartbeatNotifier) *HeartbeatWorker {
	if interval <= 0 || notifier == nil {
		return nil
	}
	return &HeartbeatWorker{commandLine: commandLine, interval: interval, notifier: notifier}
}

// Run blocks until the context is cancelled. No notification is emitted after cancellation.
func (worker *HeartbeatWorker) Run(executionContext context.Context) {
	if worker == nil {
		return
	}

	startTime := time.Now()
	sequence := 1
	heartbeatTimer := time.NewTimer(worker.interval)
	defer heartbeatTimer.Stop()

	for {
		select {
		case <-executionContext.Done():
			return
		case <-heartbeatTimer.C:
		}

		if executionContext.Err() != nil {
			return
		}
		worker.notifier.Keepalive(worker.commandLine, sequence)

		elapsed := time.Since(startTime)
		sequence = int(elapsed/worker.interval) + 1
		nextDeadline := time.Duration(sequence) * worker.interval
		heartbeatTimer.Reset(nextDeadline - elapsed)
	}
}
