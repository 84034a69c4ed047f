package utils

import "context"

type invocationContextKey struct{}

// Invocation describes one CLI invocation: where its configuration came from and the
// identifier that correlates its log entries with those of the process it supervises.
type Invocation struct {
	ConfigurationFilePath string
	Identifier            string
}

// CommandContextAccessor stores and retrieves invocation details on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithInvocation attaches the invocation details to the provided context.
func (accessor CommandContextAccessor) WithInvocation(parentContext context.Context, invocation Invocation) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, invocationContextKey{}, invocation)
}

// Invocation extracts the invocation details from the provided context.
func (accessor CommandContextAccessor) Invocation(executionContext context.Context) (Invocation, bool) {
	if executionContext == nil {
		return Invocation{}, false
	}
	invocation, invocationAvailable := executionContext.Value(invocationContextKey{}).(Invocation)
	return invocation, invocationAvailable
}

// ConfigurationFilePath extracts the configuration file path recorded for the invocation.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	invocation, invocationAvailable := accessor.Invocation(executionContext)
	if !invocationAvailable {
		return "", false
	}
	return invocation.ConfigurationFilePath, true
}
