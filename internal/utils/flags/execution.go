// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// WorkingDirectoryFlagName exposes the shared working directory flag name.
	WorkingDirectoryFlagName = "directory"
	// WorkingDirectoryFlagShorthand provides the shorthand for the working directory flag.
	WorkingDirectoryFlagShorthand = "C"
	// WorkingDirectoryFlagUsage describes the working directory flag purpose.
	WorkingDirectoryFlagUsage = "Directory the child process starts in"
	// HeartbeatFlagName exposes the keepalive interval flag name.
	HeartbeatFlagName = "heartbeat"
	// HeartbeatFlagUsage describes the keepalive interval flag purpose.
	HeartbeatFlagUsage = "Log a keepalive at this interval while the child runs (0 disables)"
	// EncodingFlagName exposes the output encoding flag name.
	EncodingFlagName = "encoding"
	// EncodingFlagUsage describes the output encoding flag purpose.
	EncodingFlagUsage = "Text encoding of the child's input and output"
	// DebugStreamFlagName exposes the debug-string capture toggle name.
	DebugStreamFlagName = "debug-stream"
	// DebugStreamFlagUsage describes the debug-string capture toggle purpose.
	DebugStreamFlagUsage = "Log the child's OutputDebugString messages (Windows only)"
)

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	WorkingDirectory ExecutionFlagDefinition
	Heartbeat        ExecutionFlagDefinition
	Encoding         ExecutionFlagDefinition
	DebugStream      ExecutionFlagDefinition
}

// ExecutionFlagValues stores execution flag values.
type ExecutionFlagValues struct {
	WorkingDirectory string
	Heartbeat        time.Duration
	Encoding         string
	DebugStream      bool
}

// DefaultExecutionFlagDefinitions enables the given flags with their standard names and usage.
func DefaultExecutionFlagDefinitions(workingDirectory bool, heartbeat bool, encoding bool, debugStream bool) ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		WorkingDirectory: ExecutionFlagDefinition{Name: WorkingDirectoryFlagName, Shorthand: WorkingDirectoryFlagShorthand, Usage: WorkingDirectoryFlagUsage, Enabled: workingDirectory},
		Heartbeat:        ExecutionFlagDefinition{Name: HeartbeatFlagName, Usage: HeartbeatFlagUsage, Enabled: heartbeat},
		Encoding:         ExecutionFlagDefinition{Name: EncodingFlagName, Usage: EncodingFlagUsage, Enabled: encoding},
		DebugStream:      ExecutionFlagDefinition{Name: DebugStreamFlagName, Usage: DebugStreamFlagUsage, Enabled: debugStream},
	}
}

// BindExecutionFlags attaches the enabled execution flags to the command's local flag set.
// Values of disabled flags keep their defaults.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionFlagValues, definitions ExecutionFlagDefinitions) *ExecutionFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	bindStringFlag(flagSet, &values.WorkingDirectory, definitions.WorkingDirectory, defaults.WorkingDirectory)
	bindStringFlag(flagSet, &values.Encoding, definitions.Encoding, defaults.Encoding)
	if definitions.Heartbeat.Enabled && len(definitions.Heartbeat.Name) > 0 {
		flagSet.DurationVarP(&values.Heartbeat, definitions.Heartbeat.Name, definitions.Heartbeat.Shorthand, defaults.Heartbeat, definitions.Heartbeat.Usage)
	}
	if definitions.DebugStream.Enabled {
		AddToggleFlag(flagSet, &values.DebugStream, definitions.DebugStream.Name, definitions.DebugStream.Shorthand, defaults.DebugStream, definitions.DebugStream.Usage)
	}
	return &values
}

func bindStringFlag(flagSet *pflag.FlagSet, target *string, definition ExecutionFlagDefinition, defaultValue string) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}

	flagSet.StringVarP(target, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}
