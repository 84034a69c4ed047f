package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/toolrun/cmd/cli"
	"github.com/temirov/toolrun/internal/execshell"
)

const (
	exitErrorTemplateConstant      = "%v\n"
	genericFailureExitCodeConstant = 1
)

// main executes the toolrun command-line application and mirrors the child's exit code.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		os.Exit(processExitCode(commandFailure.ExitCode()))
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(genericFailureExitCodeConstant)
}

// processExitCode mirrors the child's status. Signal terminations already arrive as 128+N;
// a status the platform could not determine becomes a generic failure instead of 255.
func processExitCode(childExitCode int) int {
	if childExitCode < 0 {
		return genericFailureExitCodeConstant
	}
	return childExitCode
}
