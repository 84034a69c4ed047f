package execshell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	unknownExitCodeConstant                = -1
)

// ProcessSpawner launches child processes whose standard output and error are readable pipes.
type ProcessSpawner interface {
	Spawn(commandLine CommandLine, details CommandDetails) (*ChildProcess, error)
}

// ChildProcess is a started child. The caller owns it and must call Wait and then Close.
type ChildProcess struct {
	command        *exec.Cmd
	standardOutput *os.File
	standardError  *os.File
}

// ProcessIdentifier returns the operating system pid of the child.
func (child *ChildProcess) ProcessIdentifier() int {
	if child.command.Process == nil {
		return 0
	}
	return child.command.Process.Pid
}

// StandardOutput returns the read end of the child's standard output pipe.
func (child *ChildProcess) StandardOutput() io.Reader {
	return child.standardOutput
}

// StandardError returns the read end of the child's standard error pipe.
func (child *ChildProcess) StandardError() io.Reader {
	return child.standardError
}

// Wait blocks until the child exits. A non-zero exit status is reported through the code, not the error.
// A child killed by a signal reports 128 plus the signal number, the way POSIX shells do.
// The pipes stay open so that pending output can still be drained.
func (child *ChildProcess) Wait() (int, error) {
	waitError := child.command.Wait()
	if waitError == nil {
		return 0, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(waitError, &exitError) {
		if signalCode, signaled := signalExitCode(exitError.ProcessState); signaled {
			return signalCode, nil
		}
		return exitError.ExitCode(), nil
	}
	if child.command.ProcessState != nil {
		return child.command.ProcessState.ExitCode(), waitError
	}
	return unknownExitCodeConstant, waitError
}

// Close releases the parent's read ends. Readers blocked on them observe a closed file.
func (child *ChildProcess) Close() {
	child.standardOutput.Close()
	child.standardError.Close()
}

// OSProcessSpawner starts children with os/exec, wiring stdout and stderr to dedicated OS pipes.
type OSProcessSpawner struct{}

// NewOSProcessSpawner constructs a spawner backed by os/exec.
func NewOSProcessSpawner() *OSProcessSpawner {
	return &OSProcessSpawner{}
}

// Spawn starts the command. Standard input receives details.StandardInput and is then closed;
// without a payload it is connected to the null device.
func (spawner *OSProcessSpawner) Spawn(commandLine CommandLine, details CommandDetails) (*ChildProcess, error) {
	if len(commandLine) == 0 {
		return nil, ErrEmptyCommand
	}

	executable := exec.Command(commandLine.Executable(), commandLine.Arguments()...)

	if len(details.WorkingDirectory) > 0 {
		executable.Dir = details.WorkingDirectory
	}

	if len(details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	if details.StandardInput != nil {
		executable.Stdin = bytes.NewReader(details.StandardInput)
	}

	standardOutputReader, standardOutputWriter, pipeError := os.Pipe()
	if pipeError != nil {
		return nil, pipeError
	}
	standardErrorReader, standardErrorWriter, pipeError := os.Pipe()
	if pipeError != nil {
		standardOutputReader.Close()
		standardOutputWriter.Close()
		return nil, pipeError
	}
	executable.Stdout = standardOutputWriter
	executable.Stderr = standardErrorWriter

	startError := executable.Start()

	// The child holds its own copies; end-of-stream depends on the parent dropping these.
	standardOutputWriter.Close()
	standardErrorWriter.Close()

	if startError != nil {
		standardOutputReader.Close()
		standardErrorReader.Close()
		return nil, startError
	}

	return &ChildProcess{
		command:        executable,
		standardOutput: standardOutputReader,
		standardError:  standardErrorReader,
	}, nil
}
