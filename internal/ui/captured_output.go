package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/temirov/toolrun/internal/execshell"
)

const (
	yamlIndentationConstant = 2
)

// CapturedOutputPrinter renders the result of a captured execution for the terminal.
type CapturedOutputPrinter struct {
	standardOutput io.Writer
	standardError  io.Writer
	errorColor     *color.Color
}

// NewCapturedOutputPrinter builds a printer. Captured standard error is printed in red when colorize is set.
func NewCapturedOutputPrinter(standardOutput io.Writer, standardError io.Writer, colorize bool) *CapturedOutputPrinter {
	if standardOutput == nil {
		standardOutput = io.Discard
	}
	if standardError == nil {
		standardError = io.Discard
	}

	errorColor := color.New(color.FgRed)
	if colorize {
		errorColor.EnableColor()
	} else {
		errorColor.DisableColor()
	}

	return &CapturedOutputPrinter{standardOutput: standardOutput, standardError: standardError, errorColor: errorColor}
}

// PrintText writes the captured streams back to the matching console streams unchanged.
func (printer *CapturedOutputPrinter) PrintText(result execshell.ExecutionResult) error {
	if len(result.StandardOutput) > 0 {
		if _, writeError := io.WriteString(printer.standardOutput, result.StandardOutput); writeError != nil {
			return writeError
		}
	}
	if len(result.StandardError) > 0 {
		if _, writeError := printer.errorColor.Fprint(printer.standardError, result.StandardError); writeError != nil {
			return writeError
		}
	}
	return nil
}

// PrintYAML writes the result as a single YAML document to standard output.
func (printer *CapturedOutputPrinter) PrintYAML(result execshell.ExecutionResult) error {
	encoder := yaml.NewEncoder(printer.standardOutput)
	encoder.SetIndent(yamlIndentationConstant)
	if encodeError := encoder.Encode(result); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

// IsTerminal reports whether the writer is a terminal, including Cygwin and MSYS consoles.
func IsTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	fileDescriptor := file.Fd()
	return isatty.IsTerminal(fileDescriptor) || isatty.IsCygwinTerminal(fileDescriptor)
}
