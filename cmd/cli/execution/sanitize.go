package execution

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/toolrun/internal/execshell"
	"github.com/temirov/toolrun/internal/utils"
)

const (
	sanitizeCommandUseConstant              = "sanitize -- <argument>..."
	sanitizeCommandShortDescriptionConstant = "Print arguments as they would be passed to a child process"
	sanitizeCommandLongDescriptionConstant  = "sanitize applies the leading-slash rewrite used under MSYS shells and prints one argument per line."
	sanitizedArgumentTemplateConstant       = "%s\n"
)

// SanitizeCommandBuilder assembles the sanitize command.
type SanitizeCommandBuilder struct {
	Sanitizer *execshell.ArgumentSanitizer
}

// Build constructs the sanitize command.
func (builder *SanitizeCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   sanitizeCommandUseConstant,
		Short: sanitizeCommandShortDescriptionConstant,
		Long:  sanitizeCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().SetInterspersed(false)

	return command, nil
}

func (builder *SanitizeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	commandLine, commandLineError := resolveCommandLine(command, arguments)
	if commandLineError != nil {
		return commandLineError
	}

	sanitizer := builder.Sanitizer
	if sanitizer == nil {
		sanitizer = execshell.NewArgumentSanitizer()
	}

	output := utils.NewFlushingWriter(command.OutOrStdout())
	for _, argument := range sanitizer.Sanitize(commandLine) {
		if _, writeError := fmt.Fprintf(output, sanitizedArgumentTemplateConstant, argument); writeError != nil {
			return writeError
		}
	}
	return nil
}
