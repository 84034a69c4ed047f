package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleEnabledChoice          = "yes"
	toggleDisabledChoice         = "no"
	toggleTrueCanonicalValue     = "true"
	toggleFalseCanonicalValue    = "false"
	toggleValueTypeName          = "toggle"
	toggleInvalidValueTemplate   = "invalid toggle value %q: expected yes or no"
	flagArgumentTerminator       = "--"
	longFlagPrefix               = "--"
	shortFlagPrefix              = "-"
	flagValueAssignmentSeparator = "="
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"on":    true,
	"1":     true,
	"t":     true,
	"y":     true,
	"false": false,
	"no":    false,
	"off":   false,
	"0":     false,
	"f":     false,
	"n":     false,
}

// ToggleValue is a pflag.Value for booleans written as yes/no, on/off or true/false.
type ToggleValue struct {
	target *bool
}

// AddToggleFlag registers a yes/no flag. A bare flag with no value means yes.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, description string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}

	*target = defaultValue
	defaultChoice := toggleDisabledChoice
	if defaultValue {
		defaultChoice = toggleEnabledChoice
	}
	registeredFlag := flagSet.VarPF(&ToggleValue{target: target}, name, shorthand, FormatChoiceUsage(defaultChoice, []string{toggleEnabledChoice, toggleDisabledChoice}, description))
	registeredFlag.NoOptDefVal = toggleTrueCanonicalValue
}

// Set parses a toggle literal, case-insensitively. An empty value means yes.
func (value *ToggleValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		normalizedValue = toggleTrueCanonicalValue
	}
	parsedValue, recognized := toggleLiterals[normalizedValue]
	if !recognized {
		return fmt.Errorf(toggleInvalidValueTemplate, rawValue)
	}
	*value.target = parsedValue
	return nil
}

// String returns "true" or "false".
func (value *ToggleValue) String() string {
	if value == nil || value.target == nil || !*value.target {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

// Type names the value kind in help output.
func (value *ToggleValue) Type() string {
	return toggleValueTypeName
}

// NormalizeToggleArguments joins "--flag value" into "--flag=value" for every toggle flag
// declared anywhere in the command tree, so that pflag does not read the value as a positional
// argument. Arguments after "--" belong to the child command and are never rewritten.
func NormalizeToggleArguments(rootCommand *cobra.Command, arguments []string) []string {
	if len(arguments) == 0 {
		return arguments
	}
	toggleNames := collectToggleFlagNames(rootCommand)

	normalized := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		argument := arguments[argumentIndex]
		if argument == flagArgumentTerminator {
			return append(normalized, arguments[argumentIndex:]...)
		}

		hasFollowingValue := argumentIndex+1 < len(arguments) && isToggleLiteral(arguments[argumentIndex+1])
		if hasFollowingValue && toggleNames[toggleFlagName(argument)] {
			normalized = append(normalized, argument+flagValueAssignmentSeparator+arguments[argumentIndex+1])
			argumentIndex++
			continue
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

// toggleFlagName returns the name or shorthand an argument refers to when it is a flag without
// an inline value, and an empty string otherwise.
func toggleFlagName(argument string) string {
	if strings.Contains(argument, flagValueAssignmentSeparator) {
		return ""
	}
	if strings.HasPrefix(argument, longFlagPrefix) {
		return strings.TrimPrefix(argument, longFlagPrefix)
	}
	if strings.HasPrefix(argument, shortFlagPrefix) && len(argument) == len(shortFlagPrefix)+1 {
		return shortFlagPrefix + strings.TrimPrefix(argument, shortFlagPrefix)
	}
	return ""
}

func isToggleLiteral(argument string) bool {
	_, recognized := toggleLiterals[strings.ToLower(strings.TrimSpace(argument))]
	return recognized
}

func collectToggleFlagNames(rootCommand *cobra.Command) map[string]bool {
	toggleNames := make(map[string]bool)
	if rootCommand == nil {
		return toggleNames
	}

	recordToggle := func(flag *pflag.Flag) {
		if _, isToggle := flag.Value.(*ToggleValue); !isToggle {
			return
		}
		toggleNames[flag.Name] = true
		if len(flag.Shorthand) > 0 {
			toggleNames[shortFlagPrefix+flag.Shorthand] = true
		}
	}

	pendingCommands := []*cobra.Command{rootCommand}
	for len(pendingCommands) > 0 {
		command := pendingCommands[0]
		pendingCommands = pendingCommands[1:]
		command.Flags().VisitAll(recordToggle)
		command.PersistentFlags().VisitAll(recordToggle)
		pendingCommands = append(pendingCommands, command.Commands()...)
	}
	return toggleNames
}
