package execshell

import (
	"os"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	argumentPathSeparatorConstant         = "/"
	escapedArgumentPrefixConstant         = "//"
	msysSystemEnvironmentVariableConstant = "MSYSTEM"
	windowsOperatingSystemConstant        = "windows"
	existingPathMinimumLengthConstant     = 5
)

// ShellEnvironmentDetector reports whether the hosting shell rewrites leading slashes into paths.
type ShellEnvironmentDetector interface {
	RewritesLeadingSlashes() bool
}

// ShellEnvironmentDetectorFunc adapts a function to ShellEnvironmentDetector.
type ShellEnvironmentDetectorFunc func() bool

// RewritesLeadingSlashes calls the wrapped function.
func (detectorFunction ShellEnvironmentDetectorFunc) RewritesLeadingSlashes() bool {
	return detectorFunction()
}

// MSYSShellDetector recognizes MSYS and MinGW shells on Windows through the MSYSTEM variable.
type MSYSShellDetector struct {
	lookupEnvironment func(string) (string, bool)
	operatingSystem   string
}

// NewMSYSShellDetector constructs a detector reading the live process environment.
func NewMSYSShellDetector() *MSYSShellDetector {
	return &MSYSShellDetector{lookupEnvironment: os.LookupEnv, operatingSystem: runtime.GOOS}
}

// RewritesLeadingSlashes reports whether the current process runs under an MSYS shell.
func (detector *MSYSShellDetector) RewritesLeadingSlashes() bool {
	if detector == nil || detector.operatingSystem != windowsOperatingSystemConstant {
		return false
	}
	msysSystem, msysSystemPresent := detector.lookupEnvironment(msysSystemEnvironmentVariableConstant)
	return msysSystemPresent && len(strings.TrimSpace(msysSystem)) > 0
}

// PathChecker checks whether a path names an existing file or directory.
type PathChecker interface {
	Exists(path string) bool
}

// OSPathChecker checks the local filesystem.
type OSPathChecker struct{}

// Exists reports whether path names an existing file or directory.
func (OSPathChecker) Exists(path string) bool {
	_, statError := os.Stat(path)
	return statError == nil
}

// ArgumentSanitizer escapes arguments that an MSYS shell would otherwise convert into Windows paths.
type ArgumentSanitizer struct {
	shellDetector ShellEnvironmentDetector
	pathChecker   PathChecker
}

// NewArgumentSanitizer constructs a sanitizer bound to the live shell environment and filesystem.
func NewArgumentSanitizer() *ArgumentSanitizer {
	return NewArgumentSanitizerWithDependencies(nil, nil)
}

// NewArgumentSanitizerWithDependencies constructs a sanitizer using the provided detector and path checker.
func NewArgumentSanitizerWithDependencies(shellDetector ShellEnvironmentDetector, pathChecker PathChecker) *ArgumentSanitizer {
	if shellDetector == nil {
		shellDetector = NewMSYSShellDetector()
	}
	if pathChecker == nil {
		pathChecker = OSPathChecker{}
	}
	return &ArgumentSanitizer{shellDetector: shellDetector, pathChecker: pathChecker}
}

// Sanitize returns a new command line in which every argument starting with a slash survives the shell.
// Arguments are kept when the shell does not rewrite them, when they look like /c/ drive paths,
// when they are already escaped, or when they name an existing file or directory.
// Everything else gains a second leading slash. Sanitizing twice yields the same result as once.
func (sanitizer *ArgumentSanitizer) Sanitize(commandLine CommandLine) CommandLine {
	if commandLine == nil {
		return nil
	}
	if sanitizer == nil {
		sanitizer = NewArgumentSanitizer()
	}

	sanitizedCommandLine := make(CommandLine, 0, len(commandLine))
	shellRewrites := sanitizer.shellDetector.RewritesLeadingSlashes()
	for _, argument := range commandLine {
		if shellRewrites && sanitizer.requiresEscaping(argument) {
			argument = argumentPathSeparatorConstant + argument
		}
		sanitizedCommandLine = append(sanitizedCommandLine, argument)
	}
	return sanitizedCommandLine
}

func (sanitizer *ArgumentSanitizer) requiresEscaping(argument string) bool {
	if !strings.HasPrefix(argument, argumentPathSeparatorConstant) {
		return false
	}
	if strings.HasPrefix(argument, escapedArgumentPrefixConstant) {
		return false
	}
	if isDriveLetterPath(argument) {
		return false
	}
	if len(argument) > existingPathMinimumLengthConstant && sanitizer.pathChecker.Exists(argument) {
		return false
	}
	return true
}

// isDriveLetterPath matches /c/... style arguments. A bare /c stays a flag.
func isDriveLetterPath(argument string) bool {
	driveLetter, driveLetterWidth := utf8.DecodeRuneInString(argument[len(argumentPathSeparatorConstant):])
	if driveLetter == utf8.RuneError || !unicode.IsLetter(driveLetter) {
		return false
	}
	remainder := argument[len(argumentPathSeparatorConstant)+driveLetterWidth:]
	return strings.HasPrefix(remainder, argumentPathSeparatorConstant)
}
