package execshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testExistingLongPathConstant        = "/existing/tool/path"
	testExistingShortPathConstant       = "/tmp"
	testUnknownSlashArgumentConstant    = "/foo"
	testEscapedSlashArgumentConstant    = "//foo"
	testDriveLetterArgumentConstant     = "/c/Users/builder"
	testBareDriveLetterArgumentConstant = "/c"
	testPlainArgumentConstant           = "-flag"
	testMSYSCaseNameConstant            = "msys_shell"
	testNativeShellCaseNameConstant     = "native_shell"
	testNonWindowsCaseNameConstant      = "msys_variable_outside_windows"
	testBlankMSYSVariableCaseConstant   = "blank_msys_variable"
)

type staticPathChecker map[string]bool

func (checker staticPathChecker) Exists(path string) bool {
	return checker[path]
}

func newTestSanitizer(rewritesLeadingSlashes bool) *ArgumentSanitizer {
	return NewArgumentSanitizerWithDependencies(
		ShellEnvironmentDetectorFunc(func() bool { return rewritesLeadingSlashes }),
		staticPathChecker{testExistingLongPathConstant: true, testExistingShortPathConstant: true},
	)
}

func TestArgumentSanitizerRewritesUnderMSYS(testInstance *testing.T) {
	sanitizer := newTestSanitizer(true)
	commandLine := CommandLine{
		"tool",
		testUnknownSlashArgumentConstant,
		testEscapedSlashArgumentConstant,
		testDriveLetterArgumentConstant,
		testBareDriveLetterArgumentConstant,
		testExistingLongPathConstant,
		testExistingShortPathConstant,
		testPlainArgumentConstant,
	}

	sanitized := sanitizer.Sanitize(commandLine)

	require.Equal(testInstance, CommandLine{
		"tool",
		"//foo",
		"//foo",
		testDriveLetterArgumentConstant,
		"//c",
		testExistingLongPathConstant,
		"//tmp",
		testPlainArgumentConstant,
	}, sanitized)
	require.Equal(testInstance, testUnknownSlashArgumentConstant, commandLine[1])
}

func TestArgumentSanitizerLeavesArgumentsOutsideMSYS(testInstance *testing.T) {
	sanitizer := newTestSanitizer(false)
	commandLine := CommandLine{"tool", testUnknownSlashArgumentConstant, testBareDriveLetterArgumentConstant}

	require.Equal(testInstance, commandLine, sanitizer.Sanitize(commandLine))
}

func TestArgumentSanitizerIsIdempotent(testInstance *testing.T) {
	sanitizer := newTestSanitizer(true)
	commandLine := CommandLine{"tool", testUnknownSlashArgumentConstant, testDriveLetterArgumentConstant, "/x", testPlainArgumentConstant}

	sanitizedOnce := sanitizer.Sanitize(commandLine)
	require.Equal(testInstance, sanitizedOnce, sanitizer.Sanitize(sanitizedOnce))
}

func TestArgumentSanitizerHandlesEmptyCommandLines(testInstance *testing.T) {
	sanitizer := newTestSanitizer(true)

	require.Nil(testInstance, sanitizer.Sanitize(nil))
	require.Empty(testInstance, sanitizer.Sanitize(CommandLine{}))
}

func TestArgumentSanitizerChecksFilesystem(testInstance *testing.T) {
	temporaryDirectory := filepath.ToSlash(testInstance.TempDir())
	require.NoError(testInstance, os.WriteFile(filepath.Join(temporaryDirectory, "input.txt"), []byte("data"), 0o600))
	existingFile := temporaryDirectory + "/input.txt"

	sanitizer := NewArgumentSanitizerWithDependencies(ShellEnvironmentDetectorFunc(func() bool { return true }), nil)
	sanitized := sanitizer.Sanitize(CommandLine{"tool", existingFile})

	require.Equal(testInstance, existingFile, sanitized[1])
}

func TestMSYSShellDetector(testInstance *testing.T) {
	testCases := []struct {
		name            string
		operatingSystem string
		environment     map[string]string
		expected        bool
	}{
		{
			name:            testMSYSCaseNameConstant,
			operatingSystem: windowsOperatingSystemConstant,
			environment:     map[string]string{msysSystemEnvironmentVariableConstant: "MINGW64"},
			expected:        true,
		},
		{
			name:            testNativeShellCaseNameConstant,
			operatingSystem: windowsOperatingSystemConstant,
			environment:     map[string]string{},
			expected:        false,
		},
		{
			name:            testNonWindowsCaseNameConstant,
			operatingSystem: "linux",
			environment:     map[string]string{msysSystemEnvironmentVariableConstant: "MSYS"},
			expected:        false,
		},
		{
			name:            testBlankMSYSVariableCaseConstant,
			operatingSystem: windowsOperatingSystemConstant,
			environment:     map[string]string{msysSystemEnvironmentVariableConstant: " "},
			expected:        false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			detector := &MSYSShellDetector{
				lookupEnvironment: func(name string) (string, bool) {
					value, present := testCase.environment[name]
					return value, present
				},
				operatingSystem: testCase.operatingSystem,
			}
			require.Equal(testInstance, testCase.expected, detector.RewritesLeadingSlashes())
		})
	}
}
