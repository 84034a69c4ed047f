package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/toolrun/internal/execshell"
)

func TestLineDecoderStages(testInstance *testing.T) {
	testCases := []struct {
		name             string
		fallbackEncoding string
		raw              []byte
		expectedText     string
		expectedOutcome  execshell.DecodeOutcome
	}{
		{
			name:             "valid_utf8",
			fallbackEncoding: execshell.DefaultFallbackEncodingName,
			raw:              []byte("grüße\n"),
			expectedText:     "grüße\n",
			expectedOutcome:  execshell.DecodedWithPrimaryEncoding,
		},
		{
			name:             "cp850_fallback",
			fallbackEncoding: execshell.DefaultFallbackEncodingName,
			raw:              []byte{0x81, 'b', 'e', 'r'},
			expectedText:     "über",
			expectedOutcome:  execshell.DecodedWithFallbackEncoding,
		},
		{
			name:             "replacement_without_fallback",
			fallbackEncoding: "",
			raw:              []byte{'a', 0xff, 'b'},
			expectedText:     "a�b",
			expectedOutcome:  execshell.DecodedWithReplacement,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			lineDecoder, decoderError := execshell.NewLineDecoder(execshell.DefaultEncodingName, testCase.fallbackEncoding)
			require.NoError(testInstance, decoderError)

			decodedText, decodeOutcome := lineDecoder.Decode(testCase.raw)
			require.Equal(testInstance, testCase.expectedText, decodedText)
			require.Equal(testInstance, testCase.expectedOutcome, decodeOutcome)
		})
	}
}

func TestResolveEncoding(testInstance *testing.T) {
	for _, encodingName := range []string{"", "UTF-8", "utf8", "cp850", "CP1252", "windows-1252", "iso-8859-1", "shift_jis"} {
		resolvedEncoding, resolveError := execshell.ResolveEncoding(encodingName)
		require.NoError(testInstance, resolveError, encodingName)
		require.NotNil(testInstance, resolvedEncoding, encodingName)
	}

	_, resolveError := execshell.ResolveEncoding("klingon")
	require.ErrorIs(testInstance, resolveError, execshell.ErrUnsupportedEncoding)
	require.Contains(testInstance, resolveError.Error(), "klingon")
}

func TestLineDecoderEncodesInput(testInstance *testing.T) {
	lineDecoder, decoderError := execshell.NewLineDecoder("cp850", "")
	require.NoError(testInstance, decoderError)

	encodedInput, encodeError := lineDecoder.Encode("über")
	require.NoError(testInstance, encodeError)
	require.Equal(testInstance, []byte{0x81, 'b', 'e', 'r'}, encodedInput)

	decodedText, _ := lineDecoder.Decode(encodedInput)
	require.Equal(testInstance, "über", decodedText)
}

func TestTextHelpers(testInstance *testing.T) {
	require.Equal(testInstance, "{{name}} = {{{{x}}}}", execshell.EscapeTemplateDelimiters("{name} = {{x}}"))
	require.Equal(testInstance, "line", execshell.StripLineTerminators("line\r\n"))
	require.Equal(testInstance, "line", execshell.StripLineTerminators("line\n"))
	require.Equal(testInstance, " indented", execshell.StripLineTerminators(" indented"))
}
