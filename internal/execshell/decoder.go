package execshell

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultEncodingName is the primary encoding assumed for child output.
	DefaultEncodingName = "utf-8"
	// DefaultFallbackEncodingName is tried when a line is not valid in the primary encoding.
	DefaultFallbackEncodingName = "cp850"

	replacementCharacterConstant     = "\uFFFD"
	lineTerminatorCharactersConstant = "\r\n"
	templateOpenDelimiterConstant    = "{"
	templateCloseDelimiterConstant   = "}"
)

// DecodeOutcome records which stage of the decoding chain produced a line.
type DecodeOutcome int

// Decoding chain stages.
const (
	DecodedWithPrimaryEncoding DecodeOutcome = iota
	DecodedWithFallbackEncoding
	DecodedWithReplacement
)

var codePageAliases = map[string]encoding.Encoding{
	"cp437":  charmap.CodePage437,
	"cp850":  charmap.CodePage850,
	"cp852":  charmap.CodePage852,
	"cp866":  charmap.CodePage866,
	"cp1250": charmap.Windows1250,
	"cp1251": charmap.Windows1251,
	"cp1252": charmap.Windows1252,
}

var templateDelimiterEscaper = strings.NewReplacer(
	templateOpenDelimiterConstant, templateOpenDelimiterConstant+templateOpenDelimiterConstant,
	templateCloseDelimiterConstant, templateCloseDelimiterConstant+templateCloseDelimiterConstant,
)

// ResolveEncoding maps an encoding label such as "utf-8", "cp850" or "windows-1252" to an encoding.
// An empty label resolves to UTF-8.
func ResolveEncoding(encodingName string) (encoding.Encoding, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(encodingName))
	switch normalizedName {
	case emptyStringConstant, "utf-8", "utf8":
		return unicode.UTF8, nil
	}

	if aliasedEncoding, aliasFound := codePageAliases[normalizedName]; aliasFound {
		return aliasedEncoding, nil
	}

	if ianaEncoding, ianaError := ianaindex.IANA.Encoding(normalizedName); ianaError == nil && ianaEncoding != nil {
		return ianaEncoding, nil
	}

	if htmlEncoding, htmlError := htmlindex.Get(normalizedName); htmlError == nil && htmlEncoding != nil {
		return htmlEncoding, nil
	}

	return nil, newUnsupportedEncodingError(encodingName)
}

// LineDecoder converts raw output bytes into text, falling back to a secondary encoding
// and finally to replacement characters so that a malformed sequence never stops a drain.
type LineDecoder struct {
	primaryEncoding  encoding.Encoding
	fallbackEncoding encoding.Encoding
}

// NewLineDecoder resolves the named encodings. An empty fallback name disables the fallback stage.
func NewLineDecoder(primaryEncodingName string, fallbackEncodingName string) (*LineDecoder, error) {
	primaryEncoding, primaryError := ResolveEncoding(primaryEncodingName)
	if primaryError != nil {
		return nil, primaryError
	}

	lineDecoder := &LineDecoder{primaryEncoding: primaryEncoding}
	if len(strings.TrimSpace(fallbackEncodingName)) == 0 {
		return lineDecoder, nil
	}

	fallbackEncoding, fallbackError := ResolveEncoding(fallbackEncodingName)
	if fallbackError != nil {
		return nil, fallbackError
	}
	lineDecoder.fallbackEncoding = fallbackEncoding
	return lineDecoder, nil
}

// Decode returns the text for raw and the stage that produced it.
func (lineDecoder *LineDecoder) Decode(raw []byte) (string, DecodeOutcome) {
	if decodedText, decoded := decodeStrictly(lineDecoder.primaryEncoding, raw); decoded {
		return decodedText, DecodedWithPrimaryEncoding
	}
	if lineDecoder.fallbackEncoding != nil {
		if decodedText, decoded := decodeStrictly(lineDecoder.fallbackEncoding, raw); decoded {
			return decodedText, DecodedWithFallbackEncoding
		}
	}
	return strings.ToValidUTF8(string(raw), replacementCharacterConstant), DecodedWithReplacement
}

// Encode converts text into the primary encoding, used for standard input payloads.
func (lineDecoder *LineDecoder) Encode(text string) ([]byte, error) {
	if lineDecoder.primaryEncoding == unicode.UTF8 {
		return []byte(text), nil
	}
	return lineDecoder.primaryEncoding.NewEncoder().Bytes([]byte(text))
}

// decodeStrictly rejects output that only decodes by substituting replacement characters.
func decodeStrictly(sourceEncoding encoding.Encoding, raw []byte) (string, bool) {
	if sourceEncoding == nil || sourceEncoding == unicode.UTF8 {
		return string(raw), utf8.Valid(raw)
	}

	decodedBytes, decodeError := sourceEncoding.NewDecoder().Bytes(raw)
	if decodeError != nil {
		return emptyStringConstant, false
	}
	if strings.Contains(string(decodedBytes), replacementCharacterConstant) && !strings.Contains(string(raw), replacementCharacterConstant) {
		return emptyStringConstant, false
	}
	return string(decodedBytes), true
}

// EscapeTemplateDelimiters doubles braces so that downstream template formatters print them literally.
func EscapeTemplateDelimiters(line string) string {
	return templateDelimiterEscaper.Replace(line)
}

// StripLineTerminators removes trailing carriage returns and line feeds.
func StripLineTerminators(line string) string {
	return strings.TrimRight(line, lineTerminatorCharactersConstant)
}
