package usecase

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultExportMarker = "export default"

var (
	errEmptyOutput         = errors.New("generated output is empty")
	errMissingExport       = errors.New("generated output has no default export")
	errMissingClosingBrace = errors.New("generated output does not end with a closing brace")
)

// VerifyOutput accepts text that is non-empty, contains a default export and
// whose last non-whitespace character is '}'. It catches truncated
// generations without parsing the source.
func VerifyOutput(text string) error {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	switch {
	case trimmed == "":
		return errEmptyOutput
	case !strings.Contains(trimmed, defaultExportMarker):
		return errMissingExport
	case !strings.HasSuffix(trimmed, "}"):
		return errMissingClosingBrace
	}
	return nil
}

// tail returns at most the last n bytes of s, for log context. The cut is
// moved forward to a rune boundary so the result stays valid UTF-8.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
