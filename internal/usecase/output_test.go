package usecase

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestVerifyOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "complete", text: validComponent, want: nil},
		{name: "trailing whitespace", text: validComponent + "\n\n  ", want: nil},
		{name: "export default expression", text: "const A = () => { return null }\nexport default A\n}", want: nil},
		{name: "empty", text: "", want: errEmptyOutput},
		{name: "blank", text: "\n \t", want: errEmptyOutput},
		{name: "no export", text: "function A() {}", want: errMissingExport},
		{name: "named export only", text: "export function A() {}", want: errMissingExport},
		{name: "cut mid component", text: "export default function A() {\n  return (", want: errMissingClosingBrace},
		{name: "ends with semicolon", text: "export default function A() {};", want: errMissingClosingBrace},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyOutput(tc.text)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTail(t *testing.T) {
	require.Equal(t, "abc", tail("abc", 5))
	require.Equal(t, "bc", tail("abc", 2))
}

func TestTail_KeepsRuneBoundary(t *testing.T) {
	// "é" is two bytes; a 4-byte tail would start inside it.
	s := "café }}"
	got := tail(s, 4)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, " }}", got)

	require.Equal(t, "é }}", tail(s, 5))
}
