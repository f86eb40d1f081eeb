package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhoneticCodeEqualForSpellingVariants(t *testing.T) {
	require.Equal(t, phoneticCode("kubernetes"), phoneticCode("Kubernetes"))
	require.Equal(t, phoneticCode("color"), phoneticCode("colour"))
}

func TestPhoneticCodeFallsBackForUnencodable(t *testing.T) {
	require.Equal(t, "123", phoneticCode("123"))
}

func TestPhoneticCodesPerWord(t *testing.T) {
	codes := phoneticCodes("  terraform   design ")
	require.Len(t, codes, 2)
	require.NotEmpty(t, codes[0])
	require.NotEmpty(t, codes[1])

	require.Empty(t, phoneticCodes("   "))
}

func TestCodesEqual(t *testing.T) {
	require.True(t, codesEqual("TRFR", "TRFR"))
	require.True(t, codesEqual("TRFR", "TRFRM")) // truncation tolerance
	require.True(t, codesEqual("TRFRM", "TRFR"))
	require.False(t, codesEqual("TRFR", "KSN"))
	require.False(t, codesEqual("T", "TRFR"))
	require.False(t, codesEqual("", "TRFR"))
	require.False(t, codesEqual("TRFR", ""))

	// A code below the truncation length was emitted whole; prefix matches
	// against it would swallow every longer code sharing its letters.
	require.False(t, codesEqual("TR", "TRFR"))
	require.False(t, codesEqual("TR", "TRFRTSN"))
	require.False(t, codesEqual("TSN", "TSNKRT"))
}

func TestSplitWordsTracksByteOffsets(t *testing.T) {
	words := splitWords("  terraform  design create")
	require.Len(t, words, 3)
	require.Equal(t, "terraform", words[0].text)
	require.Equal(t, 2, words[0].start)
	require.Equal(t, 11, words[0].end)
	require.Equal(t, "design", words[1].text)
	require.Equal(t, "create", words[2].text)
	require.Equal(t, 20, words[2].start)
	require.Equal(t, 26, words[2].end)

	require.Empty(t, splitWords(""))
	require.Empty(t, splitWords("   "))
}
