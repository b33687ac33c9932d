package pdftext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := Extract([]byte("not a pdf"))
	require.Error(t, err)
}

func TestExtractPlain(t *testing.T) {
	text, err := ExtractPlain([]byte("  Salary 50000\n"))
	require.NoError(t, err)
	require.Equal(t, "Salary 50000", text)

	_, err = ExtractPlain([]byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	require.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	require.False(t, IsPDF([]byte("hello")))
}
