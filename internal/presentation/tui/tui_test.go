package tui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0", "sess-1")
	assert.Contains(t, buf.String(), "v0.1.0  session sess-1")
	assert.Contains(t, buf.String(), "(type exit to quit)")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(40)
	require.NotNil(t, render)
	out, err := render("**Hotel 42** successfully booked.")
	require.NoError(t, err)
	assert.Contains(t, out, "Hotel 42")
}

func TestIsTerminal_File(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
	assert.Equal(t, 0, Width(f))
	assert.False(t, IsTerminal(nil))
}
