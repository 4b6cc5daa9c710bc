package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, "# Title\n\n- item\n"))
	assert.Equal(t, "# Title\n\n- item\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Heading")
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.True(t, strings.Contains(buf.String(), "v1.2.3"))
}
