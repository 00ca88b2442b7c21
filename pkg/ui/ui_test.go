package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColorsFollowSetting(t *testing.T) {
	defer SetColor(ColorEnabled())

	SetColor(false)
	assert.Equal(t, "plain", Red("plain"))

	SetColor(true)
	assert.Equal(t, "\033[31mplain\033[0m", Red("plain"))
}

func TestSetOutputDisablesColorsOffTerminal(t *testing.T) {
	defer SetColor(ColorEnabled())

	prev := output
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(prev)

	assert.False(t, ColorEnabled())
	PrintInfo("Board", "recipes")
	PrintError("failed", errors.New("boom"))
	PrintBanner()

	assert.Equal(t, "Board: recipes\nfailed: boom\n", buf.String())
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "────────────────────", RenderBar(0, 10))
	assert.Equal(t, "━━━━━━━━━━──────────", RenderBar(5, 10))
	assert.Equal(t, "━━━━━━━━━━━━━━━━━━━━", RenderBar(10, 10))
	assert.Equal(t, "━━━━━━━━━━━━━━━━━━━━", RenderBar(12, 10))
	assert.Equal(t, "────────────────────", RenderBar(3, 0))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h10m", FormatDuration(2*time.Hour+10*time.Minute))
}

func TestProgressDisplayOffTerminal(t *testing.T) {
	defer SetColor(ColorEnabled())
	SetColor(false)

	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "alice/recipes", 3)
	p.Downloaded(2048)
	p.Skipped()
	p.Failed(7, errors.New("not found"))
	assert.Equal(t, "✗ pin 7: not found\n", buf.String())

	p.Complete()
	out := buf.String()
	assert.Contains(t, out, "✓ Downloaded 1 pins from alice/recipes")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "1 already on disk")
	assert.Contains(t, out, "1 downloads failed")
}
