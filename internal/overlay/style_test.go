package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"imeosd/internal/config"
)

func TestStyleCSS(t *testing.T) {
	cfg := config.Default().Overlay

	css := StyleCSS(cfg)

	assert.Contains(t, css, "window.imeosd-overlay {")
	assert.Contains(t, css, "label.imeosd-glyph {")
	// Default background is #1a1a1a at ~95% alpha.
	assert.Contains(t, css, "background-color: rgba(26, 26, 26, 0.949);")
	assert.Contains(t, css, "background-color: rgba(51, 51, 51, 0.949);")
	assert.Contains(t, css, "color: rgba(255, 255, 255, 1.000);")
	assert.Contains(t, css, "border-radius: 20px;")
	assert.Contains(t, css, `font-family: "Sans";`)
	assert.Contains(t, css, "font-size: 70px;")
	assert.Contains(t, css, "font-weight: bold;")
}

func TestStyleCSS_CustomValues(t *testing.T) {
	cfg := config.Default().Overlay
	cfg.FontFamily = "Noto Sans CJK JP"
	cfg.FontSize = 48.5
	cfg.CornerRadius = 8

	css := StyleCSS(cfg)

	assert.Contains(t, css, `font-family: "Noto Sans CJK JP";`)
	assert.Contains(t, css, "font-size: 48.5px;")
	assert.Contains(t, css, "border-radius: 8px;")
}

func TestStyleCSS_PanelInset(t *testing.T) {
	css := StyleCSS(config.Default().Overlay)

	// The glyph panel sits inset from the surface edge.
	assert.Contains(t, css, "margin: 10px;")
	// The window rule comes before the label rule.
	winIdx := strings.Index(css, "window.imeosd-overlay")
	lblIdx := strings.Index(css, "label.imeosd-glyph")
	assert.Less(t, winIdx, lblIdx)
}
