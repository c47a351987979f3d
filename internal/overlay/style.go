package overlay

import (
	"fmt"
	"strings"

	"imeosd/internal/config"
)

// panelInset is the gap between the surface edge and the rounded panel.
const panelInset = 10

// StyleCSS renders the overlay stylesheet from the config. The whole
// surface fades via the window opacity, so the colors here carry only
// their configured base alpha.
func StyleCSS(cfg config.OverlayConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "window.imeosd-overlay {\n")
	fmt.Fprintf(&b, "  background-color: %s;\n", cfg.Background.CSS())
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "label.imeosd-glyph {\n")
	fmt.Fprintf(&b, "  margin: %dpx;\n", panelInset)
	fmt.Fprintf(&b, "  background-color: %s;\n", cfg.Panel.CSS())
	fmt.Fprintf(&b, "  border-radius: %dpx;\n", cfg.CornerRadius)
	fmt.Fprintf(&b, "  color: %s;\n", cfg.Text.CSS())
	fmt.Fprintf(&b, "  font-family: %q;\n", cfg.FontFamily)
	fmt.Fprintf(&b, "  font-size: %gpx;\n", cfg.FontSize)
	fmt.Fprintf(&b, "  font-weight: bold;\n")
	fmt.Fprintf(&b, "}\n")

	return b.String()
}
