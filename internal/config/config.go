// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values, used when no config file exists or a
// section is left out.
const (
	DefaultFallbackGlyph = "en"
	DefaultWidth         = 150
	DefaultHeight        = 150
	DefaultFontSize      = 70.0
	DefaultFontFamily    = "Sans"
	DefaultCornerRadius  = 20
	DefaultDisplayTime   = 800 * time.Millisecond
	DefaultFadeTime      = 200 * time.Millisecond
	DefaultFadeFrames    = 20
)

// Config is the imeosd configuration.
// Loaded from ~/.config/imeosd/imeosd.toml; immutable after load.
type Config struct {
	// InputMethods maps raw fcitx5 input-method identifiers to display
	// glyphs. Order matters: the first entry with a matching id wins.
	InputMethods []InputMethod `toml:"input_methods"`

	// FallbackGlyph is shown for identifiers with no mapping entry.
	FallbackGlyph string `toml:"fallback_glyph"`

	Overlay   OverlayConfig   `toml:"overlay"`
	Animation AnimationConfig `toml:"animation"`
}

// InputMethod is one entry of the identifier-to-glyph table.
type InputMethod struct {
	ID    string `toml:"id"`
	Glyph string `toml:"glyph"`
}

// OverlayConfig contains the size and style of the indicator surface.
type OverlayConfig struct {
	Width        int     `toml:"width"`         // Surface width in pixels
	Height       int     `toml:"height"`        // Surface height in pixels
	FontSize     float64 `toml:"font_size"`     // Glyph font size in pixels
	FontFamily   string  `toml:"font_family"`   // Glyph font family
	CornerRadius int     `toml:"corner_radius"` // Panel corner radius in pixels
	Background   Color   `toml:"background"`    // Full-surface backdrop color
	Panel        Color   `toml:"panel"`         // Rounded panel color
	Text         Color   `toml:"text"`          // Glyph color
}

// AnimationConfig contains the display/fade timing parameters.
// Durations can be specified as "800ms", "1s", etc. or as integer
// milliseconds.
type AnimationConfig struct {
	DisplayDuration Duration `toml:"display_duration"` // Full-opacity hold time
	FadeDuration    Duration `toml:"fade_duration"`    // Total fade-out time
	FadeFrames      int      `toml:"fade_frames"`      // Frames drawn during the fade
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		InputMethods: []InputMethod{
			{ID: "mozc", Glyph: "かな"},
		},
		FallbackGlyph: DefaultFallbackGlyph,
		Overlay: OverlayConfig{
			Width:        DefaultWidth,
			Height:       DefaultHeight,
			FontSize:     DefaultFontSize,
			FontFamily:   DefaultFontFamily,
			CornerRadius: DefaultCornerRadius,
			Background:   Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xf2},
			Panel:        Color{R: 0x33, G: 0x33, B: 0x33, A: 0xf2},
			Text:         Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		},
		Animation: AnimationConfig{
			DisplayDuration: Duration(DefaultDisplayTime),
			FadeDuration:    Duration(DefaultFadeTime),
			FadeFrames:      DefaultFadeFrames,
		},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "imeosd", "imeosd.toml"), nil
}

// Load loads the configuration from the given path.
// If path is empty, the default config path is used. A missing file
// yields the default configuration; a malformed or invalid file is an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in defaults for fields the file left unset.
// Unmarshaling into a pre-populated struct would append to the
// input_methods table instead of replacing it, so defaults are applied
// after the fact.
func (c *Config) applyDefaults() {
	def := Default()

	if len(c.InputMethods) == 0 {
		c.InputMethods = def.InputMethods
	}
	if c.FallbackGlyph == "" {
		c.FallbackGlyph = def.FallbackGlyph
	}

	if c.Overlay.Width == 0 {
		c.Overlay.Width = def.Overlay.Width
	}
	if c.Overlay.Height == 0 {
		c.Overlay.Height = def.Overlay.Height
	}
	if c.Overlay.FontSize == 0 {
		c.Overlay.FontSize = def.Overlay.FontSize
	}
	if c.Overlay.FontFamily == "" {
		c.Overlay.FontFamily = def.Overlay.FontFamily
	}
	if c.Overlay.CornerRadius == 0 {
		c.Overlay.CornerRadius = def.Overlay.CornerRadius
	}
	if c.Overlay.Background.IsZero() {
		c.Overlay.Background = def.Overlay.Background
	}
	if c.Overlay.Panel.IsZero() {
		c.Overlay.Panel = def.Overlay.Panel
	}
	if c.Overlay.Text.IsZero() {
		c.Overlay.Text = def.Overlay.Text
	}

	if c.Animation.DisplayDuration == 0 {
		c.Animation.DisplayDuration = def.Animation.DisplayDuration
	}
	if c.Animation.FadeDuration == 0 {
		c.Animation.FadeDuration = def.Animation.FadeDuration
	}
	if c.Animation.FadeFrames == 0 {
		c.Animation.FadeFrames = def.Animation.FadeFrames
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FallbackGlyph == "" {
		return fmt.Errorf("fallback_glyph must not be empty")
	}

	seen := make(map[string]bool, len(c.InputMethods))
	for i, im := range c.InputMethods {
		if im.ID == "" {
			return fmt.Errorf("input_methods[%d]: id must not be empty", i)
		}
		if im.Glyph == "" {
			return fmt.Errorf("input_methods[%d] (%s): glyph must not be empty", i, im.ID)
		}
		if seen[im.ID] {
			return fmt.Errorf("input_methods: duplicate id %q", im.ID)
		}
		seen[im.ID] = true
	}

	if c.Overlay.Width <= 0 || c.Overlay.Height <= 0 {
		return fmt.Errorf("overlay size must be positive, got %dx%d", c.Overlay.Width, c.Overlay.Height)
	}
	if c.Overlay.FontSize <= 0 {
		return fmt.Errorf("font_size must be positive, got %g", c.Overlay.FontSize)
	}
	if c.Overlay.CornerRadius < 0 {
		return fmt.Errorf("corner_radius must not be negative, got %d", c.Overlay.CornerRadius)
	}

	if c.Animation.DisplayDuration <= 0 {
		return fmt.Errorf("display_duration must be positive, got %s", c.Animation.DisplayDuration.Duration())
	}
	if c.Animation.FadeDuration <= 0 {
		return fmt.Errorf("fade_duration must be positive, got %s", c.Animation.FadeDuration.Duration())
	}
	if c.Animation.FadeFrames <= 0 {
		return fmt.Errorf("fade_frames must be positive, got %d", c.Animation.FadeFrames)
	}

	return nil
}

// GlyphFor looks up the display glyph for a raw input-method identifier.
// The first entry with a matching id wins; unmapped identifiers resolve
// to the fallback glyph.
func (c *Config) GlyphFor(id string) string {
	for _, im := range c.InputMethods {
		if im.ID == id {
			return im.Glyph
		}
	}
	return c.FallbackGlyph
}
