package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "en", cfg.FallbackGlyph)
	assert.Equal(t, 150, cfg.Overlay.Width)
	assert.Equal(t, 150, cfg.Overlay.Height)
	assert.Equal(t, 70.0, cfg.Overlay.FontSize)
	assert.Equal(t, "Sans", cfg.Overlay.FontFamily)
	assert.Equal(t, 800*time.Millisecond, cfg.Animation.DisplayDuration.Duration())
	assert.Equal(t, 200*time.Millisecond, cfg.Animation.FadeDuration.Duration())
	assert.Equal(t, 20, cfg.Animation.FadeFrames)
	assert.NotEmpty(t, cfg.InputMethods)

	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/imeosd.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imeosd.toml")

	content := `
fallback_glyph = "A"

[[input_methods]]
id = "mozc-jp"
glyph = "あ"

[[input_methods]]
id = "hangul"
glyph = "한"

[overlay]
width = 200
height = 120
font_size = 48.5
font_family = "Noto Sans CJK JP"
corner_radius = 12
background = "#000000cc"
text = "#fff"

[animation]
display_duration = "1s"
fade_duration = 300
fade_frames = 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "A", cfg.FallbackGlyph)
	require.Len(t, cfg.InputMethods, 2)
	assert.Equal(t, InputMethod{ID: "mozc-jp", Glyph: "あ"}, cfg.InputMethods[0])
	assert.Equal(t, InputMethod{ID: "hangul", Glyph: "한"}, cfg.InputMethods[1])

	assert.Equal(t, 200, cfg.Overlay.Width)
	assert.Equal(t, 120, cfg.Overlay.Height)
	assert.Equal(t, 48.5, cfg.Overlay.FontSize)
	assert.Equal(t, "Noto Sans CJK JP", cfg.Overlay.FontFamily)
	assert.Equal(t, 12, cfg.Overlay.CornerRadius)
	assert.Equal(t, Color{R: 0, G: 0, B: 0, A: 0xcc}, cfg.Overlay.Background)
	assert.Equal(t, Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, cfg.Overlay.Text)

	assert.Equal(t, time.Second, cfg.Animation.DisplayDuration.Duration())
	assert.Equal(t, 300*time.Millisecond, cfg.Animation.FadeDuration.Duration())
	assert.Equal(t, 30, cfg.Animation.FadeFrames)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imeosd.toml")

	content := `
[overlay]
width = 300
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Changed field
	assert.Equal(t, 300, cfg.Overlay.Width)

	// Unchanged fields should have defaults
	assert.Equal(t, 150, cfg.Overlay.Height)
	assert.Equal(t, "en", cfg.FallbackGlyph)
	assert.Equal(t, 20, cfg.Animation.FadeFrames)
	assert.Equal(t, Default().InputMethods, cfg.InputMethods)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imeosd.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty fallback",
			mutate:  func(c *Config) { c.FallbackGlyph = "" },
			wantErr: "fallback_glyph",
		},
		{
			name: "duplicate id",
			mutate: func(c *Config) {
				c.InputMethods = []InputMethod{
					{ID: "mozc", Glyph: "あ"},
					{ID: "mozc", Glyph: "ア"},
				}
			},
			wantErr: "duplicate id",
		},
		{
			name: "empty id",
			mutate: func(c *Config) {
				c.InputMethods = []InputMethod{{ID: "", Glyph: "x"}}
			},
			wantErr: "id must not be empty",
		},
		{
			name: "empty glyph",
			mutate: func(c *Config) {
				c.InputMethods = []InputMethod{{ID: "mozc", Glyph: ""}}
			},
			wantErr: "glyph must not be empty",
		},
		{
			name:    "zero width",
			mutate:  func(c *Config) { c.Overlay.Width = 0 },
			wantErr: "overlay size",
		},
		{
			name:    "negative font size",
			mutate:  func(c *Config) { c.Overlay.FontSize = -1 },
			wantErr: "font_size",
		},
		{
			name:    "zero fade frames",
			mutate:  func(c *Config) { c.Animation.FadeFrames = 0 },
			wantErr: "fade_frames",
		},
		{
			name:    "zero display duration",
			mutate:  func(c *Config) { c.Animation.DisplayDuration = 0 },
			wantErr: "display_duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGlyphFor(t *testing.T) {
	cfg := &Config{
		InputMethods: []InputMethod{
			{ID: "mozc-jp", Glyph: "あ"},
			{ID: "keyboard-us", Glyph: "EN"},
		},
		FallbackGlyph: "?",
	}

	assert.Equal(t, "あ", cfg.GlyphFor("mozc-jp"))
	assert.Equal(t, "EN", cfg.GlyphFor("keyboard-us"))
	assert.Equal(t, "?", cfg.GlyphFor("unknown-id"))
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "800ms", want: 800 * time.Millisecond},
		{in: "1s", want: time.Second},
		{in: "1m30s", want: 90 * time.Second},
		{in: "250", want: 250 * time.Millisecond},
		{in: "oops", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestColor_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#1a1a1a", want: Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}},
		{in: "#1a1a1af2", want: Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xf2}},
		{in: "#fff", want: Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{in: "1a1a1a", want: Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Color
			err := c.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestColor_CSS(t *testing.T) {
	c := Color{R: 26, G: 26, B: 26, A: 255}
	assert.Equal(t, "rgba(26, 26, 26, 1.000)", c.CSS())

	c = Color{R: 0, G: 0, B: 0, A: 0}
	assert.Equal(t, "rgba(0, 0, 0, 0.000)", c.CSS())
}

func TestColor_RoundTrip(t *testing.T) {
	c := Color{R: 0x33, G: 0x33, B: 0x33, A: 0xf2}
	text, err := c.MarshalText()
	require.NoError(t, err)

	var parsed Color
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, c, parsed)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/imeosd/imeosd.toml", path)
}
