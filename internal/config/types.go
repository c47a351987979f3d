package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings. Supports formats like "800ms", "1s", "1m30s", or integer
// milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Bare integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '800ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Color is an RGBA color that unmarshals from hex notation:
// #RGB, #RRGGBB or #RRGGBBAA.
type Color struct {
	R, G, B, A uint8
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")

	switch len(s) {
	case 3:
		var expanded strings.Builder
		for _, r := range s {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		s = expanded.String() + "ff"
	case 6:
		s += "ff"
	case 8:
		// Already RRGGBBAA
	default:
		return fmt.Errorf("invalid color %q: must be #RGB, #RRGGBB or #RRGGBBAA", string(text))
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", string(text), err)
	}

	c.R = uint8(v >> 24)
	c.G = uint8(v >> 16)
	c.B = uint8(v >> 8)
	c.A = uint8(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

// IsZero reports whether the color is the zero value, which never occurs
// in a parsed config (fully transparent black is written #00000000 and
// parses into the same struct, but that is indistinguishable from unset
// and treated as such).
func (c Color) IsZero() bool {
	return c == Color{}
}

// CSS renders the color as a CSS rgba() expression.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(float64(c.A)/255, 'f', 3, 64))
}
