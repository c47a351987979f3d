package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imeosd/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the resolved settings",
	Long: `Load and validate the configuration file, then print the glyph
mapping and timing parameters that the daemon would run with.

Exits non-zero when the configuration is invalid.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath
	if path == "" {
		var err error
		path, err = config.Path()
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Printf("config: %s\n\n", path)

	fmt.Println("input methods:")
	for _, im := range cfg.InputMethods {
		fmt.Printf("  %-20s -> %s\n", im.ID, im.Glyph)
	}
	fmt.Printf("  %-20s -> %s\n\n", "(fallback)", cfg.FallbackGlyph)

	fmt.Println("overlay:")
	fmt.Printf("  size:          %dx%d px\n", cfg.Overlay.Width, cfg.Overlay.Height)
	fmt.Printf("  font:          %s %gpx\n", cfg.Overlay.FontFamily, cfg.Overlay.FontSize)
	fmt.Printf("  corner radius: %dpx\n\n", cfg.Overlay.CornerRadius)

	fmt.Println("animation:")
	fmt.Printf("  display: %s\n", cfg.Animation.DisplayDuration.Duration())
	fmt.Printf("  fade:    %s over %d frames\n",
		cfg.Animation.FadeDuration.Duration(), cfg.Animation.FadeFrames)

	return nil
}
