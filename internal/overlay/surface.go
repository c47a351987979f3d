// Package overlay manages the layer-shell indicator surface.
package overlay

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"imeosd/internal/config"
)

// Namespace identifies the layer surface to the compositor.
const Namespace = "imeosd"

// Manager owns the single overlay surface: it creates the surface
// lazily on the first show, repaints it on every animation frame, and
// destroys it when the cycle ends. All GTK objects are touched only on
// the GTK main loop; the exported methods may be called from any
// goroutine and marshal their work with glib.IdleAdd, which preserves
// call order, so a final zero-opacity frame queued before a Hide is
// always drawn before the surface goes away.
type Manager struct {
	app    *gtk.Application
	logger *slog.Logger

	cfg      *config.Config
	position PositionFunc
	onError  func(error)

	// GTK main loop only below here.
	window   *gtk.Window
	label    *gtk.Label
	provider *gtk.CSSProvider
}

// NewManager creates a new overlay manager.
func NewManager(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Manager{
		app:    app,
		cfg:    cfg,
		logger: logger,
	}
}

// SetPositionFunc injects the collaborator that reports the focused
// window/output bounds used to center the surface.
func (m *Manager) SetPositionFunc(fn PositionFunc) {
	m.position = fn
}

// SetErrorCallback sets the callback invoked when a surface cannot be
// created. The callback runs on the GTK main loop and must not block.
func (m *Manager) SetErrorCallback(cb func(error)) {
	m.onError = cb
}

// ApplyConfig swaps the overlay configuration. The stylesheet updates
// immediately; size and position apply to the next surface.
func (m *Manager) ApplyConfig(cfg *config.Config) {
	glib.IdleAdd(func() {
		m.cfg = cfg
		if m.provider != nil {
			m.provider.LoadFromString(StyleCSS(cfg.Overlay))
		}
		m.logger.Debug("overlay style updated")
	})
}

// Show presents the glyph at the given opacity, creating the surface if
// none exists. Creation failure is reported through the error callback
// and the call becomes a no-op for this cycle.
func (m *Manager) Show(glyph string, opacity float64) {
	glib.IdleAdd(func() {
		if m.window == nil {
			if err := m.create(glyph); err != nil {
				m.logger.Warn("failed to create overlay surface", "error", err)
				if m.onError != nil {
					m.onError(err)
				}
				return
			}
		}
		m.label.SetText(glyph)
		m.window.SetOpacity(opacity)
	})
}

// Update repaints the existing surface with the glyph at the given
// opacity. Without a surface this is a no-op.
func (m *Manager) Update(glyph string, opacity float64) {
	glib.IdleAdd(func() {
		if m.window == nil {
			return
		}
		m.label.SetText(glyph)
		m.window.SetOpacity(opacity)
	})
}

// Hide destroys the surface. Safe to call without one.
func (m *Manager) Hide() {
	glib.IdleAdd(func() {
		m.destroy()
	})
}

// create builds the layer surface. GTK main loop only.
func (m *Manager) create(glyph string) error {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return &SurfaceError{Message: "no display available"}
	}
	if !layershell.IsSupported() {
		return &SurfaceError{Message: "compositor does not support the layer-shell protocol"}
	}

	if m.provider == nil {
		m.provider = gtk.NewCSSProvider()
		m.provider.LoadFromString(StyleCSS(m.cfg.Overlay))
		gtk.StyleContextAddProviderForDisplay(
			display,
			m.provider,
			gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
		)
	}

	width := m.cfg.Overlay.Width
	height := m.cfg.Overlay.Height

	window := gtk.NewWindow()
	window.SetApplication(m.app)
	window.SetDecorated(false)
	window.SetResizable(false)
	window.SetDefaultSize(width, height)
	window.SetSizeRequest(width, height)
	window.AddCSSClass("imeosd-overlay")

	layershell.InitForWindow(window)
	layershell.SetLayer(window, layershell.LayerShellLayerOverlay)
	layershell.SetKeyboardMode(window, layershell.LayerShellKeyboardModeNone)
	layershell.SetExclusiveZone(window, -1)
	layershell.SetNamespace(window, Namespace)

	// Anchor over the focused area when a position collaborator is
	// wired; otherwise stay unanchored and let the compositor center
	// the surface on the output.
	if m.position != nil {
		if bounds, err := m.position(); err == nil {
			left, top := CenterMargins(bounds, width, height)
			layershell.SetAnchor(window, layershell.LayerShellEdgeTop, true)
			layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, true)
			layershell.SetMargin(window, layershell.LayerShellEdgeTop, top)
			layershell.SetMargin(window, layershell.LayerShellEdgeLeft, left)
		} else {
			m.logger.Debug("focus bounds unavailable, using compositor centering", "error", err)
		}
	}

	label := gtk.NewLabel(glyph)
	label.AddCSSClass("imeosd-glyph")
	label.SetHExpand(true)
	label.SetVExpand(true)
	window.SetChild(label)

	window.Present()

	m.window = window
	m.label = label

	m.logger.Debug("overlay surface created",
		"glyph", glyph,
		"width", width,
		"height", height,
	)
	return nil
}

// destroy tears the surface down. GTK main loop only.
func (m *Manager) destroy() {
	if m.window == nil {
		return
	}
	m.window.Close()
	m.window = nil
	m.label = nil
	m.logger.Debug("overlay surface destroyed")
}

// SurfaceError represents a surface-related error.
type SurfaceError struct {
	Message string
	Cause   error
}

func (e *SurfaceError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SurfaceError) Unwrap() error {
	return e.Cause
}
