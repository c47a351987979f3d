// Package daemon provides the main orchestration for imeosd. It
// coordinates the input-method watcher, the animation timeline, the
// overlay surface, and configuration hot-reload.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"imeosd/internal/animation"
	"imeosd/internal/config"
	"imeosd/internal/watcher"
)

// Presenter is the surface the controller draws through. Calls may be
// made from the controller goroutine at any time; implementations
// marshal onto their own rendering context.
type Presenter interface {
	// Show presents the glyph at the given opacity, creating the
	// surface if needed.
	Show(glyph string, opacity float64)
	// Update repaints an existing surface.
	Update(glyph string, opacity float64)
	// Hide destroys the surface.
	Hide()
	// ApplyConfig restyles the surface from a new configuration.
	ApplyConfig(cfg *config.Config)
}

// Controller owns the animation timeline and drives the presenter from
// mode-change events and frame ticks. All state lives on the Run
// goroutine; the only cross-goroutine entry point is SurfaceFailed.
type Controller struct {
	cfg       *config.Config
	timeline  *animation.Timeline
	presenter Presenter
	logger    *slog.Logger

	events  <-chan watcher.ModeChange
	reloads <-chan *config.Config

	// surfaceErrs receives creation failures from the presenter.
	surfaceErrs chan error

	// visible tracks whether a surface currently exists.
	visible bool
	// cycle identifies the animation cycle in progress, for log
	// correlation across events, ticks and teardown.
	cycle ulid.ULID

	// pending holds timing parameters from a reload that arrived while
	// a cycle was running; applied once the timeline returns to idle.
	pending *animation.Config
}

// NewController creates a controller wired to the given event source
// and presenter.
func NewController(cfg *config.Config, presenter Presenter, events <-chan watcher.ModeChange, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Controller{
		cfg:       cfg,
		presenter: presenter,
		logger:    logger,
		events:    events,
		timeline: animation.NewTimeline(animation.Config{
			DisplayDuration: cfg.Animation.DisplayDuration.Duration(),
			FadeDuration:    cfg.Animation.FadeDuration.Duration(),
			FadeFrames:      cfg.Animation.FadeFrames,
		}),
		surfaceErrs: make(chan error, 4),
	}
}

// SetReloadChannel wires the channel that delivers reloaded
// configurations. Must be called before Run.
func (c *Controller) SetReloadChannel(reloads <-chan *config.Config) {
	c.reloads = reloads
}

// SurfaceFailed reports that the presenter could not create a surface.
// Safe to call from any goroutine; never blocks.
func (c *Controller) SurfaceFailed(err error) {
	select {
	case c.surfaceErrs <- err:
	default:
	}
}

// Run is the controller event loop. It returns when ctx is cancelled,
// tearing down any surface still on screen.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Debug("controller started",
		"display_duration", c.cfg.Animation.DisplayDuration.Duration(),
		"fade_duration", c.cfg.Animation.FadeDuration.Duration(),
		"fade_frames", c.cfg.Animation.FadeFrames)

	// The ticker runs only while a cycle is active; tickCh stays nil
	// while idle so the select never wakes on it.
	var ticker *time.Ticker
	var tickCh <-chan time.Time

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickCh = nil
		}
	}
	startTicker := func() {
		stopTicker()
		ticker = time.NewTicker(c.timeline.FrameInterval())
		tickCh = ticker.C
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			if c.visible {
				c.presenter.Hide()
				c.visible = false
			}
			c.timeline.Reset()
			c.logger.Debug("controller stopped")
			return

		case ev, ok := <-c.events:
			if !ok {
				// The bus subscription is gone; keep running so an
				// in-flight fade completes, but no new cycles start.
				c.logger.Warn("mode-change events exhausted")
				c.events = nil
				continue
			}
			c.handleModeChange(ev, startTicker)

		case <-tickCh:
			c.handleTick(stopTicker)

		case err := <-c.surfaceErrs:
			// The surface never came up, so the cycle it belonged to
			// is skipped rather than animated against nothing.
			c.logger.Warn("surface creation failed, skipping cycle",
				"cycle", c.cycle.String(), "error", err)
			c.timeline.Reset()
			c.visible = false
			stopTicker()
			c.applyPending()

		case cfg, ok := <-c.reloads:
			if !ok {
				c.reloads = nil
				continue
			}
			c.handleReload(cfg)
		}
	}
}

// handleModeChange starts a fresh cycle for the new mode, interrupting
// whatever phase the previous cycle was in.
func (c *Controller) handleModeChange(ev watcher.ModeChange, startTicker func()) {
	glyph := c.cfg.GlyphFor(ev.ID)
	c.cycle = ulid.Make()

	c.logger.Info("input method changed",
		"id", ev.ID, "glyph", glyph, "cycle", c.cycle.String())

	c.timeline.ModeChanged(glyph)
	c.presenter.Show(glyph, 1)
	c.visible = true
	startTicker()
}

// handleTick advances the timeline one frame and mirrors the result
// onto the presenter.
func (c *Controller) handleTick(stopTicker func()) {
	res := c.timeline.Tick(c.timeline.FrameInterval())

	if res.Redraw && c.visible {
		c.presenter.Update(c.timeline.Glyph(), res.Opacity)
	}
	if res.Destroy {
		if c.visible {
			c.presenter.Hide()
			c.visible = false
		}
		stopTicker()
		c.logger.Debug("cycle complete", "cycle", c.cycle.String())
		c.applyPending()
	}
}

// handleReload applies a reloaded configuration. Styling and glyph
// mapping take effect immediately; timing parameters wait for the
// running cycle to finish so a fade never changes cadence mid-flight.
func (c *Controller) handleReload(cfg *config.Config) {
	c.cfg = cfg
	c.presenter.ApplyConfig(cfg)

	ac := animation.Config{
		DisplayDuration: cfg.Animation.DisplayDuration.Duration(),
		FadeDuration:    cfg.Animation.FadeDuration.Duration(),
		FadeFrames:      cfg.Animation.FadeFrames,
	}
	if c.timeline.State() == animation.StateIdle {
		c.timeline.SetConfig(ac)
		c.pending = nil
		c.logger.Info("configuration reloaded")
	} else {
		c.pending = &ac
		c.logger.Info("configuration reloaded, timing deferred until cycle ends")
	}
}

// applyPending installs timing parameters deferred by a mid-cycle
// reload. Call only when the timeline is idle.
func (c *Controller) applyPending() {
	if c.pending == nil {
		return
	}
	c.timeline.SetConfig(*c.pending)
	c.pending = nil
	c.logger.Debug("deferred timing parameters applied")
}
