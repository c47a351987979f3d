// Package watcher subscribes to fcitx5 input-method change signals on
// the D-Bus session bus.
package watcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	// BusName is the well-known bus name of the fcitx5 daemon.
	BusName = "org.fcitx.Fcitx5"
	// SignalInterface carries the input-method change signal.
	SignalInterface = "org.fcitx.Fcitx.InputMethod1"
	// SignalMember is the input-method change signal name.
	SignalMember = "CurrentIMChanged"

	controllerPath      = "/controller"
	controllerInterface = "org.fcitx.Fcitx.Controller1"
)

// ModeChange is emitted when fcitx5 announces a new input method.
type ModeChange struct {
	// ID is the raw input-method identifier, e.g. "mozc" or
	// "keyboard-us". Glyph resolution happens downstream so a reloaded
	// mapping applies without coordination here.
	ID string
}

// Watcher listens for CurrentIMChanged signals and forwards them as
// ModeChange events. One subscription is made at startup; if it is lost
// the events channel is closed and no reconnect is attempted.
type Watcher struct {
	conn   *dbus.Conn
	logger *slog.Logger

	signals chan *dbus.Signal
	events  chan ModeChange
}

// New creates a new watcher.
func New(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:  logger,
		signals: make(chan *dbus.Signal, 16),
		events:  make(chan ModeChange, 16),
	}
}

// Start connects to the session bus and subscribes to the mode-change
// signal. Failure here means the daemon cannot do its job and is fatal
// to startup.
func (w *Watcher) Start(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	w.conn = conn

	err = conn.AddMatchSignal(
		dbus.WithMatchSender(BusName),
		dbus.WithMatchInterface(SignalInterface),
		dbus.WithMatchMember(SignalMember),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s.%s: %w", SignalInterface, SignalMember, err)
	}

	conn.Signal(w.signals)
	go w.processSignals()

	w.logger.Info("watching input-method changes",
		"bus", BusName,
		"signal", SignalInterface+"."+SignalMember)

	// Seed the pipeline with the input method active right now, so the
	// indicator shows once at startup. Best effort: fcitx5 may still be
	// starting up.
	go func() {
		id, err := w.Current(ctx)
		if err != nil {
			w.logger.Debug("could not query current input method", "error", err)
			return
		}
		select {
		case w.events <- ModeChange{ID: id}:
		case <-ctx.Done():
		}
	}()

	return nil
}

// Events returns the mode-change event channel. It is closed when the
// subscription is lost.
func (w *Watcher) Events() <-chan ModeChange {
	return w.events
}

// Current queries fcitx5 for the identifier of the active input method.
func (w *Watcher) Current(ctx context.Context) (string, error) {
	if w.conn == nil {
		return "", fmt.Errorf("not connected to D-Bus")
	}

	var id string
	obj := w.conn.Object(BusName, controllerPath)
	call := obj.CallWithContext(ctx, controllerInterface+".CurrentInputMethod", 0)
	if call.Err != nil {
		return "", fmt.Errorf("failed to query current input method: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return "", fmt.Errorf("unexpected CurrentInputMethod reply: %w", err)
	}
	return id, nil
}

// processSignals reads bus signals until the connection goes away.
func (w *Watcher) processSignals() {
	defer close(w.events)

	for sig := range w.signals {
		id, err := parseSignal(sig)
		if err != nil {
			w.logger.Warn("dropping malformed mode-change signal", "error", err)
			continue
		}

		select {
		case w.events <- ModeChange{ID: id}:
		default:
			// The consumer is wedged; dropping is better than blocking
			// the bus reader.
			w.logger.Warn("mode-change event dropped, consumer not keeping up", "id", id)
		}
	}

	w.logger.Warn("input-method signal subscription lost")
}

// parseSignal extracts the input-method identifier from a
// CurrentIMChanged signal.
func parseSignal(sig *dbus.Signal) (string, error) {
	if sig.Name != SignalInterface+"."+SignalMember {
		return "", fmt.Errorf("unexpected signal %s", sig.Name)
	}
	if len(sig.Body) < 1 {
		return "", fmt.Errorf("signal has empty body")
	}
	id, ok := sig.Body[0].(string)
	if !ok {
		return "", fmt.Errorf("signal payload is %T, want string", sig.Body[0])
	}
	return id, nil
}

// Stop unsubscribes and closes the bus connection. The signal loop then
// winds down and closes the events channel.
func (w *Watcher) Stop() error {
	if w.conn == nil {
		return nil
	}

	err := w.conn.RemoveMatchSignal(
		dbus.WithMatchSender(BusName),
		dbus.WithMatchInterface(SignalInterface),
		dbus.WithMatchMember(SignalMember),
	)
	if err != nil {
		w.logger.Warn("failed to remove signal match", "error", err)
	}

	w.conn.RemoveSignal(w.signals)
	close(w.signals)
	return w.conn.Close()
}
