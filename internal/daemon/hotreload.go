package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"imeosd/internal/config"
)

// debounceDelay coalesces the burst of filesystem events an editor
// produces for a single save into one reload.
const debounceDelay = 250 * time.Millisecond

// ConfigWatcher watches the configuration file for changes and delivers
// validated reloaded configurations. Invalid edits are logged and
// dropped; the running configuration stays in effect.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	filePath string

	reloads chan *config.Config
	done    chan struct{}

	mu      sync.Mutex
	running bool
}

// NewConfigWatcher creates a watcher for the given configuration file.
func NewConfigWatcher(filePath string, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ConfigWatcher{
		watcher:  watcher,
		logger:   logger,
		filePath: filePath,
		reloads:  make(chan *config.Config, 1),
		done:     make(chan struct{}),
	}, nil
}

// Reloads returns the channel that delivers reloaded configurations.
func (cw *ConfigWatcher) Reloads() <-chan *config.Config {
	return cw.reloads
}

// Start begins watching. The containing directory is watched rather
// than the file itself so atomic rename-into-place saves are seen.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	dir := filepath.Dir(cw.filePath)
	if err := cw.watcher.Add(dir); err != nil {
		return err
	}

	go cw.watch(ctx)

	cw.logger.Debug("watching configuration file", "path", cw.filePath)
	return nil
}

// watch is the main watch loop.
func (cw *ConfigWatcher) watch(ctx context.Context) {
	filename := filepath.Base(cw.filePath)

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				debounceCh = debounce.C
			} else {
				debounce.Reset(debounceDelay)
			}

		case <-debounceCh:
			debounce = nil
			debounceCh = nil
			cw.reload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("config watcher error", "error", err)

		case <-ctx.Done():
			return

		case <-cw.done:
			return
		}
	}
}

// reload parses and validates the file, then hands the result to the
// consumer. A stale pending reload is replaced by the newer one.
func (cw *ConfigWatcher) reload() {
	cfg, err := config.Load(cw.filePath)
	if err != nil {
		cw.logger.Warn("ignoring invalid configuration change",
			"path", cw.filePath, "error", err)
		return
	}

	select {
	case cw.reloads <- cfg:
	default:
		select {
		case <-cw.reloads:
		default:
		}
		cw.reloads <- cfg
	}

	cw.logger.Debug("configuration change queued", "path", cw.filePath)
}

// Stop stops the watcher.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}
	cw.running = false
	close(cw.done)
	return cw.watcher.Close()
}
