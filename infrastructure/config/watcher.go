package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "decisionmap/domain/config"
)

// Watcher reloads the overlay file and pushes the resulting domain rules to
// its listeners. Keys removed from the file keep their last value.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  Config
	mu       sync.RWMutex
	onChange []func(*domainconfig.DomainConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce time.Duration
}

// NewWatcher watches cfg.ConfigFile for changes
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.ConfigFile == "" {
		return nil, fmt.Errorf("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen
	dir := filepath.Dir(cfg.ConfigFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     cfg.ConfigFile,
		watcher:  watcher,
		current:  *cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}, nil
}

// OnChange registers a callback for configuration changes
func (w *Watcher) OnChange(handler func(*domainconfig.DomainConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the last valid configuration
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	overlay, err := LoadOverlay(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}

	w.mu.Lock()
	next := w.current
	overlay.ApplyTo(&next)
	if err := next.Validate(); err != nil {
		w.mu.Unlock()
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}
	w.current = next
	handlers := append([]func(*domainconfig.DomainConfig){}, w.onChange...)
	w.mu.Unlock()

	dc := next.DomainConfig()
	for _, handler := range handlers {
		handler(dc)
	}

	w.logger.Info("Configuration reloaded",
		zap.Float64("overlap_threshold", dc.OverlapThreshold),
		zap.Float64("relevance_threshold", dc.RelevanceThreshold),
		zap.Int("rewrite_batch_size", dc.RewriteBatchSize),
	)
}
