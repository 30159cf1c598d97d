package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainconfig "printora-backend/domain/config"
)

// TuningWatcher watches the tuning file and pushes validated reloads to
// registered listeners. A file that fails to parse or validate is logged
// and ignored; the last good configuration stays active.
type TuningWatcher struct {
	path        string
	environment string
	watcher     *fsnotify.Watcher
	current     *domainconfig.DomainConfig
	mu          sync.RWMutex
	onChange    []func(*domainconfig.DomainConfig)
	logger      *zap.Logger
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewTuningWatcher loads the initial tuning and prepares the file watcher
func NewTuningWatcher(path, environment string, logger *zap.Logger) (*TuningWatcher, error) {
	initial, err := LoadTuning(path, environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial tuning: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning file: %w", err)
	}

	// Also watch the directory for atomic saves (rename operations)
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		logger.Warn("Failed to watch tuning directory", zap.Error(err))
	}

	return &TuningWatcher{
		path:        path,
		environment: environment,
		watcher:     watcher,
		current:     initial,
		onChange:    make([]func(*domainconfig.DomainConfig), 0),
		logger:      logger,
		stopCh:      make(chan struct{}),
	}, nil
}

// Start begins watching for tuning changes
func (w *TuningWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Tuning watcher started", zap.String("path", w.path))
}

// Stop stops watching for tuning changes
func (w *TuningWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Tuning watcher stopped")
	})
}

// OnChange registers a callback invoked with each validated reload
func (w *TuningWatcher) OnChange(handler func(*domainconfig.DomainConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// GetCurrent returns the active tuning
func (w *TuningWatcher) GetCurrent() *domainconfig.DomainConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// watchLoop is the main loop that watches for file changes
func (w *TuningWatcher) watchLoop() {
	// Debounce to avoid reloading on every write syscall of one save
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

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

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// handleChange reloads the tuning file and notifies listeners
func (w *TuningWatcher) handleChange() {
	w.logger.Info("Tuning file changed, reloading", zap.String("path", w.path))

	reloaded, err := LoadTuning(w.path, w.environment)
	if err != nil {
		w.logger.Error("Failed to reload tuning, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = reloaded
	handlers := make([]func(*domainconfig.DomainConfig), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	for _, handler := range handlers {
		handler(reloaded)
	}

	w.logger.Info("Tuning reloaded",
		zap.Int("cache_profiles", len(reloaded.CacheProfiles)),
		zap.Int("rate_limit_presets", len(reloaded.RateLimitRules)),
	)
}
