// config_watcher.go: Argus-powered configuration reloads for a Manager
//
// The watcher loads the configuration file once at Start, applies it to the
// manager, then rescans the module directory every time Argus reports the
// file changed. Reloads are whole-manager: every module is released and the
// directory is scanned again with the new settings.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	"github.com/agilira/go-timecache"
)

// WatchOptions tunes the file watcher.
type WatchOptions struct {
	// PollInterval is how often Argus checks the file.
	PollInterval time.Duration
	// CacheTTL bounds stat caching inside Argus; keep it <= PollInterval.
	CacheTTL time.Duration
	// OnReload, when set, is called after each reload attempt.
	OnReload func(config ManagerConfig, err error)
}

// DefaultWatchOptions returns the options used by the modhost CLI.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval: 2 * time.Second,
		CacheTTL:     time.Second,
	}
}

// ConfigWatcher keeps a Manager in sync with a configuration file.
type ConfigWatcher struct {
	manager    *Manager
	watcher    *argus.Watcher
	configPath string
	options    WatchOptions
	logger     Logger

	mu         sync.Mutex
	running    atomic.Bool
	stopped    atomic.Bool
	reloads    atomic.Int64
	lastReload atomic.Int64
}

// NewConfigWatcher creates a watcher for configPath driving manager.
func NewConfigWatcher(manager *Manager, configPath string, options WatchOptions, logger any) (*ConfigWatcher, error) {
	if manager == nil {
		return nil, NewConfigWatcherError("manager is required", nil)
	}
	if configPath == "" {
		return nil, NewConfigWatcherError("config path is required", nil)
	}

	defaults := DefaultWatchOptions()
	if options.PollInterval <= 0 {
		options.PollInterval = defaults.PollInterval
	}
	if options.CacheTTL <= 0 || options.CacheTTL > options.PollInterval {
		options.CacheTTL = options.PollInterval / 2
	}

	internalLogger := NewLogger(logger).With("component", "config_watcher")
	watcher := argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		Audit:                argus.AuditConfig{Enabled: false},
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			internalLogger.Error("Config file watching error", "error", err, "file", filepath)
		},
	})

	return &ConfigWatcher{
		manager:    manager,
		watcher:    watcher,
		configPath: configPath,
		options:    options,
		logger:     internalLogger,
	}, nil
}

// Start loads and applies the configuration, then begins watching it.
// A stopped watcher cannot be started again.
func (cw *ConfigWatcher) Start() error {
	if cw.stopped.Load() {
		return NewConfigWatcherError("watcher has been stopped", nil)
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(false, true) {
		return NewConfigWatcherError("watcher is already running", nil)
	}

	config, err := LoadConfigFromFile(cw.configPath)
	if err != nil {
		cw.running.Store(false)
		return err
	}
	if err := cw.manager.ApplyConfig(config); err != nil {
		cw.running.Store(false)
		return err
	}

	if err := cw.watcher.Watch(cw.configPath, cw.handleConfigChange); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to watch config file", err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to start file watcher", err)
	}

	cw.logger.Info("Config watcher started",
		"config_path", cw.configPath,
		"poll_interval", cw.options.PollInterval)
	return nil
}

// Stop ends watching. The manager keeps its current modules.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(true, false) {
		return NewConfigWatcherError("watcher is not running", nil)
	}
	cw.stopped.Store(true)

	if err := cw.watcher.Stop(); err != nil {
		return NewConfigWatcherError("failed to stop file watcher", err)
	}
	cw.logger.Info("Config watcher stopped", "reloads", cw.reloads.Load())
	return nil
}

// IsRunning reports whether the watcher is active.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.running.Load()
}

// Reloads returns how many reloads were applied successfully.
func (cw *ConfigWatcher) Reloads() int64 {
	return cw.reloads.Load()
}

// LastReload returns when the last successful reload was applied.
func (cw *ConfigWatcher) LastReload() time.Time {
	nanos := cw.lastReload.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (cw *ConfigWatcher) handleConfigChange(event argus.ChangeEvent) {
	defer withStackRecover(cw.logger)()

	if event.IsDelete {
		cw.logger.Warn("Config file was deleted, keeping current modules", "path", event.Path)
		return
	}

	config, err := LoadConfigFromFile(cw.configPath)
	if err == nil {
		err = cw.manager.ApplyConfig(config)
	}

	result := "success"
	if err != nil {
		result = "failure"
		cw.logger.Error("Config reload failed", "path", cw.configPath, "error", err)
	} else {
		cw.reloads.Add(1)
		cw.lastReload.Store(timecache.CachedTimeNano())
		cw.logger.Info("Config reloaded", "path", cw.configPath, "modules", cw.manager.Len())
	}
	cw.manager.metrics.IncrementCounter(MetricConfigReloadsTotal, map[string]string{"result": result}, 1)

	if cw.options.OnReload != nil {
		cw.options.OnReload(config, err)
	}
}
