// manager.go: module manager owning every loaded library and factory
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Manager scans a directory for modules and owns their combined lifetime.
//
// A Manager is itself a Resolver: the Create helpers called on it try every
// owned factory in load order and use the first one holding a constructor
// with the requested signature.
//
// Example usage:
//
//	manager := modfactory.NewManager(logger, modfactory.WithConfig(cfg))
//	if err := manager.Start("./modules"); err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Stop()
//
//	conn, err := modfactory.CreateNamed1[Connector](manager, "binance", apiKey)
//	if modfactory.IsAbsent(err) {
//	    // no loaded module provides a "binance" connector
//	}
//
// Start and Stop must not run concurrently with Create calls on the same
// manager. Objects built by a module must not be used after Stop.
type Manager struct {
	mu        sync.RWMutex
	config    ManagerConfig
	opener    Opener
	loader    *ModuleLoader
	logger    Logger
	metrics   MetricsCollector
	stats     ManagerStats
	modules   []*LoadedModule
	retained  []retainedLibrary
	state     ManagerState
	searchDir string
}

// ManagerStats tracks operational counters over the manager's lifetime.
type ManagerStats struct {
	Scans         atomic.Int64
	ModulesLoaded atomic.Int64
	LoadFailures  atomic.Int64
	LastScanNanos atomic.Int64
}

// retainedLibrary is a library kept open without a usable entry point.
type retainedLibrary struct {
	path    string
	library Library
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithConfig sets the manager configuration. Defaults are applied to it.
func WithConfig(config ManagerConfig) ManagerOption {
	return func(m *Manager) {
		config.ApplyDefaults()
		m.config = config
	}
}

// WithOpener replaces the default Go plugin opener.
func WithOpener(opener Opener) ManagerOption {
	return func(m *Manager) {
		if opener != nil {
			m.opener = opener
		}
	}
}

// WithMetrics sets the collector receiving scan and load metrics.
func WithMetrics(collector MetricsCollector) ManagerOption {
	return func(m *Manager) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

// NewManager creates an uninitialized manager. The logger accepts anything
// NewLogger does.
func NewManager(logger any, opts ...ManagerOption) *Manager {
	m := &Manager{
		config:  DefaultManagerConfig(),
		opener:  GoPluginOpener{},
		logger:  NewLogger(logger),
		metrics: NewNoOpMetricsCollector(),
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loader = NewModuleLoader(m.opener, m.config.LoaderConfig(), m.logger)
	return m
}

// Start clears every owned module, then loads each module candidate found
// directly inside searchPath.
//
// A file path means its parent directory. An empty path falls back to the
// configured SearchPath, then to the directory of the running executable.
// Files that fail to load are logged and skipped; with FailOnLoadError their
// errors are joined and returned after the scan, while modules that did load
// stay loaded. A missing directory leaves the manager active and empty.
func (m *Manager) Start(searchPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(searchPath)
}

// Restart rescans the directory used by the last Start.
func (m *Manager) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(m.searchDir)
}

// ApplyConfig validates config, installs it and rescans. An empty
// SearchPath in config keeps the current directory.
func (m *Manager) ApplyConfig(config ManagerConfig) error {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = config
	m.loader = NewModuleLoader(m.opener, config.LoaderConfig(), m.logger)

	dir := config.SearchPath
	if dir == "" {
		dir = m.searchDir
	}
	return m.startLocked(dir)
}

func (m *Manager) startLocked(searchPath string) error {
	began := time.Now()
	if err := m.stopLocked(); err != nil {
		m.logger.Warn("Errors while releasing previous modules", "error", err)
	}

	dir, err := m.resolveSearchDir(searchPath)
	if err != nil {
		m.logger.Error("Cannot resolve module search directory", "path", searchPath, "error", err)
		return NewScanFailedError(searchPath, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) && !m.config.FailOnLoadError {
			m.logger.Warn("Module search directory does not exist", "dir", dir)
			m.searchDir = dir
			m.state = StateActive
			m.recordScan(began)
			return nil
		}
		m.logger.Error("Cannot read module search directory", "dir", dir, "error", err)
		return NewScanFailedError(dir, err)
	}

	m.searchDir = dir
	m.state = StateActive

	var loadErrs []error
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !m.loader.IsCandidate(path) {
			continue
		}

		module, retained, err := m.loader.Load(path)
		if err != nil {
			if retained != nil {
				m.retained = append(m.retained, retainedLibrary{path: path, library: retained})
			}
			m.recordLoadFailure(path, err)
			loadErrs = append(loadErrs, err)
			continue
		}

		m.modules = append(m.modules, module)
		m.stats.ModulesLoaded.Add(1)
		meta := module.Factory.Metadata()
		m.logger.Info("Module loaded",
			"path", path,
			"factory_id", meta.ID,
			"version", meta.Version,
			"constructors", module.Factory.Registry().Len())
	}

	m.recordScan(began)
	m.logger.Info("Module scan completed",
		"dir", dir,
		"modules", len(m.modules),
		"failures", len(loadErrs),
		"retained", len(m.retained))

	if m.config.FailOnLoadError && len(loadErrs) > 0 {
		return NewScanFailedError(dir, stderrors.Join(loadErrs...))
	}
	return nil
}

// Stop finalizes every owned factory in load order and only then closes the
// libraries they came from. Retained unrecognized libraries are closed last.
// The returned error joins any library close failures.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

func (m *Manager) stopLocked() error {
	if m.state == StateUninitialized && len(m.modules) == 0 && len(m.retained) == 0 {
		return nil
	}

	for _, module := range m.modules {
		module.Factory.Finalize()
	}

	var errs []error
	for _, module := range m.modules {
		if err := module.Library.Close(); err != nil {
			m.logger.Warn("Failed to close module library", "path", module.Path, "error", err)
			errs = append(errs, err)
		}
	}
	for _, r := range m.retained {
		if err := r.library.Close(); err != nil {
			m.logger.Warn("Failed to close retained library", "path", r.path, "error", err)
			errs = append(errs, err)
		}
	}

	released := len(m.modules)
	m.modules = nil
	m.retained = nil
	m.state = StateUninitialized
	m.metrics.SetGauge(MetricModulesLoaded, nil, 0)
	m.metrics.SetGauge(MetricRetainedLibraries, nil, 0)
	m.logger.Debug("Modules released", "count", released)

	return stderrors.Join(errs...)
}

// Resolve implements Resolver across every owned factory, in load order.
func (m *Manager) Resolve(key ConstructorKey) []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []any
	for _, module := range m.modules {
		candidates = append(candidates, module.Factory.Resolve(key)...)
	}
	return candidates
}

// Modules returns a snapshot of every owned module in load order.
func (m *Manager) Modules() []ModuleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ModuleInfo, 0, len(m.modules))
	for _, module := range m.modules {
		infos = append(infos, module.Info())
	}
	return infos
}

// FactoriesInfo returns the metadata of every owned factory in load order.
func (m *Manager) FactoriesInfo() []FactoryMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]FactoryMetadata, 0, len(m.modules))
	for _, module := range m.modules {
		infos = append(infos, module.Factory.Metadata())
	}
	return infos
}

// Len returns the number of owned modules.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.modules)
}

// State returns the lifecycle state.
func (m *Manager) State() ManagerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SearchDir returns the directory used by the last Start.
func (m *Manager) SearchDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchDir
}

// Config returns a copy of the active configuration.
func (m *Manager) Config() ManagerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Stats returns the manager's lifetime counters.
func (m *Manager) Stats() *ManagerStats {
	return &m.stats
}

func (m *Manager) resolveSearchDir(searchPath string) (string, error) {
	path := searchPath
	if path == "" {
		path = m.config.SearchPath
	}
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", err
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe), nil
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path), nil
	}
	return path, nil
}

func (m *Manager) recordScan(began time.Time) {
	elapsed := time.Since(began)
	m.stats.Scans.Add(1)
	m.stats.LastScanNanos.Store(elapsed.Nanoseconds())
	m.metrics.IncrementCounter(MetricScansTotal, nil, 1)
	m.metrics.RecordHistogram(MetricScanDuration, nil, elapsed.Seconds())
	m.metrics.SetGauge(MetricModulesLoaded, nil, float64(len(m.modules)))
	m.metrics.SetGauge(MetricRetainedLibraries, nil, float64(len(m.retained)))
}

func (m *Manager) recordLoadFailure(path string, err error) {
	reason := "load_failed"
	switch {
	case HasErrorCode(err, ErrCodeSymbolMissing):
		reason = "symbol_missing"
	case HasErrorCode(err, ErrCodeDigestMismatch):
		reason = "digest_mismatch"
	}

	m.stats.LoadFailures.Add(1)
	m.metrics.IncrementCounter(MetricLoadFailuresTotal, map[string]string{"reason": reason}, 1)
	m.logger.Warn("Skipping module candidate", "path", path, "reason", reason, "error", err)
}
