// config_watcher_test.go: tests for configuration driven manager reloads
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWatcher_Validation(t *testing.T) {
	_, err := NewConfigWatcher(nil, "modhost.yaml", WatchOptions{}, nil)
	assert.True(t, HasErrorCode(err, ErrCodeConfigWatcherError))

	_, err = NewConfigWatcher(NewManager(nil), "", WatchOptions{}, nil)
	assert.True(t, HasErrorCode(err, ErrCodeConfigWatcherError))

	cw, err := NewConfigWatcher(NewManager(nil), "modhost.yaml", WatchOptions{PollInterval: time.Second, CacheTTL: 5 * time.Second}, nil)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cw.options.CacheTTL, "cache TTL is capped by the poll interval")
	assert.False(t, cw.IsRunning())
	assert.True(t, cw.LastReload().IsZero())
}

func TestConfigWatcher_StartFailsOnBadConfig(t *testing.T) {
	env := NewTestEnvironment(t)
	dir := env.CreateTempDir("modfactory-watch")

	cw, err := NewConfigWatcher(NewManager(nil), dir+"/missing.yaml", WatchOptions{PollInterval: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	err = cw.Start()
	assert.True(t, HasErrorCode(err, ErrCodeConfigNotFound))
	assert.False(t, cw.IsRunning())
}

func TestConfigWatcher_ReloadRescansModules(t *testing.T) {
	md := newModuleDir(t)
	md.module("first", FactoryMetadata{ID: "first"}, nil)

	configPath := md.env.WriteFile(md.env.CreateTempDir("modfactory-watch"), "modhost.yaml",
		fmt.Sprintf("search_path: %q\n", md.dir))

	metrics := NewInMemoryMetricsCollector()
	logger := NewTestLogger()
	manager := NewManager(logger, WithOpener(md.opener), WithMetrics(metrics))
	t.Cleanup(func() { _ = manager.Stop() })

	var reloaded atomic.Int32
	cw, err := NewConfigWatcher(manager, configPath, WatchOptions{
		PollInterval: 50 * time.Millisecond,
		CacheTTL:     10 * time.Millisecond,
		OnReload: func(config ManagerConfig, err error) {
			if err == nil {
				reloaded.Add(1)
			}
		},
	}, logger)
	require.NoError(t, err)

	require.NoError(t, cw.Start())
	assert.True(t, cw.IsRunning())
	assert.Equal(t, StateActive, manager.State())
	assert.Equal(t, md.dir, manager.SearchDir())
	assert.Equal(t, 1, manager.Len())

	assert.True(t, HasErrorCode(cw.Start(), ErrCodeConfigWatcherError), "second start is refused")

	md.module("second", FactoryMetadata{ID: "second"}, nil)
	// Size and mtime both change so the poller cannot miss the edit.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(configPath,
		[]byte(fmt.Sprintf("search_path: %q\ndispatch_limit: 4\n", md.dir)), 0o600))

	ta := NewTestAssertions(t)
	ta.WaitForCondition(func() bool { return reloaded.Load() >= 1 }, 5*time.Second, "config reload")

	assert.Equal(t, 2, manager.Len())
	assert.Equal(t, 4, manager.Config().DispatchLimit)
	assert.GreaterOrEqual(t, cw.Reloads(), int64(1))
	assert.False(t, cw.LastReload().IsZero())
	assert.GreaterOrEqual(t, metrics.Counter(MetricConfigReloadsTotal, map[string]string{"result": "success"}), int64(1))
	assert.True(t, logger.HasMessage("INFO", "Config reloaded"))

	require.NoError(t, cw.Stop())
	assert.False(t, cw.IsRunning())
	assert.Equal(t, 2, manager.Len(), "stopping the watcher keeps modules loaded")

	assert.True(t, HasErrorCode(cw.Stop(), ErrCodeConfigWatcherError))
	assert.True(t, HasErrorCode(cw.Start(), ErrCodeConfigWatcherError), "a stopped watcher cannot restart")
}

func TestConfigWatcher_InvalidReloadKeepsModules(t *testing.T) {
	md := newModuleDir(t)
	md.module("kept", FactoryMetadata{ID: "kept"}, nil)

	configPath := md.env.WriteFile(md.env.CreateTempDir("modfactory-watch"), "modhost.yaml",
		fmt.Sprintf("search_path: %q\n", md.dir))

	manager := NewManager(nil, WithOpener(md.opener))
	t.Cleanup(func() { _ = manager.Stop() })

	var failures atomic.Int32
	cw, err := NewConfigWatcher(manager, configPath, WatchOptions{
		PollInterval: 50 * time.Millisecond,
		OnReload: func(_ ManagerConfig, err error) {
			if err != nil {
				failures.Add(1)
			}
		},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, cw.Start())
	t.Cleanup(func() { _ = cw.Stop() })

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(configPath, []byte("dispatch_limit: -10\nkeep_unrecognized: true\n"), 0o600))

	ta := NewTestAssertions(t)
	ta.WaitForCondition(func() bool { return failures.Load() >= 1 }, 5*time.Second, "failed reload")

	assert.Equal(t, 1, manager.Len())
	assert.Equal(t, int64(0), cw.Reloads())
}
