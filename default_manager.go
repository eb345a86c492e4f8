// default_manager.go: explicitly managed process-wide manager handle
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"sync"
)

var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

// InitDefault creates the shared manager. It fails if one already exists;
// call ShutdownDefault first to replace it. The returned manager has not
// been started.
//
//	manager, err := modfactory.InitDefault(logger, modfactory.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer modfactory.ShutdownDefault()
//	if err := manager.Start(""); err != nil {
//	    return err
//	}
func InitDefault(logger any, opts ...ManagerOption) (*Manager, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager != nil {
		return nil, NewDefaultAlreadyInitializedError()
	}
	defaultManager = NewManager(logger, opts...)
	return defaultManager, nil
}

// Default returns the shared manager created by InitDefault.
func Default() (*Manager, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager == nil {
		return nil, NewDefaultNotInitializedError()
	}
	return defaultManager, nil
}

// ShutdownDefault stops and forgets the shared manager. Calling it when no
// shared manager exists is a no-op.
func ShutdownDefault() error {
	defaultMu.Lock()
	manager := defaultManager
	defaultManager = nil
	defaultMu.Unlock()

	if manager == nil {
		return nil
	}
	return manager.Stop()
}
