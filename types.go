// types.go: Common data types shared by factories, loader and manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"time"
)

// FactoryMetadata describes the factory exported by one module.
//
// It is set once when the factory is created and never changes afterwards.
//
// Example:
//
//	factory := modfactory.NewFactory(modfactory.FactoryMetadata{
//	    ID:          "binance-futures",
//	    Description: "Binance Futures exchange connector",
//	    Version:     "1.4.0",
//	})
type FactoryMetadata struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ModuleInfo is a read-only snapshot of one loaded module, used for
// inspection and status reporting.
type ModuleInfo struct {
	Path         string          `json:"path"`
	Digest       string          `json:"digest,omitempty"`
	LoadedAt     time.Time       `json:"loaded_at"`
	Factory      FactoryMetadata `json:"factory"`
	Constructors []string        `json:"constructors,omitempty"`
}

// ManagerState is the lifecycle state of a Manager.
type ManagerState int

const (
	// StateUninitialized means no scan has run, or the manager was stopped.
	StateUninitialized ManagerState = iota
	// StateActive means a scan completed and the owned modules are usable.
	StateActive
)

// String returns a human-readable representation of the manager state.
func (s ManagerState) String() string {
	switch s {
	case StateActive:
		return "active"
	default:
		return "uninitialized"
	}
}
