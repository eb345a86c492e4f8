// Package modfactory loads modules built as Go plugins at runtime and lets
// the host construct typed objects from them without linking against their
// concrete types. It also provides a fan-out dispatcher that runs one
// operation against many service handles concurrently.
//
// Key Features:
//   - Constructor registry keyed by constructor signature or by explicit name
//   - Checked type assertions: a signature mismatch is reported, never reinterpreted
//   - Directory scanning with per-file failure isolation
//   - Ordered teardown: factories are finalized before their libraries are closed
//   - Optional sha256 allowlist for module files
//   - Concurrent dispatch with per-target results and panic isolation
//   - Argus-powered configuration reloads and Prometheus metrics
//
// Module side (package main, built with go build -buildmode=plugin):
//
//	func GetModuleFactory() *modfactory.Factory {
//		f := modfactory.NewFactory(modfactory.FactoryMetadata{
//			ID:      "echo",
//			Version: "1.0.0",
//		})
//		modfactory.RegisterNamed1(f, "echo", func(prefix string) (Echoer, error) {
//			return &echoer{prefix: prefix}, nil
//		})
//		return f
//	}
//
// The entry point may be called again after a restart, so it must build a
// new Factory on every call.
//
// Host side:
//
//	manager := modfactory.NewManager(logger)
//	if err := manager.Start("./modules"); err != nil {
//		log.Fatal(err)
//	}
//	defer manager.Stop()
//
//	echo, err := modfactory.CreateNamed1[Echoer](manager, "echo", "> ")
//	switch {
//	case modfactory.IsAbsent(err):
//		// no loaded module provides it
//	case err != nil:
//		// the constructor ran and failed
//	}
//
// Dispatch:
//
//	results := modfactory.Execute1(dispatcher, echoers, Echoer.Echo, "ping")
//	for name, result := range results {
//		reply, err := result.Get()
//		...
//	}
//
// Interface types shared between host and modules must live in a package
// both import; the Go runtime rejects plugins built against a different
// version of any shared package.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package modfactory
