//go:build !windows

// library_unix.go: dynamic library naming on unix-like systems
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

// LibraryExtension is the file suffix of loadable modules on this platform.
const LibraryExtension = ".so"
