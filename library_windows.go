//go:build windows

// library_windows.go: dynamic library naming on Windows
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

// LibraryExtension is the file suffix of loadable modules on this platform.
const LibraryExtension = ".dll"
