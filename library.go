// library.go: dynamic library handles and the default Go plugin opener
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"plugin"
)

// Library is one dynamic library image mapped into the process.
type Library interface {
	// Lookup resolves an exported symbol. Functions come back as func values,
	// variables as pointers to them.
	Lookup(symbol string) (any, error)
	// Close releases the image. It is called only after every factory taken
	// from the library has been finalized.
	Close() error
}

// Opener maps a file into the process as a Library.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts an ordinary function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// GoPluginOpener opens modules built with go build -buildmode=plugin.
//
// Modules must be compiled with the same toolchain and the same version of
// this package as the host, otherwise plugin.Open fails and the file is
// reported as a load failure.
type GoPluginOpener struct{}

// Open implements Opener.
func (GoPluginOpener) Open(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &goPluginLibrary{path: path, plugin: p}, nil
}

type goPluginLibrary struct {
	path   string
	plugin *plugin.Plugin
}

func (l *goPluginLibrary) Lookup(symbol string) (any, error) {
	return l.plugin.Lookup(symbol)
}

// Close is a no-op: the Go runtime never unmaps a plugin once opened.
func (l *goPluginLibrary) Close() error {
	return nil
}
