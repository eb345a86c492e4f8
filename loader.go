// loader.go: turns one file on disk into a loaded module
//
// The loader decides whether a path is a module candidate, maps it into the
// process, resolves the well-known entry point and calls it exactly once to
// obtain the module's Factory. Every failure is scoped to the one file so
// the caller can move on to the next candidate.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agilira/go-timecache"
)

// EntryPointSymbol is the name every module exports. It must be a function
// of type func() *Factory.
const EntryPointSymbol = "GetModuleFactory"

// LoaderConfig controls which files are considered and how they are vetted.
type LoaderConfig struct {
	// Extensions lists accepted file suffixes, compared case-insensitively.
	// Empty means LibraryExtension.
	Extensions []string

	// KeepUnrecognized keeps libraries without a usable entry point mapped
	// and hands them back to the caller, who closes them at teardown.
	KeepUnrecognized bool

	// AllowedDigests restricts loading to files with a known sha256.
	AllowedDigests DigestAllowlist
}

// LoadedModule pairs a live library with the one Factory it exported.
// The library must stay open until the factory has been finalized.
type LoadedModule struct {
	Path     string
	Digest   string
	LoadedAt time.Time
	Library  Library
	Factory  *Factory
}

// Info returns an inspection snapshot of the module.
func (m *LoadedModule) Info() ModuleInfo {
	keys := m.Factory.Registry().Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.String())
	}
	return ModuleInfo{
		Path:         m.Path,
		Digest:       m.Digest,
		LoadedAt:     m.LoadedAt,
		Factory:      m.Factory.Metadata(),
		Constructors: names,
	}
}

// ModuleLoader loads single module files.
type ModuleLoader struct {
	opener     Opener
	config     LoaderConfig
	extensions []string
	logger     Logger
}

// NewModuleLoader creates a loader. A nil opener means GoPluginOpener.
func NewModuleLoader(opener Opener, config LoaderConfig, logger any) *ModuleLoader {
	if opener == nil {
		opener = GoPluginOpener{}
	}

	extensions := config.Extensions
	if len(extensions) == 0 {
		extensions = []string{LibraryExtension}
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	return &ModuleLoader{
		opener:     opener,
		config:     config,
		extensions: normalized,
		logger:     NewLogger(logger),
	}
}

// IsCandidate reports whether path is a regular file (symlinks followed)
// carrying one of the accepted extensions.
func (l *ModuleLoader) IsCandidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	matched := false
	for _, accepted := range l.extensions {
		if ext == accepted {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Load maps path into the process and extracts its factory.
//
// On success the returned module owns the library. When the entry point is
// missing and KeepUnrecognized is set, the still-open library is returned
// alongside the error so the caller can release it later; otherwise it is
// closed here and the returned Library is nil.
func (l *ModuleLoader) Load(path string) (*LoadedModule, Library, error) {
	digest, err := FileDigest(path)
	if err != nil {
		return nil, nil, NewLoadFailedError(path, err)
	}
	if err := l.config.AllowedDigests.Verify(path, digest); err != nil {
		return nil, nil, err
	}

	lib, err := l.opener.Open(path)
	if err != nil {
		return nil, nil, NewLoadFailedError(path, err)
	}

	entry, err := l.entryPoint(path, lib)
	if err != nil {
		if l.config.KeepUnrecognized {
			return nil, lib, err
		}
		l.closeLibrary(path, lib)
		return nil, nil, err
	}

	factory, err := callEntryPoint(path, entry)
	if err != nil {
		l.closeLibrary(path, lib)
		return nil, nil, err
	}

	return &LoadedModule{
		Path:     path,
		Digest:   digest,
		LoadedAt: timecache.CachedTime(),
		Library:  lib,
		Factory:  factory,
	}, nil, nil
}

func (l *ModuleLoader) entryPoint(path string, lib Library) (func() *Factory, error) {
	sym, err := lib.Lookup(EntryPointSymbol)
	if err != nil {
		return nil, NewSymbolMissingError(path, EntryPointSymbol, err.Error())
	}

	switch fn := sym.(type) {
	case func() *Factory:
		if fn != nil {
			return fn, nil
		}
	case *func() *Factory:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, NewSymbolMissingError(path, EntryPointSymbol, fmt.Sprintf("unexpected symbol type %T", sym))
}

// callEntryPoint invokes the module entry point exactly once.
func callEntryPoint(path string, entry func() *Factory) (factory *Factory, err error) {
	defer recoverInto(&err, func(recovered any, stack []byte) error {
		return NewLoadFailedError(path, &panicError{value: recovered, stack: stack})
	})

	factory = entry()
	if factory == nil {
		return nil, NewLoadFailedError(path, fmt.Errorf("%s returned a nil factory", EntryPointSymbol))
	}
	return factory, nil
}

func (l *ModuleLoader) closeLibrary(path string, lib Library) {
	if err := lib.Close(); err != nil {
		l.logger.Warn("Failed to close module library", "path", path, "error", err)
	}
}
