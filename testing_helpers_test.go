// testing_helpers_test.go: shared test helpers and in-memory module fakes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// TestEnvironment provides temp directories with automatic cleanup
type TestEnvironment struct {
	t        *testing.T
	tempDirs []string
	cleanup  []func()
	mu       sync.Mutex
}

// NewTestEnvironment creates a new test environment with automatic cleanup
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	env := &TestEnvironment{t: t}
	t.Cleanup(env.Cleanup)
	return env
}

// CreateTempDir creates a temporary directory for testing
func (te *TestEnvironment) CreateTempDir(pattern string) string {
	te.mu.Lock()
	defer te.mu.Unlock()

	tempDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		te.t.Fatalf("Failed to create temp dir: %v", err)
	}
	te.tempDirs = append(te.tempDirs, tempDir)
	return tempDir
}

// WriteFile creates dir/name with content and returns its path
func (te *TestEnvironment) WriteFile(dir, name, content string) string {
	te.t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		te.t.Fatalf("Failed to create file %s: %v", path, err)
	}
	return path
}

// AddCleanupFunc adds a custom cleanup function
func (te *TestEnvironment) AddCleanupFunc(fn func()) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.cleanup = append(te.cleanup, fn)
}

// Cleanup cleans up all resources created during testing
func (te *TestEnvironment) Cleanup() {
	te.mu.Lock()
	defer te.mu.Unlock()

	for _, fn := range te.cleanup {
		fn()
	}
	for _, tempDir := range te.tempDirs {
		if err := os.RemoveAll(tempDir); err != nil {
			te.t.Logf("Warning: failed to remove temp dir %s: %v", tempDir, err)
		}
	}
}

// TestAssertions provides enhanced test assertion helpers
type TestAssertions struct {
	t *testing.T
}

// NewTestAssertions creates new test assertion helper
func NewTestAssertions(t *testing.T) *TestAssertions {
	return &TestAssertions{t: t}
}

// AssertNoError asserts that error is nil, with context
func (ta *TestAssertions) AssertNoError(err error, context string) {
	ta.t.Helper()
	if err != nil {
		ta.t.Fatalf("Expected no error in %s, got: %v", context, err)
	}
}

// AssertError asserts that error is not nil, with context
func (ta *TestAssertions) AssertError(err error, context string) {
	ta.t.Helper()
	if err == nil {
		ta.t.Fatalf("Expected error in %s, got nil", context)
	}
}

// AssertEqual asserts that two values are equal
func (ta *TestAssertions) AssertEqual(expected, actual any, context string) {
	ta.t.Helper()
	if expected != actual {
		ta.t.Fatalf("Expected %v in %s, got %v", expected, context, actual)
	}
}

// AssertTrue asserts that condition is true
func (ta *TestAssertions) AssertTrue(condition bool, context string) {
	ta.t.Helper()
	if !condition {
		ta.t.Fatalf("Expected true condition in %s", context)
	}
}

// AssertFalse asserts that condition is false
func (ta *TestAssertions) AssertFalse(condition bool, context string) {
	ta.t.Helper()
	if condition {
		ta.t.Fatalf("Expected false condition in %s", context)
	}
}

// WaitForCondition waits for a condition to be true with timeout
func (ta *TestAssertions) WaitForCondition(condition func() bool, timeout time.Duration, message string) {
	ta.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	ta.t.Fatalf("Condition not met within %v: %s", timeout, message)
}

// moduleFixture describes how a fake module file behaves when opened.
type moduleFixture struct {
	openErr  error
	symbol   any
	closeErr error
}

// fakeLibrary is an in-memory Library.
type fakeLibrary struct {
	path    string
	fixture moduleFixture
	opener  *fakeOpener
}

func (l *fakeLibrary) Lookup(symbol string) (any, error) {
	if symbol != EntryPointSymbol || l.fixture.symbol == nil {
		return nil, fmt.Errorf("plugin: symbol %s not found in plugin %s", symbol, l.path)
	}
	return l.fixture.symbol, nil
}

func (l *fakeLibrary) Close() error {
	l.opener.recordClose(l.path)
	return l.fixture.closeErr
}

// fakeOpener serves fixtures by file base name and records what happens.
type fakeOpener struct {
	mu        sync.Mutex
	fixtures  map[string]moduleFixture
	opened    []string
	closed    []string
	factories []*Factory
	// closedBeforeFinalize counts Close calls seen while some factory
	// produced by this opener was still live.
	closedBeforeFinalize int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{fixtures: make(map[string]moduleFixture)}
}

func (o *fakeOpener) add(name string, fixture moduleFixture) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fixtures[name] = fixture
}

// addModule registers a well-formed module whose entry point builds a fresh
// factory and lets register fill it.
func (o *fakeOpener) addModule(name string, meta FactoryMetadata, register func(f *Factory)) {
	o.add(name, moduleFixture{symbol: func() *Factory {
		f := NewFactory(meta)
		if register != nil {
			register(f)
		}
		o.mu.Lock()
		o.factories = append(o.factories, f)
		o.mu.Unlock()
		return f
	}})
}

func (o *fakeOpener) Open(path string) (Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	fixture, ok := o.fixtures[filepath.Base(path)]
	if !ok {
		return nil, errors.New("plugin.Open: not a Go plugin: " + path)
	}
	if fixture.openErr != nil {
		return nil, fixture.openErr
	}
	o.opened = append(o.opened, filepath.Base(path))
	return &fakeLibrary{path: path, fixture: fixture, opener: o}, nil
}

func (o *fakeOpener) recordClose(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = append(o.closed, filepath.Base(path))
	for _, f := range o.factories {
		if !f.IsFinalized() {
			o.closedBeforeFinalize++
			return
		}
	}
}

func (o *fakeOpener) openedFiles() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

func (o *fakeOpener) closedFiles() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.closed...)
}

// moduleName returns a file name carrying the platform library suffix.
func moduleName(base string) string {
	return base + LibraryExtension
}

// Greeter is the capability contract used by manager tests.
type Greeter interface {
	Greet(name string) (string, error)
}

type prefixGreeter struct {
	prefix string
}

func (g *prefixGreeter) Greet(name string) (string, error) {
	return g.prefix + name, nil
}
