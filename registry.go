// registry.go: thread-safe constructor registry keyed by signature or name
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"reflect"
	"sort"
	"sync"
)

// ConstructorKey names one registration slot in a Registry.
//
// A key is either type-keyed, derived from the full constructor function type
// (which carries both the result type and the argument list), or name-keyed,
// carrying an explicit string chosen by the module author. The two keyspaces
// never collide.
type ConstructorKey struct {
	name      string
	signature reflect.Type
}

// TypeKey returns the type-keyed slot for a constructor with the given function type.
func TypeKey(signature reflect.Type) ConstructorKey {
	return ConstructorKey{signature: signature}
}

// KeyFor returns the type-keyed slot for constructor function type F,
// e.g. KeyFor[func(string) (Connector, error)]().
func KeyFor[F any]() ConstructorKey {
	return TypeKey(reflect.TypeFor[F]())
}

// NameKey returns the name-keyed slot for name.
func NameKey(name string) ConstructorKey {
	return ConstructorKey{name: name}
}

// IsNamed reports whether the key is name-keyed.
func (k ConstructorKey) IsNamed() bool {
	return k.signature == nil
}

// IsZero reports whether the key names nothing.
func (k ConstructorKey) IsZero() bool {
	return k.name == "" && k.signature == nil
}

// String returns the name for name-keyed slots and the signature otherwise.
func (k ConstructorKey) String() string {
	if k.signature != nil {
		return k.signature.String()
	}
	return k.name
}

// Registrar accepts boxed constructors. Registry and Factory implement it.
type Registrar interface {
	Register(key ConstructorKey, ctor any) bool
}

// Resolver returns the boxed constructors registered under a key, in the
// order they should be tried. Registry, Factory and Manager implement it.
type Resolver interface {
	Resolve(key ConstructorKey) []any
}

// Registry maps constructor keys to boxed constructor functions.
//
// The first registration under a key wins; later attempts are ignored. The
// lock only guards the map and is never held while a constructor runs, so a
// constructor may itself register into or create from the same registry.
type Registry struct {
	mu      sync.Mutex
	entries map[ConstructorKey]any
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ConstructorKey]any)}
}

// Register stores ctor under key if the key is free. It returns false for a
// duplicate key, a zero key, a nil constructor or a closed registry.
func (r *Registry) Register(key ConstructorKey, ctor any) bool {
	if key.IsZero() || ctor == nil {
		return false
	}
	if v := reflect.ValueOf(ctor); v.Kind() == reflect.Func && v.IsNil() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	if r.entries == nil {
		r.entries = make(map[ConstructorKey]any)
	}
	if _, exists := r.entries[key]; exists {
		return false
	}
	r.entries[key] = ctor
	return true
}

// Resolve returns the constructor stored under key, if any.
func (r *Registry) Resolve(key ConstructorKey) []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctor, ok := r.entries[key]
	if !ok {
		return nil
	}
	return []any{ctor}
}

// Len returns the number of registered constructors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns every registered key, ordered by their string form.
func (r *Registry) Keys() []ConstructorKey {
	r.mu.Lock()
	keys := make([]ConstructorKey, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Clear drops every registered constructor.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// Close drops every registered constructor and refuses later registrations.
// It is safe to call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	clear(r.entries)
}

// IsClosed reports whether Close has been called.
func (r *Registry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
