// factory.go: module factory owning one constructor registry plus metadata
//
// A Factory is what a loaded module hands to the host. The module fills it
// with constructors through the generic Register helpers; the host creates
// objects from it through the Create helpers, usually via a Manager that
// fans out over every loaded factory.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

// Factory owns one Registry and the metadata describing the module that
// produced it.
//
// Example, inside a module built with -buildmode=plugin:
//
//	func GetModuleFactory() *modfactory.Factory {
//	    f := modfactory.NewFactory(modfactory.FactoryMetadata{ID: "echo", Version: "1.0.0"})
//	    modfactory.Register1(f, func(prefix string) (Echoer, error) {
//	        return &echoer{prefix: prefix}, nil
//	    })
//	    return f
//	}
//
// The zero value is an empty factory with no metadata. A Factory must not be
// copied after first use.
type Factory struct {
	metadata FactoryMetadata
	registry Registry
}

// NewFactory creates an empty factory with immutable metadata.
func NewFactory(metadata FactoryMetadata) *Factory {
	return &Factory{metadata: metadata}
}

// Metadata returns a copy of the factory metadata.
func (f *Factory) Metadata() FactoryMetadata {
	return f.metadata
}

// Register implements Registrar. Registration is refused once the factory
// has been finalized.
func (f *Factory) Register(key ConstructorKey, ctor any) bool {
	return f.registry.Register(key, ctor)
}

// Resolve implements Resolver.
func (f *Factory) Resolve(key ConstructorKey) []any {
	return f.registry.Resolve(key)
}

// Registry exposes the underlying registry. Once the factory is finalized
// the registry is closed and refuses registrations made through it too.
func (f *Factory) Registry() *Registry {
	return &f.registry
}

// Finalize drops every registered constructor. It is safe to call more than
// once and must run before the library that produced the factory is closed.
func (f *Factory) Finalize() {
	f.registry.Close()
}

// IsFinalized reports whether Finalize has been called.
func (f *Factory) IsFinalized() bool {
	return f.registry.IsClosed()
}
