// constructors.go: typed registration and creation helpers over boxed constructors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"reflect"
)

// Constructors are stored boxed as their exact function type, always in the
// form func(A1, ..., An) (T, error). Creation rebuilds the same function type
// from the caller's type arguments and unboxes with a checked type assertion,
// so a signature mismatch is reported instead of being reinterpreted.
//
// Module side:
//
//	modfactory.Register1(factory, func(apiKey string) (Connector, error) {
//	    return newBinanceConnector(apiKey), nil
//	})
//	modfactory.RegisterNamed(factory, "paper", func() (Connector, error) {
//	    return newPaperConnector(), nil
//	})
//
// Host side:
//
//	conn, err := modfactory.Create1[Connector](manager, "my-key")
//	paper, err := modfactory.CreateNamed[Connector](manager, "paper")
//	if modfactory.IsAbsent(err) {
//	    // no loaded module provides it
//	}

// Register stores a zero-argument constructor under its signature key.
func Register[T any](dst Registrar, ctor func() (T, error)) bool {
	return dst.Register(KeyFor[func() (T, error)](), ctor)
}

// Register1 stores a one-argument constructor under its signature key.
func Register1[T, A1 any](dst Registrar, ctor func(A1) (T, error)) bool {
	return dst.Register(KeyFor[func(A1) (T, error)](), ctor)
}

// Register2 stores a two-argument constructor under its signature key.
func Register2[T, A1, A2 any](dst Registrar, ctor func(A1, A2) (T, error)) bool {
	return dst.Register(KeyFor[func(A1, A2) (T, error)](), ctor)
}

// Register3 stores a three-argument constructor under its signature key.
func Register3[T, A1, A2, A3 any](dst Registrar, ctor func(A1, A2, A3) (T, error)) bool {
	return dst.Register(KeyFor[func(A1, A2, A3) (T, error)](), ctor)
}

// RegisterNamed stores a zero-argument constructor under name.
func RegisterNamed[T any](dst Registrar, name string, ctor func() (T, error)) bool {
	return dst.Register(NameKey(name), ctor)
}

// RegisterNamed1 stores a one-argument constructor under name.
func RegisterNamed1[T, A1 any](dst Registrar, name string, ctor func(A1) (T, error)) bool {
	return dst.Register(NameKey(name), ctor)
}

// RegisterNamed2 stores a two-argument constructor under name.
func RegisterNamed2[T, A1, A2 any](dst Registrar, name string, ctor func(A1, A2) (T, error)) bool {
	return dst.Register(NameKey(name), ctor)
}

// RegisterNamed3 stores a three-argument constructor under name.
func RegisterNamed3[T, A1, A2, A3 any](dst Registrar, name string, ctor func(A1, A2, A3) (T, error)) bool {
	return dst.Register(NameKey(name), ctor)
}

// Create builds a T with the zero-argument constructor registered for it.
func Create[T any](src Resolver) (T, error) {
	return create(src, KeyFor[func() (T, error)](), func(f func() (T, error)) (T, error) {
		return f()
	})
}

// Create1 builds a T with the constructor registered for func(A1) (T, error).
func Create1[T, A1 any](src Resolver, a1 A1) (T, error) {
	return create(src, KeyFor[func(A1) (T, error)](), func(f func(A1) (T, error)) (T, error) {
		return f(a1)
	})
}

// Create2 builds a T with the constructor registered for func(A1, A2) (T, error).
func Create2[T, A1, A2 any](src Resolver, a1 A1, a2 A2) (T, error) {
	return create(src, KeyFor[func(A1, A2) (T, error)](), func(f func(A1, A2) (T, error)) (T, error) {
		return f(a1, a2)
	})
}

// Create3 builds a T with the constructor registered for func(A1, A2, A3) (T, error).
func Create3[T, A1, A2, A3 any](src Resolver, a1 A1, a2 A2, a3 A3) (T, error) {
	return create(src, KeyFor[func(A1, A2, A3) (T, error)](), func(f func(A1, A2, A3) (T, error)) (T, error) {
		return f(a1, a2, a3)
	})
}

// CreateNamed builds a T with the zero-argument constructor registered under name.
func CreateNamed[T any](src Resolver, name string) (T, error) {
	return create(src, NameKey(name), func(f func() (T, error)) (T, error) {
		return f()
	})
}

// CreateNamed1 builds a T with the one-argument constructor registered under name.
func CreateNamed1[T, A1 any](src Resolver, name string, a1 A1) (T, error) {
	return create(src, NameKey(name), func(f func(A1) (T, error)) (T, error) {
		return f(a1)
	})
}

// CreateNamed2 builds a T with the two-argument constructor registered under name.
func CreateNamed2[T, A1, A2 any](src Resolver, name string, a1 A1, a2 A2) (T, error) {
	return create(src, NameKey(name), func(f func(A1, A2) (T, error)) (T, error) {
		return f(a1, a2)
	})
}

// CreateNamed3 builds a T with the three-argument constructor registered under name.
func CreateNamed3[T, A1, A2, A3 any](src Resolver, name string, a1 A1, a2 A2, a3 A3) (T, error) {
	return create(src, NameKey(name), func(f func(A1, A2, A3) (T, error)) (T, error) {
		return f(a1, a2, a3)
	})
}

// create tries every candidate for key in order and invokes the first one
// whose boxed type is exactly F.
func create[F, T any](src Resolver, key ConstructorKey, call func(F) (T, error)) (T, error) {
	var zero T
	if src == nil {
		return zero, NewConstructorNotFoundError(key)
	}

	candidates := src.Resolve(key)
	if len(candidates) == 0 {
		return zero, NewConstructorNotFoundError(key)
	}

	for _, candidate := range candidates {
		if ctor, ok := candidate.(F); ok {
			return invoke(key, ctor, call)
		}
	}

	return zero, NewTypeMismatchError(key, reflect.TypeFor[F]().String(), fmt.Sprintf("%T", candidates[0]))
}

// invoke runs one constructor, converting both returned errors and panics
// into construction failures.
func invoke[F, T any](key ConstructorKey, ctor F, call func(F) (T, error)) (result T, err error) {
	defer recoverInto(&err, func(recovered any, stack []byte) error {
		return NewConstructionFailedError(key, &panicError{value: recovered, stack: stack})
	})

	result, err = call(ctor)
	if err != nil {
		var zero T
		return zero, NewConstructionFailedError(key, err)
	}
	return result, nil
}
