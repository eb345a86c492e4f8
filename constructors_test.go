// constructors_test.go: tests for typed registration and creation helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpoint struct {
	host  string
	port  int
	https bool
}

func TestCreate_AllArities(t *testing.T) {
	registry := NewRegistry()

	require.True(t, Register(registry, func() (*endpoint, error) {
		return &endpoint{host: "localhost"}, nil
	}))
	require.True(t, Register1(registry, func(host string) (*endpoint, error) {
		return &endpoint{host: host}, nil
	}))
	require.True(t, Register2(registry, func(host string, port int) (*endpoint, error) {
		return &endpoint{host: host, port: port}, nil
	}))
	require.True(t, Register3(registry, func(host string, port int, https bool) (*endpoint, error) {
		return &endpoint{host: host, port: port, https: https}, nil
	}))

	e0, err := Create[*endpoint](registry)
	require.NoError(t, err)
	assert.Equal(t, &endpoint{host: "localhost"}, e0)

	e1, err := Create1[*endpoint](registry, "api.local")
	require.NoError(t, err)
	assert.Equal(t, &endpoint{host: "api.local"}, e1)

	e2, err := Create2[*endpoint](registry, "api.local", 8080)
	require.NoError(t, err)
	assert.Equal(t, &endpoint{host: "api.local", port: 8080}, e2)

	e3, err := Create3[*endpoint](registry, "api.local", 443, true)
	require.NoError(t, err)
	assert.Equal(t, &endpoint{host: "api.local", port: 443, https: true}, e3)

	assert.Equal(t, 4, registry.Len(), "each signature has its own slot")
}

func TestCreateNamed_AllArities(t *testing.T) {
	registry := NewRegistry()

	RegisterNamed(registry, "plain", func() (string, error) { return "plain", nil })
	RegisterNamed1(registry, "one", func(a string) (string, error) { return a, nil })
	RegisterNamed2(registry, "two", func(a, b string) (string, error) { return a + b, nil })
	RegisterNamed3(registry, "three", func(a, b string, n int) (string, error) {
		return strings.Repeat(a+b, n), nil
	})

	v, err := CreateNamed[string](registry, "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", v)

	v, err = CreateNamed1[string](registry, "one", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = CreateNamed2[string](registry, "two", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "xy", v)

	v, err = CreateNamed3[string](registry, "three", "x", "y", 2)
	require.NoError(t, err)
	assert.Equal(t, "xyxy", v)
}

func TestCreate_MatchesDirectInvocation(t *testing.T) {
	registry := NewRegistry()
	ctor := func(name string) (Greeter, error) {
		return &prefixGreeter{prefix: "hello " + name + ", "}, nil
	}
	Register1(registry, ctor)

	direct, err := ctor("bob")
	require.NoError(t, err)
	created, err := Create1[Greeter](registry, "bob")
	require.NoError(t, err)

	want, _ := direct.Greet("alice")
	got, _ := created.Greet("alice")
	assert.Equal(t, want, got)
}

func TestCreate_NotFound(t *testing.T) {
	assertions := NewTestAssertions(t)
	registry := NewRegistry()

	value, err := Create1[Greeter](registry, "x")
	assertions.AssertError(err, "create on empty registry")
	assertions.AssertTrue(value == nil, "zero value on absence")
	assertions.AssertTrue(IsAbsent(err), "not found is an absence")
	assertions.AssertTrue(HasErrorCode(err, ErrCodeConstructorNotFound), "not found code")

	_, err = CreateNamed[int](registry, "missing")
	assertions.AssertTrue(HasErrorCode(err, ErrCodeConstructorNotFound), "named not found code")

	_, err = Create[int](nil)
	assertions.AssertTrue(HasErrorCode(err, ErrCodeConstructorNotFound), "nil resolver")
}

func TestCreate_TypeMismatch(t *testing.T) {
	registry := NewRegistry()
	RegisterNamed1(registry, "port", func(s string) (int, error) { return len(s), nil })

	_, err := CreateNamed1[int](registry, "port", 8080)
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeTypeMismatch))
	assert.True(t, IsAbsent(err))
	assert.False(t, IsConstructionFailure(err))

	var structured *goerrors.Error
	require.True(t, errors.As(err, &structured))
	assert.Equal(t, "func(int) (int, error)", structured.Context["requested"])
	assert.Equal(t, "func(string) (int, error)", structured.Context["registered"])

	_, err = CreateNamed1[string](registry, "port", "x")
	assert.True(t, HasErrorCode(err, ErrCodeTypeMismatch), "result type is checked too")
}

func TestCreate_ConstructionFailure(t *testing.T) {
	registry := NewRegistry()
	cause := errors.New("dial tcp: connection refused")
	RegisterNamed(registry, "broken", func() (Greeter, error) { return nil, cause })

	value, err := CreateNamed[Greeter](registry, "broken")
	require.Error(t, err)
	assert.Nil(t, value)
	assert.True(t, IsConstructionFailure(err))
	assert.False(t, IsAbsent(err), "a constructor that ran and failed is not an absence")

	structured, ok := err.(*goerrors.Error)
	require.True(t, ok)
	assert.Equal(t, cause, structured.Cause)
}

func TestCreate_ConstructorPanic(t *testing.T) {
	registry := NewRegistry()
	RegisterNamed(registry, "panics", func() (*endpoint, error) { panic("boom") })

	assert.NotPanics(t, func() {
		value, err := CreateNamed[*endpoint](registry, "panics")
		require.Error(t, err)
		assert.Nil(t, value)
		assert.True(t, IsConstructionFailure(err))

		structured, ok := err.(*goerrors.Error)
		require.True(t, ok)
		var pe *panicError
		require.True(t, errors.As(structured.Cause, &pe))
		assert.Equal(t, "boom", pe.value)
		assert.NotEmpty(t, pe.stack)
	})
}

func TestCreate_ConstructorMayReenterRegistry(t *testing.T) {
	registry := NewRegistry()
	RegisterNamed(registry, "inner", func() (string, error) { return "inner", nil })
	RegisterNamed(registry, "outer", func() (string, error) {
		RegisterNamed(registry, "late", func() (string, error) { return "late", nil })
		inner, err := CreateNamed[string](registry, "inner")
		if err != nil {
			return "", err
		}
		return "outer+" + inner, nil
	})

	done := make(chan struct{})
	var value string
	var err error
	go func() {
		defer close(done)
		value, err = CreateNamed[string](registry, "outer")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("constructor re-entering the registry deadlocked")
	}
	require.NoError(t, err)
	assert.Equal(t, "outer+inner", value)

	late, err := CreateNamed[string](registry, "late")
	require.NoError(t, err)
	assert.Equal(t, "late", late)
}

// multiResolver returns several candidates for one key.
type multiResolver []any

func (m multiResolver) Resolve(ConstructorKey) []any { return m }

func TestCreate_FirstMatchingCandidateWins(t *testing.T) {
	candidates := multiResolver{
		func(int) (string, error) { return "wrong signature", nil },
		func() (string, error) { return "first", nil },
		func() (string, error) { return "second", nil },
	}

	value, err := CreateNamed[string](candidates, "any")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}
