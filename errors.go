// errors.go: structured error definitions for the modfactory core
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for the modfactory system
const (
	// Constructor registry errors (1000-1099)
	ErrCodeConstructorNotFound = "REGISTRY_1001"
	ErrCodeTypeMismatch        = "REGISTRY_1002"
	ErrCodeConstructionFailed  = "REGISTRY_1003"

	// Module loading errors (1100-1199)
	ErrCodeLoadFailed     = "MODULE_1101"
	ErrCodeSymbolMissing  = "MODULE_1102"
	ErrCodeDigestMismatch = "MODULE_1103"
	ErrCodeScanFailed     = "MODULE_1104"

	// Dispatch errors (1200-1299)
	ErrCodeInvocationPanicked = "DISPATCH_1201"

	// Configuration errors (1300-1399)
	ErrCodeConfigNotFound        = "CONFIG_1301"
	ErrCodeConfigParseError      = "CONFIG_1302"
	ErrCodeConfigValidationError = "CONFIG_1303"
	ErrCodeConfigWatcherError    = "CONFIG_1304"

	// Shared manager handle errors (1400-1499)
	ErrCodeDefaultNotInitialized     = "MANAGER_1401"
	ErrCodeDefaultAlreadyInitialized = "MANAGER_1402"
)

// Constructor registry error constructors

func NewConstructorNotFoundError(key ConstructorKey) *errors.Error {
	return errors.New(ErrCodeConstructorNotFound, "Constructor not found").
		WithUserMessage("No constructor is registered under the requested key").
		WithContext("key", key.String()).
		WithSeverity("info")
}

func NewTypeMismatchError(key ConstructorKey, requested, registered string) *errors.Error {
	return errors.New(ErrCodeTypeMismatch, "Constructor type mismatch").
		WithUserMessage("The registered constructor does not have the requested signature").
		WithContext("key", key.String()).
		WithContext("requested", requested).
		WithContext("registered", registered).
		WithSeverity("info")
}

func NewConstructionFailedError(key ConstructorKey, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConstructionFailed, "Construction failed").
		WithUserMessage("The module constructor failed to build the requested object").
		WithContext("key", key.String()).
		WithSeverity("error")
}

// Module loading error constructors

func NewLoadFailedError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLoadFailed, "Module library failed to load").
		WithUserMessage("The dynamic library could not be loaded").
		WithContext("path", path).
		WithSeverity("error")
}

func NewSymbolMissingError(path, symbol, reason string) *errors.Error {
	return errors.New(ErrCodeSymbolMissing, "Module entry point missing").
		WithUserMessage("The library does not export a usable module factory entry point").
		WithContext("path", path).
		WithContext("symbol", symbol).
		WithContext("reason", reason).
		WithSeverity("warning")
}

func NewDigestMismatchError(path, expected, actual string) *errors.Error {
	return errors.New(ErrCodeDigestMismatch, "Module digest mismatch").
		WithUserMessage("The library content does not match its allowed digest").
		WithContext("path", path).
		WithContext("expected", expected).
		WithContext("actual", actual).
		WithSeverity("error")
}

func NewScanFailedError(dir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeScanFailed, "Module scan failed").
		WithUserMessage("The module search directory could not be scanned").
		WithContext("dir", dir).
		WithSeverity("error")
}

// Dispatch error constructors

func NewInvocationPanickedError(target string, recovered any, stack []byte) *errors.Error {
	return errors.New(ErrCodeInvocationPanicked, "Dispatched operation panicked").
		WithUserMessage("The operation panicked while running against a target").
		WithContext("target", target).
		WithContext("panic", recovered).
		WithContext("stack", string(stack)).
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
			WithUserMessage("Configuration monitoring failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
		WithUserMessage("Configuration monitoring failed").
		WithSeverity("error")
}

// Shared manager handle error constructors

func NewDefaultNotInitializedError() *errors.Error {
	return errors.New(ErrCodeDefaultNotInitialized, "Default manager not initialized").
		WithUserMessage("InitDefault must be called before the shared manager is used").
		WithSeverity("error")
}

func NewDefaultAlreadyInitializedError() *errors.Error {
	return errors.New(ErrCodeDefaultAlreadyInitialized, "Default manager already initialized").
		WithUserMessage("ShutdownDefault must be called before initializing the shared manager again").
		WithSeverity("warning")
}

// HasErrorCode reports whether err, or any error it wraps, is a structured
// error carrying code.
func HasErrorCode(err error, code string) bool {
	for err != nil {
		if goErr, ok := err.(*errors.Error); ok {
			if string(goErr.ErrorCode()) == code {
				return true
			}
			err = goErr.Cause
			continue
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if HasErrorCode(e, code) {
					return true
				}
			}
			return false
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsAbsent reports whether err means "nobody can build this": either no
// constructor is registered under the key, or none has the requested signature.
// Callers probing several factories treat it as a normal outcome.
func IsAbsent(err error) bool {
	return HasErrorCode(err, ErrCodeConstructorNotFound) || HasErrorCode(err, ErrCodeTypeMismatch)
}

// IsConstructionFailure reports whether err came from a constructor that ran and failed.
func IsConstructionFailure(err error) bool {
	return HasErrorCode(err, ErrCodeConstructionFailed)
}
