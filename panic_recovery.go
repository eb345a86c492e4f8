// panic_recovery.go: panic recovery utilities with stack trace support
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"runtime"
)

// captureStack returns the stack of the calling goroutine.
func captureStack() []byte {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	return buf[:n]
}

// withStackRecover returns a panic recovery function that logs panic details
// including full stack trace. Use it with defer in callbacks invoked by
// third-party watchers, where a panic would otherwise kill their goroutine.
//
//	defer withStackRecover(logger)()
func withStackRecover(logger Logger) func() {
	return func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered in goroutine",
				"panic", r,
				"stack", string(captureStack()))
		}
	}
}

// recoverInto turns a panic in the surrounding function into an error built
// by build and stored in *errp. It must be deferred directly:
//
//	defer recoverInto(&err, func(r any, stack []byte) error { ... })
func recoverInto(errp *error, build func(recovered any, stack []byte) error) {
	if r := recover(); r != nil {
		*errp = build(r, captureStack())
	}
}

// panicError carries a recovered panic value as an ordinary error.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
