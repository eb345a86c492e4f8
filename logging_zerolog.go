// logging_zerolog.go: Logger adapter for github.com/rs/zerolog
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ZerologAdapter wraps a zerolog.Logger so it can be injected wherever the
// core expects a Logger. Key-value arguments become structured fields.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger backed by logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug implements Logger interface
func (z *ZerologAdapter) Debug(msg string, args ...any) {
	withFields(z.logger.Debug(), args).Msg(msg)
}

// Info implements Logger interface
func (z *ZerologAdapter) Info(msg string, args ...any) {
	withFields(z.logger.Info(), args).Msg(msg)
}

// Warn implements Logger interface
func (z *ZerologAdapter) Warn(msg string, args ...any) {
	withFields(z.logger.Warn(), args).Msg(msg)
}

// Error implements Logger interface
func (z *ZerologAdapter) Error(msg string, args ...any) {
	withFields(z.logger.Error(), args).Msg(msg)
}

// With implements Logger interface
func (z *ZerologAdapter) With(args ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 < len(args) {
			ctx = ctx.Interface(key, args[i+1])
		} else {
			ctx = ctx.Bool(key, true)
		}
	}
	return &ZerologAdapter{logger: ctx.Logger()}
}

func withFields(event *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			event = event.Bool(key, true)
			continue
		}
		switch v := args[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}
