// dispatch.go: concurrent fan-out of one operation over many targets
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one dispatched invocation.
type Result[R any] struct {
	Value    R
	Err      error
	Duration time.Duration
}

// Get returns the value, or the error the invocation failed with.
func (r Result[R]) Get() (R, error) {
	return r.Value, r.Err
}

// Dispatcher runs one operation against every entry of a target map
// concurrently and blocks until all of them have finished.
//
// Example, querying every exchange connector at once:
//
//	connectors := map[string]Connector{"binance": b, "kraken": k}
//	balances := modfactory.Execute1(dispatcher, connectors, Connector.Balance, "USDT")
//	for exchange, result := range balances {
//	    balance, err := result.Get()
//	    ...
//	}
//
// There is no cancellation: every invocation runs to completion, so callers
// needing bounded latency must build it into the operation itself.
type Dispatcher struct {
	limit   int
	logger  Logger
	metrics MetricsCollector
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrencyLimit caps the number of invocations running at once.
// Zero or less means one goroutine per target.
func WithConcurrencyLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		d.limit = max(limit, 0)
	}
}

// WithDispatchMetrics sets the collector receiving per-invocation metrics.
func WithDispatchMetrics(collector MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) {
		if collector != nil {
			d.metrics = collector
		}
	}
}

// NewDispatcher creates a dispatcher. The logger accepts anything NewLogger does.
func NewDispatcher(logger any, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger:  NewLogger(logger),
		metrics: NewNoOpMetricsCollector(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Limit returns the concurrency limit, zero meaning unbounded.
func (d *Dispatcher) Limit() int {
	if d == nil {
		return 0
	}
	return d.limit
}

var defaultDispatcher = NewDispatcher(nil)

// Execute invokes op on every target and returns one Result per target id.
// A nil dispatcher behaves like NewDispatcher(nil).
func Execute[K comparable, S, R any](d *Dispatcher, targets map[K]S, op func(S) (R, error)) map[K]Result[R] {
	return dispatch(d, targets, op)
}

// Execute1 invokes op(target, a1) on every target.
func Execute1[K comparable, S, A1, R any](d *Dispatcher, targets map[K]S, op func(S, A1) (R, error), a1 A1) map[K]Result[R] {
	return dispatch(d, targets, func(target S) (R, error) {
		return op(target, a1)
	})
}

// Execute2 invokes op(target, a1, a2) on every target.
func Execute2[K comparable, S, A1, A2, R any](d *Dispatcher, targets map[K]S, op func(S, A1, A2) (R, error), a1 A1, a2 A2) map[K]Result[R] {
	return dispatch(d, targets, func(target S) (R, error) {
		return op(target, a1, a2)
	})
}

type taggedResult[K comparable, R any] struct {
	id     K
	result Result[R]
}

func dispatch[K comparable, S, R any](d *Dispatcher, targets map[K]S, op func(S) (R, error)) map[K]Result[R] {
	results := make(map[K]Result[R], len(targets))
	if len(targets) == 0 {
		return results
	}
	if d == nil {
		d = defaultDispatcher
	}

	logger := d.logger.With("dispatch_id", uuid.NewString())
	began := time.Now()

	// Workers must never block on send while the limit holds the launch loop.
	done := make(chan taggedResult[K, R], len(targets))

	var group errgroup.Group
	if d.limit > 0 {
		group.SetLimit(d.limit)
	}
	for id, target := range targets {
		group.Go(func() error {
			done <- taggedResult[K, R]{id: id, result: invokeTarget(id, target, op)}
			return nil
		})
	}

	failures := 0
	for range len(targets) {
		tagged := <-done
		results[tagged.id] = tagged.result
		outcome := "success"
		switch {
		case HasErrorCode(tagged.result.Err, ErrCodeInvocationPanicked):
			outcome = "panic"
			failures++
			logger.Error("Dispatched operation panicked", "target", fmt.Sprint(tagged.id), "error", tagged.result.Err)
		case tagged.result.Err != nil:
			outcome = "error"
			failures++
		}
		d.metrics.IncrementCounter(MetricDispatchTotal, map[string]string{"outcome": outcome}, 1)
		d.metrics.RecordHistogram(MetricDispatchDuration, nil, tagged.result.Duration.Seconds())
	}
	_ = group.Wait()

	logger.Debug("Dispatch completed",
		"targets", len(targets),
		"failures", failures,
		"duration", time.Since(began))
	return results
}

// invokeTarget runs op against one target, turning a panic into that
// target's error.
func invokeTarget[K comparable, S, R any](id K, target S, op func(S) (R, error)) (result Result[R]) {
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Result[R]{
				Err:      NewInvocationPanickedError(fmt.Sprint(id), r, captureStack()),
				Duration: time.Since(began),
			}
		}
	}()

	value, err := op(target)
	return Result[R]{Value: value, Err: err, Duration: time.Since(began)}
}
