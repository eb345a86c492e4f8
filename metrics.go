// metrics.go: metrics collection interface and in-process collectors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"fmt"
	"sort"
	"sync"
)

// Metric names emitted by the manager and the dispatcher.
const (
	MetricModulesLoaded      = "modfactory_modules_loaded"
	MetricScansTotal         = "modfactory_scans_total"
	MetricScanDuration       = "modfactory_scan_duration_seconds"
	MetricLoadFailuresTotal  = "modfactory_load_failures_total"
	MetricDispatchTotal      = "modfactory_dispatch_invocations_total"
	MetricDispatchDuration   = "modfactory_dispatch_duration_seconds"
	MetricConfigReloadsTotal = "modfactory_config_reloads_total"
	MetricRetainedLibraries  = "modfactory_retained_libraries"
)

// MetricsCollector receives counters, gauges and histogram observations.
//
// Example usage:
//
//	collector.IncrementCounter(MetricLoadFailuresTotal,
//	    map[string]string{"reason": "symbol_missing"}, 1)
//	collector.SetGauge(MetricModulesLoaded, nil, 3)
//	collector.RecordHistogram(MetricScanDuration, nil, 0.012)
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string, value int64)
	SetGauge(name string, labels map[string]string, value float64)
	RecordHistogram(name string, labels map[string]string, value float64)

	// GetMetrics returns a flat snapshot keyed by name and sorted labels.
	GetMetrics() map[string]any
}

// NoOpMetricsCollector discards everything.
type NoOpMetricsCollector struct{}

// NewNoOpMetricsCollector creates a collector that records nothing.
func NewNoOpMetricsCollector() *NoOpMetricsCollector {
	return &NoOpMetricsCollector{}
}

// IncrementCounter implements MetricsCollector
func (n *NoOpMetricsCollector) IncrementCounter(string, map[string]string, int64) {}

// SetGauge implements MetricsCollector
func (n *NoOpMetricsCollector) SetGauge(string, map[string]string, float64) {}

// RecordHistogram implements MetricsCollector
func (n *NoOpMetricsCollector) RecordHistogram(string, map[string]string, float64) {}

// GetMetrics implements MetricsCollector
func (n *NoOpMetricsCollector) GetMetrics() map[string]any {
	return map[string]any{}
}

// maxHistogramSamples bounds the samples kept per histogram series.
const maxHistogramSamples = 1000

// InMemoryMetricsCollector keeps metrics in process memory. It backs tests
// and the inspect command.
type InMemoryMetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryMetricsCollector creates an empty collector.
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter implements MetricsCollector
func (c *InMemoryMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[MetricKey(name, labels)] += value
}

// SetGauge implements MetricsCollector
func (c *InMemoryMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[MetricKey(name, labels)] = value
}

// RecordHistogram implements MetricsCollector
func (c *InMemoryMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := MetricKey(name, labels)
	samples := append(c.histograms[key], value)
	if len(samples) > maxHistogramSamples {
		samples = samples[len(samples)-maxHistogramSamples:]
	}
	c.histograms[key] = samples
}

// Counter returns the current value of one counter series.
func (c *InMemoryMetricsCollector) Counter(name string, labels map[string]string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[MetricKey(name, labels)]
}

// Gauge returns the current value of one gauge series.
func (c *InMemoryMetricsCollector) Gauge(name string, labels map[string]string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gauges[MetricKey(name, labels)]
}

// GetMetrics implements MetricsCollector. Histograms are summarized as
// _count, _sum, _min and _max entries.
func (c *InMemoryMetricsCollector) GetMetrics() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := make(map[string]any, len(c.counters)+len(c.gauges)+4*len(c.histograms))
	for k, v := range c.counters {
		metrics[k] = v
	}
	for k, v := range c.gauges {
		metrics[k] = v
	}
	for k, samples := range c.histograms {
		if len(samples) == 0 {
			continue
		}
		sum, minVal, maxVal := 0.0, samples[0], samples[0]
		for _, v := range samples {
			sum += v
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		metrics[k+"_count"] = len(samples)
		metrics[k+"_sum"] = sum
		metrics[k+"_min"] = minVal
		metrics[k+"_max"] = maxVal
	}
	return metrics
}

// MetricKey flattens a series identity into name_label_value pairs with
// labels sorted by name.
func MetricKey(name string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += fmt.Sprintf("_%s_%s", k, labels[k])
	}
	return key
}
