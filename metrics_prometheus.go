// metrics_prometheus.go: MetricsCollector backed by a Prometheus registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector exports collected metrics through a Prometheus
// registry. Vectors are created on first use, with label names taken from
// that first call; later calls for the same metric must use the same label
// names.
//
//	registry := prometheus.NewRegistry()
//	collector := modfactory.NewPrometheusMetricsCollector(registry, logger)
//	manager := modfactory.NewManager(logger, modfactory.WithMetrics(collector))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetricsCollector struct {
	registry *prometheus.Registry
	logger   Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetricsCollector creates a collector registering into registry.
// A nil registry gets a fresh one.
func NewPrometheusMetricsCollector(registry *prometheus.Registry, logger any) *PrometheusMetricsCollector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PrometheusMetricsCollector{
		registry:   registry,
		logger:     NewLogger(logger),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry returns the registry metrics are exported through.
func (p *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return p.registry
}

// IncrementCounter implements MetricsCollector
func (p *PrometheusMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: helpFor(name)}, labelNames(labels))
		vec = registerOrExisting(p.registry, vec)
		p.counters[name] = vec
	}
	p.mu.Unlock()

	counter, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.logger.Warn("Dropping counter sample", "metric", name, "error", err)
		return
	}
	counter.Add(float64(value))
}

// SetGauge implements MetricsCollector
func (p *PrometheusMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: helpFor(name)}, labelNames(labels))
		vec = registerOrExisting(p.registry, vec)
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	gauge, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.logger.Warn("Dropping gauge sample", "metric", name, "error", err)
		return
	}
	gauge.Set(value)
}

// RecordHistogram implements MetricsCollector
func (p *PrometheusMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpFor(name),
			Buckets: prometheus.DefBuckets,
		}, labelNames(labels))
		vec = registerOrExisting(p.registry, vec)
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	observer, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.logger.Warn("Dropping histogram sample", "metric", name, "error", err)
		return
	}
	observer.Observe(value)
}

// GetMetrics implements MetricsCollector by gathering the registry.
// Histograms report their sample count and sum.
func (p *PrometheusMetricsCollector) GetMetrics() map[string]any {
	metrics := make(map[string]any)

	families, err := p.registry.Gather()
	if err != nil {
		p.logger.Warn("Failed to gather metrics", "error", err)
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			key := MetricKey(family.GetName(), labels)

			switch {
			case metric.GetCounter() != nil:
				metrics[key] = int64(metric.GetCounter().GetValue())
			case metric.GetGauge() != nil:
				metrics[key] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				metrics[key+"_count"] = int(metric.GetHistogram().GetSampleCount())
				metrics[key+"_sum"] = metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return metrics
}

func registerOrExisting[C prometheus.Collector](registry *prometheus.Registry, collector C) C {
	if err := registry.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return collector
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func helpFor(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "modfactory_"), "_", " ")
}
