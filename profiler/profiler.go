// Package profiler collects per-stage timings and counters for a build run
// and reports them through a structured logger.
package profiler

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Profiler tracks operation timings and custom metrics. It is safe for
// concurrent use; a nil *Profiler discards everything.
type Profiler struct {
	mu        sync.Mutex
	startTime time.Time

	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Count int64         `json:"count"`
}

// Avg returns the mean duration, or 0 before the first sample.
func (t TimeTracker) Avg() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// New creates a profiler whose uptime starts now.
func New() *Profiler {
	return &Profiler{
		startTime:  time.Now(),
		metrics:    make(map[string]*MetricTracker),
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
//
// @example
// defer prof.StartOperation("resample")()
func (p *Profiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.recordOperationTime(name, time.Since(start))
	}
}

func (p *Profiler) recordOperationTime(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &TimeTracker{Min: d, Max: d}
		p.operations[name] = t
	}
	t.Total += d
	t.Count++
	t.Min = min(t.Min, d)
	t.Max = max(t.Max, d)
}

// RecordMetric adds one sample to a custom metric.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.metrics[name]
	if !ok {
		m = &MetricTracker{Min: value, Max: value}
		p.metrics[name] = m
	}
	m.Sum += value
	m.Count++
	m.Min = min(m.Min, value)
	m.Max = max(m.Max, value)
}

// Operation returns a copy of the named timing tracker.
func (p *Profiler) Operation(name string) (TimeTracker, bool) {
	if p == nil {
		return TimeTracker{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.operations[name]
	if !ok {
		return TimeTracker{}, false
	}
	return *t, true
}

// Metric returns a copy of the named metric tracker.
func (p *Profiler) Metric(name string) (MetricTracker, bool) {
	if p == nil {
		return MetricTracker{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.metrics[name]
	if !ok {
		return MetricTracker{}, false
	}
	return *m, true
}

// LogSummary writes one record per operation and metric, sorted by name,
// followed by the run's uptime and heap usage.
func (p *Profiler) LogSummary(logger *slog.Logger) {
	if p == nil || logger == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, name := range sortedKeys(p.operations) {
		t := p.operations[name]
		logger.Info("operation timing",
			"operation", name,
			"count", t.Count,
			"avg", t.Avg().Truncate(time.Microsecond),
			"min", t.Min.Truncate(time.Microsecond),
			"max", t.Max.Truncate(time.Microsecond),
		)
	}
	for _, name := range sortedKeys(p.metrics) {
		m := p.metrics[name]
		logger.Info("metric",
			"metric", name,
			"sum", m.Sum,
			"avg", m.Sum/float64(m.Count),
			"min", m.Min,
			"max", m.Max,
			"samples", m.Count,
		)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Info("runtime",
		"uptime", time.Since(p.startTime).Truncate(time.Millisecond),
		"heap_alloc", formatBytes(mem.HeapAlloc),
		"total_alloc", formatBytes(mem.TotalAlloc),
		"gc_cycles", mem.NumGC,
	)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
