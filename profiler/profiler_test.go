package profiler

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOperation(t *testing.T) {
	p := New()
	for i := 0; i < 3; i++ {
		done := p.StartOperation("segment")
		time.Sleep(time.Millisecond)
		done()
	}

	op, ok := p.Operation("segment")
	require.True(t, ok)
	assert.Equal(t, int64(3), op.Count)
	assert.GreaterOrEqual(t, op.Min, time.Millisecond)
	assert.GreaterOrEqual(t, op.Max, op.Min)
	assert.GreaterOrEqual(t, op.Avg(), op.Min)

	_, ok = p.Operation("missing")
	assert.False(t, ok)
}

func TestRecordMetricConcurrently(t *testing.T) {
	p := New()
	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			p.RecordMetric("pixels", v)
		}(float64(i))
	}
	wg.Wait()

	m, ok := p.Metric("pixels")
	require.True(t, ok)
	assert.Equal(t, MetricTracker{Sum: 55, Min: 1, Max: 10, Count: 10}, m)
}

func TestNilProfilerIsNoop(t *testing.T) {
	var p *Profiler
	p.StartOperation("x")()
	p.RecordMetric("y", 1)
	p.LogSummary(slog.Default())
	_, ok := p.Metric("y")
	assert.False(t, ok)
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := New()
	p.StartOperation("resample")()
	p.RecordMetric("tiles", 4)
	p.LogSummary(logger)

	out := buf.String()
	assert.Contains(t, out, "operation=resample")
	assert.Contains(t, out, "metric=tiles")
	assert.Contains(t, out, "heap_alloc=")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}
