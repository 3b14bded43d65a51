package metrics

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

type collector interface {
	writeTo(buf *bytes.Buffer)
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

type counter struct {
	name, help string
	value      atomic.Uint64
}

func newCounter(name, help string) *counter {
	return &counter{name: name, help: help}
}

func (c *counter) Inc() { c.value.Add(1) }

func (c *counter) writeTo(buf *bytes.Buffer) {
	writeHeader(buf, c.name, c.help, "counter")
	fmt.Fprintf(buf, "%s %d\n", c.name, c.value.Load())
}

// labeledCounter is a counter family with a single label.
type labeledCounter struct {
	name, help, label string

	mu     sync.Mutex
	counts map[string]uint64
}

func newLabeledCounter(name, help, label string) *labeledCounter {
	return &labeledCounter{name: name, help: help, label: label, counts: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(value string) {
	l.mu.Lock()
	l.counts[value]++
	l.mu.Unlock()
}

func (l *labeledCounter) writeTo(buf *bytes.Buffer) {
	l.mu.Lock()
	values := make([]string, 0, len(l.counts))
	for v := range l.counts {
		values = append(values, v)
	}
	sort.Strings(values)
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, fmt.Sprintf("%s{%s=%q} %d\n", l.name, l.label, v, l.counts[v]))
	}
	l.mu.Unlock()

	writeHeader(buf, l.name, l.help, "counter")
	for _, line := range lines {
		buf.WriteString(line)
	}
}

// histogram keeps per-bucket counts; cumulative totals are computed on write.
type histogram struct {
	name, help string
	bounds     []float64

	mu     sync.Mutex
	counts []uint64
	sum    float64
	total  uint64
}

func newHistogram(name, help string, bounds []float64) *histogram {
	return &histogram{name: name, help: help, bounds: bounds, counts: make([]uint64, len(bounds))}
}

func (h *histogram) Observe(v float64) {
	i := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	if i < len(h.counts) {
		h.counts[i]++
	}
	h.sum += v
	h.total++
	h.mu.Unlock()
}

func (h *histogram) writeTo(buf *bytes.Buffer) {
	h.mu.Lock()
	counts := append([]uint64(nil), h.counts...)
	sum, total := h.sum, h.total
	h.mu.Unlock()

	writeHeader(buf, h.name, h.help, "histogram")
	var cumulative uint64
	for i, bound := range h.bounds {
		cumulative += counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", h.name, total)
	fmt.Fprintf(buf, "%s_sum %s\n%s_count %d\n", h.name, formatFloat(sum), h.name, total)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
