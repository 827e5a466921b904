// Package metrics keeps in-memory timing, token and failure counts per
// operation. Nothing is exported to external systems.
package metrics

import (
	"sync"
	"time"
)

// Operation names recorded by promptpad.
const (
	OpCompletion = "completion"
	OpSummarize  = "summarize"
	OpStoreWrite = "store_write"
)

// OperationSnapshot is the computed view of one operation.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats, nil when the operation never reported usage
	TotalInputTokens  *int64   `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64   `json:"total_output_tokens,omitempty"`
	AvgInputTokens    *float64 `json:"avg_input_tokens,omitempty"`
	AvgOutputTokens   *float64 `json:"avg_output_tokens,omitempty"`
	MinInputTokens    *int64   `json:"min_input_tokens,omitempty"`
	MaxInputTokens    *int64   `json:"max_input_tokens,omitempty"`
	MinOutputTokens   *int64   `json:"min_output_tokens,omitempty"`
	MaxOutputTokens   *int64   `json:"max_output_tokens,omitempty"`
}

// Snapshot is the state of a Collector at one point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Completion    *OperationSnapshot `json:"completion,omitempty"`
	Summarize     *OperationSnapshot `json:"summarize,omitempty"`
	StoreWrite    *OperationSnapshot `json:"store_write,omitempty"`
	Failures      map[string]int64   `json:"failures,omitempty"`
}

// span tracks count, sum and range of a series of observations.
type span struct {
	n, sum, lo, hi int64
}

func (s *span) observe(v int64) {
	if s.n == 0 || v < s.lo {
		s.lo = v
	}
	if s.n == 0 || v > s.hi {
		s.hi = v
	}
	s.n++
	s.sum += v
}

func (s span) avg() float64 {
	if s.n == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.n)
}

type opStats struct {
	latency  span // nanoseconds
	input    span
	output   span
	failures int64
}

// Collector aggregates statistics per operation. Safe for concurrent use.
type Collector struct {
	mu      sync.RWMutex
	started time.Time
	ops     map[string]*opStats
}

// NewCollector creates an empty collector. Uptime counts from now.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		ops:     make(map[string]*opStats),
	}
}

// op returns the stats for name. Caller holds the write lock.
func (c *Collector) op(name string) *opStats {
	s, ok := c.ops[name]
	if !ok {
		s = &opStats{}
		c.ops[name] = s
	}
	return s
}

// RecordTiming records one successful operation.
func (c *Collector) RecordTiming(op string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.op(op).latency.observe(int64(d))
}

// RecordLLMUsage records one successful model call with its token usage.
func (c *Collector) RecordLLMUsage(op string, d time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.op(op)
	s.latency.observe(int64(d))
	s.input.observe(inputTokens)
	s.output.observe(outputTokens)
}

// RecordFailure counts a failed operation. Failures carry no timing.
func (c *Collector) RecordFailure(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.op(op).failures++
}

func (s *opStats) snapshot() *OperationSnapshot {
	if s == nil || s.latency.n == 0 {
		return nil
	}

	ms := func(ns int64) int64 { return time.Duration(ns).Milliseconds() }
	snap := &OperationSnapshot{
		Count:       s.latency.n,
		TotalTimeMs: ms(s.latency.sum),
		AvgTimeMs:   float64(ms(s.latency.sum)) / float64(s.latency.n),
		MinTimeMs:   ms(s.latency.lo),
		MaxTimeMs:   ms(s.latency.hi),
	}

	if s.input.sum > 0 || s.output.sum > 0 {
		in, out := s.input, s.output
		avgIn, avgOut := in.avg(), out.avg()
		snap.TotalInputTokens, snap.TotalOutputTokens = &in.sum, &out.sum
		snap.AvgInputTokens, snap.AvgOutputTokens = &avgIn, &avgOut
		snap.MinInputTokens, snap.MaxInputTokens = &in.lo, &in.hi
		snap.MinOutputTokens, snap.MaxOutputTokens = &out.lo, &out.hi
	}
	return snap
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Completion:    c.ops[OpCompletion].snapshot(),
		Summarize:     c.ops[OpSummarize].snapshot(),
		StoreWrite:    c.ops[OpStoreWrite].snapshot(),
	}
	for name, s := range c.ops {
		if s.failures == 0 {
			continue
		}
		if snap.Failures == nil {
			snap.Failures = make(map[string]int64)
		}
		snap.Failures[name] = s.failures
	}
	return snap
}
