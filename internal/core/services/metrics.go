package services

import (
	"sort"
	"sync"
	"time"
)

// MetricsSnapshot is the fixed metrics record exposed to transports.
type MetricsSnapshot struct {
	// Requests is the total number of operations served.
	Requests int64 `json:"requests"`

	// Errors is how many of those failed.
	Errors int64 `json:"errors"`

	// AvgLatencyMs is the mean operation latency in milliseconds.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// ToolCalls counts invocations per operation name.
	ToolCalls map[string]int64 `json:"tool_calls"`
}

// HealthSnapshot is the health record exposed to transports.
type HealthSnapshot struct {
	// Status is "ok" while the process is serving.
	Status string `json:"status"`

	// Tools lists the registered operation names.
	Tools []string `json:"tools"`

	// UptimeSeconds is how long the process has been serving.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Metrics records per-operation counters for the metrics and healthz
// operations. Safe for concurrent use.
type Metrics struct {
	startedAt time.Time

	mu        sync.Mutex
	requests  int64
	errors    int64
	totalMs   float64
	toolCalls map[string]int64
}

// NewMetrics creates a metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt: time.Now(),
		toolCalls: make(map[string]int64),
	}
}

// Record notes one completed operation.
func (m *Metrics) Record(tool string, latency time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if failed {
		m.errors++
	}
	m.totalMs += float64(latency.Milliseconds())
	m.toolCalls[tool]++
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Requests:  m.requests,
		Errors:    m.errors,
		ToolCalls: make(map[string]int64, len(m.toolCalls)),
	}
	for tool, count := range m.toolCalls {
		snap.ToolCalls[tool] = count
	}
	if m.requests > 0 {
		snap.AvgLatencyMs = m.totalMs / float64(m.requests)
	}
	return snap
}

// Health returns the health record for the given tool names.
func (m *Metrics) Health(tools []string) HealthSnapshot {
	sorted := append([]string(nil), tools...)
	sort.Strings(sorted)
	return HealthSnapshot{
		Status:        "ok",
		Tools:         sorted,
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
	}
}
