package repoboard

import (
	"runtime"
	"sync"
	"time"
)

// Metrics collects repoboard-specific operational metrics.
type Metrics struct {
	mu              sync.Mutex
	GraphQLRequests int64            `json:"graphql_requests"`
	ConnectionLoads map[string]int64 `json:"connection_loads"` // field → count
	SyncRuns        int64            `json:"sync_runs"`
	RecordsIngested int64            `json:"records_ingested"`
	StartedAt       time.Time        `json:"-"`
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionLoads: make(map[string]int64),
		StartedAt:       time.Now(),
	}
}

// RecordGraphQLRequest increments the GraphQL request counter.
func (m *Metrics) RecordGraphQLRequest() {
	m.mu.Lock()
	m.GraphQLRequests++
	m.mu.Unlock()
}

// RecordConnectionLoad counts a connection load for the named field.
func (m *Metrics) RecordConnectionLoad(field string) {
	m.mu.Lock()
	m.ConnectionLoads[field]++
	m.mu.Unlock()
}

// RecordSyncRun counts one sync pass and the records it ingested.
func (m *Metrics) RecordSyncRun(records int) {
	m.mu.Lock()
	m.SyncRuns++
	m.RecordsIngested += int64(records)
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time metrics report.
type MetricsSnapshot struct {
	GraphQLRequests int64            `json:"graphql_requests"`
	ConnectionLoads map[string]int64 `json:"connection_loads"`
	SyncRuns        int64            `json:"sync_runs"`
	RecordsIngested int64            `json:"records_ingested"`
	UptimeSeconds   int              `json:"uptime_seconds"`
	Goroutines      int              `json:"goroutines"`
	HeapAllocMB     float64          `json:"heap_alloc_mb"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	loads := make(map[string]int64, len(m.ConnectionLoads))
	for k, v := range m.ConnectionLoads {
		loads[k] = v
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		GraphQLRequests: m.GraphQLRequests,
		ConnectionLoads: loads,
		SyncRuns:        m.SyncRuns,
		RecordsIngested: m.RecordsIngested,
		UptimeSeconds:   int(time.Since(m.StartedAt).Seconds()),
		Goroutines:      runtime.NumGoroutine(),
		HeapAllocMB:     float64(memStats.HeapAlloc) / (1024 * 1024),
	}
}
