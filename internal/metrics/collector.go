// Package metrics provides in-memory statistics for backend requests.
package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// EndpointMetrics holds aggregated metrics for a single backend endpoint.
type EndpointMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// EndpointSnapshot provides computed stats from raw metrics.
type EndpointSnapshot struct {
	Endpoint    string
	Count       int64
	Errors      int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents request statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Endpoints     []EndpointSnapshot
}

// Collector aggregates request statistics per endpoint.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	endpoints map[string]*EndpointMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		endpoints: make(map[string]*EndpointMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an endpoint.
// Caller must hold write lock.
func (c *Collector) getOrCreate(endpoint string) *EndpointMetrics {
	m, ok := c.endpoints[endpoint]
	if !ok {
		m = &EndpointMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.endpoints[endpoint] = m
	}
	return m
}

// RecordRequest records the duration and outcome of one request.
func (c *Collector) RecordRequest(endpoint string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(endpoint)
	m.Count++
	m.TotalTime += duration
	if failed {
		m.Errors++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

func snapshotEndpoint(name string, m *EndpointMetrics) EndpointSnapshot {
	snap := EndpointSnapshot{
		Endpoint:    name,
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
	if m.Count > 0 {
		snap.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Count)
		snap.MinTimeMs = m.MinTime.Milliseconds()
	}
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics, sorted by endpoint.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.startTime).Seconds()}
	for name, m := range c.endpoints {
		snap.Endpoints = append(snap.Endpoints, snapshotEndpoint(name, m))
	}
	slices.SortFunc(snap.Endpoints, func(a, b EndpointSnapshot) int {
		switch {
		case a.Endpoint < b.Endpoint:
			return -1
		case a.Endpoint > b.Endpoint:
			return 1
		}
		return 0
	})
	return snap
}
