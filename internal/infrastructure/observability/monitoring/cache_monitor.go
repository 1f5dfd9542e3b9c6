// Package monitoring keeps live counters for the three tenant cache layers
// (catalog, drafts, dashboard) and for per-tenant request activity. The ops
// dashboard reads these through the activity endpoint; nothing here persists.
package monitoring

import (
	"sync"
	"time"
)

// LayerStats aggregates hit/miss counters for one cache layer.
type LayerStats struct {
	Layer         string        `json:"layer"`
	Requests      int64         `json:"requests"`
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	HitRatio      float64       `json:"hitRatio"`
	AvgHitLatency time.Duration `json:"avgHitLatency"`
	Evictions     int64         `json:"evictions"`
	LastUpdated   time.Time     `json:"lastUpdated"`

	hitLatencyTotal time.Duration
}

// WarmingStats tracks cache warming work per source kind: snapshot loads at
// boot versus per-entity repository scans.
type WarmingStats struct {
	Operations  int64            `json:"operations"`
	Failures    int64            `json:"failures"`
	ItemsLoaded int64            `json:"itemsLoaded"`
	TotalTime   time.Duration    `json:"totalTime"`
	BySource    map[string]int64 `json:"bySource"`
	LastRun     time.Time        `json:"lastRun"`
}

// CacheMonitorConfig bounds what the monitor considers healthy.
type CacheMonitorConfig struct {
	MinHealthyHitRatio float64
	MaxHealthyLatency  time.Duration
}

// DefaultCacheMonitorConfig matches the tuning the dashboards assume.
func DefaultCacheMonitorConfig() *CacheMonitorConfig {
	return &CacheMonitorConfig{
		MinHealthyHitRatio: 0.85,
		MaxHealthyLatency:  10 * time.Millisecond,
	}
}

// CachePerformanceMonitor is the process-wide collector for cache layer
// performance. One instance lives in the container; the warming service and
// cache-backed services feed it.
type CachePerformanceMonitor struct {
	mu      sync.RWMutex
	layers  map[string]*LayerStats
	warming *WarmingStats
	config  *CacheMonitorConfig
	started time.Time
}

// NewCachePerformanceMonitor creates a monitor primed with the three
// plateful cache layers.
func NewCachePerformanceMonitor(config *CacheMonitorConfig) *CachePerformanceMonitor {
	if config == nil {
		config = DefaultCacheMonitorConfig()
	}
	layers := make(map[string]*LayerStats, 3)
	for _, name := range []string{"catalog", "drafts", "dashboard"} {
		layers[name] = &LayerStats{Layer: name, LastUpdated: time.Now()}
	}
	return &CachePerformanceMonitor{
		layers:  layers,
		warming: &WarmingStats{BySource: make(map[string]int64)},
		config:  config,
		started: time.Now(),
	}
}

// RecordCacheOperation counts one lookup against a layer. Unknown layers are
// ignored rather than invented so a typo cannot grow the map unbounded.
func (m *CachePerformanceMonitor) RecordCacheOperation(layer, tenantID string, hit bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.layers[layer]
	if !ok {
		return
	}
	stats.Requests++
	if hit {
		stats.Hits++
		stats.hitLatencyTotal += latency
		stats.AvgHitLatency = stats.hitLatencyTotal / time.Duration(stats.Hits)
	} else {
		stats.Misses++
	}
	stats.HitRatio = float64(stats.Hits) / float64(stats.Requests)
	stats.LastUpdated = time.Now()
	_ = tenantID // per-tenant request activity lives in RequestMonitor
}

// RecordEviction counts one entry dropped from a layer by the cleanup worker.
func (m *CachePerformanceMonitor) RecordEviction(layer string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stats, ok := m.layers[layer]; ok {
		stats.Evictions += int64(count)
		stats.LastUpdated = time.Now()
	}
}

// RecordWarmingOperation counts one warming pass for a tenant. Source names
// the loader: "snapshot" for CBOR snapshot restores, else the entity kind.
func (m *CachePerformanceMonitor) RecordWarmingOperation(tenantID string, items int64, duration time.Duration, success bool, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.warming.Operations++
	if !success {
		m.warming.Failures++
	} else {
		m.warming.ItemsLoaded += items
	}
	m.warming.TotalTime += duration
	m.warming.BySource[source] += items
	m.warming.LastRun = time.Now()
	_ = tenantID
}

// LayerSnapshot returns a copy of one layer's counters.
func (m *CachePerformanceMonitor) LayerSnapshot(layer string) (LayerStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.layers[layer]
	if !ok {
		return LayerStats{}, false
	}
	return *stats, true
}

// Snapshot reports all layers plus warming totals for the ops activity view.
func (m *CachePerformanceMonitor) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layers := make(map[string]LayerStats, len(m.layers))
	for name, stats := range m.layers {
		layers[name] = *stats
	}
	warming := *m.warming
	warming.BySource = make(map[string]int64, len(m.warming.BySource))
	for k, v := range m.warming.BySource {
		warming.BySource[k] = v
	}

	return map[string]any{
		"uptime":  time.Since(m.started).String(),
		"layers":  layers,
		"warming": warming,
		"healthy": m.healthyLocked(),
	}
}

// healthyLocked applies the config thresholds; layers with no traffic yet
// are treated as healthy.
func (m *CachePerformanceMonitor) healthyLocked() bool {
	for _, stats := range m.layers {
		if stats.Requests < 100 {
			continue
		}
		if stats.HitRatio < m.config.MinHealthyHitRatio {
			return false
		}
		if stats.AvgHitLatency > m.config.MaxHealthyLatency {
			return false
		}
	}
	return true
}
