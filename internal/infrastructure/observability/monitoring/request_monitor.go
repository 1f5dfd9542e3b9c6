package monitoring

import (
	"sync"
	"time"
)

// TenantActivity aggregates request traffic and dashboard activity counters
// for one restaurant tenant.
type TenantActivity struct {
	TenantID       string        `json:"tenantId"`
	Requests       int64         `json:"requests"`
	Failures       int64         `json:"failures"`
	ErrorRate      float64       `json:"errorRate"`
	AvgResponse    time.Duration `json:"avgResponse"`
	DraftSaves     int64         `json:"draftSaves"`
	OrderMutations int64         `json:"orderMutations"`
	LastSeen       time.Time     `json:"lastSeen"`

	responseTotal time.Duration
}

// RequestMonitor tracks per-tenant request activity. A gin middleware feeds
// it on every tenant-scoped request; the ops activity endpoint reads it.
type RequestMonitor struct {
	mu      sync.RWMutex
	tenants map[string]*TenantActivity
}

// NewRequestMonitor creates an empty monitor.
func NewRequestMonitor() *RequestMonitor {
	return &RequestMonitor{tenants: make(map[string]*TenantActivity)}
}

func (rm *RequestMonitor) activityLocked(tenantID string) *TenantActivity {
	act, ok := rm.tenants[tenantID]
	if !ok {
		act = &TenantActivity{TenantID: tenantID}
		rm.tenants[tenantID] = act
	}
	return act
}

// RecordRequest counts one completed request for the tenant. Status codes
// at or above 500 count as failures; client errors do not.
func (rm *RequestMonitor) RecordRequest(tenantID string, duration time.Duration, statusCode int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	act := rm.activityLocked(tenantID)
	act.Requests++
	if statusCode >= 500 {
		act.Failures++
	}
	act.ErrorRate = float64(act.Failures) / float64(act.Requests)
	act.responseTotal += duration
	act.AvgResponse = act.responseTotal / time.Duration(act.Requests)
	act.LastSeen = time.Now()
}

// RecordDraftSave counts one schedule save call for the tenant.
func (rm *RequestMonitor) RecordDraftSave(tenantID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.activityLocked(tenantID).DraftSaves++
}

// RecordOrderMutation counts one order status or payment change.
func (rm *RequestMonitor) RecordOrderMutation(tenantID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.activityLocked(tenantID).OrderMutations++
}

// Activity returns a copy of one tenant's counters.
func (rm *RequestMonitor) Activity(tenantID string) TenantActivity {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if act, ok := rm.tenants[tenantID]; ok {
		return *act
	}
	return TenantActivity{TenantID: tenantID}
}

// AllActivity returns copies of every tenant's counters.
func (rm *RequestMonitor) AllActivity() map[string]TenantActivity {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make(map[string]TenantActivity, len(rm.tenants))
	for id, act := range rm.tenants {
		out[id] = *act
	}
	return out
}

// Prune drops tenants idle longer than maxIdle, keeping the map bounded
// when tenants are deprovisioned.
func (rm *RequestMonitor) Prune(maxIdle time.Duration) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	removed := 0
	for id, act := range rm.tenants {
		if time.Since(act.LastSeen) > maxIdle {
			delete(rm.tenants, id)
			removed++
		}
	}
	return removed
}
