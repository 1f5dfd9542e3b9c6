package messaging

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// OpsClient represents a single connected operations dashboard client.
type OpsClient struct {
	Conn     *websocket.Conn
	TenantID string
	Send     chan []byte
}

// DraftSessionState represents the state of one schedule-editing session for visualization.
type DraftSessionState struct {
	IsDirty      bool      `json:"isDirty"`
	IsSaving     bool      `json:"isSaving"`
	LastActivity time.Time `json:"lastActivity"`
}

// DraftActivityPayload is the complete data structure sent to the frontend on each tick.
type DraftActivityPayload struct {
	SessionStates []DraftSessionState `json:"sessionStates"`
	DisplayMode   string              `json:"displayMode"` // "1:1" or "PROPORTIONAL"
	TotalCount    int                 `json:"totalCount"`
	DirtyCount    int                 `json:"dirtyCount"`
	SavingCount   int                 `json:"savingCount"`
	ActiveCount   int                 `json:"activeCount"`
	DormantCount  int                 `json:"dormantCount"`
}

// draftStats holds the raw counts for proportional calculation.
type draftStats struct{ Total, Dirty, Saving, Active, Dormant int }

// OpsBroadcaster manages all connected operations clients and broadcasts
// the schedule-editing activity map for their tenant.
type OpsBroadcaster struct {
	tenantClients map[string]map[*OpsClient]bool
	register      chan *OpsClient
	unregister    chan *OpsClient
	cacheManager  *manager.Manager
	tenantManager *tenant.Manager
	logger        *logging.ChanneledLogger
	mu            sync.RWMutex
}

// NewOpsBroadcaster creates a new broadcaster instance.
func NewOpsBroadcaster(tm *tenant.Manager, cm *manager.Manager, logger *logging.ChanneledLogger) *OpsBroadcaster {
	return &OpsBroadcaster{
		tenantClients: make(map[string]map[*OpsClient]bool),
		register:      make(chan *OpsClient),
		unregister:    make(chan *OpsClient),
		cacheManager:  cm,
		tenantManager: tm,
		logger:        logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *OpsBroadcaster) Run() {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			if _, ok := b.tenantClients[client.TenantID]; !ok {
				b.tenantClients[client.TenantID] = make(map[*OpsClient]bool)
			}
			b.tenantClients[client.TenantID][client] = true
			b.logger.Ops().Info("Ops client registered", "tenantId", client.TenantID)
			b.mu.Unlock()

		case client := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.tenantClients[client.TenantID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(b.tenantClients, client.TenantID)
					}
				}
			}
			b.logger.Ops().Info("Ops client unregistered", "tenantId", client.TenantID)
			b.mu.Unlock()

		case <-ticker.C:
			b.broadcastActivityMaps()
		}
	}
}

// Register queues a client for registration.
func (b *OpsBroadcaster) Register(client *OpsClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *OpsBroadcaster) Unregister(client *OpsClient) {
	b.unregister <- client
}

// ClientCount returns the number of connected ops clients for a tenant.
func (b *OpsBroadcaster) ClientCount(tenantID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tenantClients[tenantID])
}

// broadcastActivityMaps gathers and sends the session state for all tenants with active clients.
func (b *OpsBroadcaster) broadcastActivityMaps() {
	b.mu.RLock()
	tenantIDs := make([]string, 0, len(b.tenantClients))
	for tenantID := range b.tenantClients {
		tenantIDs = append(tenantIDs, tenantID)
	}
	b.mu.RUnlock()

	for _, tenantID := range tenantIDs {
		fullStateList := b.getDraftStatesForTenant(tenantID)
		payload := b.preparePayload(fullStateList)

		message, err := json.Marshal(payload)
		if err != nil {
			b.logger.Ops().Error("Error marshaling draft activity", "tenantId", tenantID, "error", err)
			continue
		}

		b.mu.RLock()
		if clients, ok := b.tenantClients[tenantID]; ok {
			for client := range clients {
				select {
				case client.Send <- message:
				default:
				}
			}
		}
		b.mu.RUnlock()
	}
}

// getDraftStatesForTenant is the core logic for calculating the state of each session.
func (b *OpsBroadcaster) getDraftStatesForTenant(tenantID string) []DraftSessionState {
	ctx, err := b.tenantManager.NewContextFromID(tenantID)
	if err != nil {
		b.logger.Ops().Error("Ops broadcaster could not create context", "tenantId", tenantID, "error", err)
		return []DraftSessionState{}
	}
	defer ctx.Close()

	draftCache, ok := ctx.CacheManager.GetTenantDraftCache(tenantID)
	if !ok {
		return []DraftSessionState{}
	}

	draftCache.Mu.RLock()
	defer draftCache.Mu.RUnlock()

	states := make([]DraftSessionState, 0, len(draftCache.Sessions))
	for _, session := range draftCache.Sessions {
		// Engine methods take the engine's own lock, which is never held
		// while the draft cache lock is acquired, so this ordering is safe.
		states = append(states, DraftSessionState{
			IsDirty:      len(session.Engine.DirtyIDs()) > 0,
			IsSaving:     session.Engine.Saving(),
			LastActivity: session.LastActivity,
		})
	}
	return states
}

// preparePayload handles the logic for proportional scaling.
func (b *OpsBroadcaster) preparePayload(fullStateList []DraftSessionState) DraftActivityPayload {
	stats := b.calculateStats(fullStateList)
	var displayStates []DraftSessionState
	displayMode := "1:1"

	// Switch to proportional mode if session count is high
	if stats.Total > 200 {
		displayMode = "PROPORTIONAL"
		displayStates = b.calculateProportionalStates(fullStateList, 200)
	} else {
		displayStates = fullStateList
	}

	return DraftActivityPayload{
		SessionStates: displayStates,
		DisplayMode:   displayMode,
		TotalCount:    stats.Total,
		DirtyCount:    stats.Dirty,
		SavingCount:   stats.Saving,
		ActiveCount:   stats.Active,
		DormantCount:  stats.Dormant,
	}
}

// calculateStats calculates aggregate statistics from the full session list.
func (b *OpsBroadcaster) calculateStats(fullStateList []DraftSessionState) (stats draftStats) {
	stats.Total = len(fullStateList)
	now := time.Now()
	for _, s := range fullStateList {
		if s.IsDirty {
			stats.Dirty++
		}
		if s.IsSaving {
			stats.Saving++
		}
		if now.Sub(s.LastActivity).Minutes() <= 45 {
			stats.Active++
		} else {
			stats.Dormant++
		}
	}
	return stats
}

// calculateProportionalStates downsamples the session list to displayCount
// blocks while preserving the mix of session kind and activity tier.
func (b *OpsBroadcaster) calculateProportionalStates(fullStateList []DraftSessionState, displayCount int) []DraftSessionState {
	total := len(fullStateList)
	if total == 0 {
		return []DraftSessionState{}
	}

	now := time.Now()
	// Representative timestamps for each activity tier to trigger the correct CSS on the frontend.
	timeTiers := map[string]time.Time{
		"ultra":   now,
		"bright":  now.Add(-10 * time.Minute),
		"medium":  now.Add(-20 * time.Minute),
		"light":   now.Add(-40 * time.Minute),
		"dormant": now.Add(-60 * time.Minute),
	}

	// 1. Group sessions into detailed buckets based on kind and activity tier.
	counts := make(map[string]int)
	for _, s := range fullStateList {
		minutesSince := now.Sub(s.LastActivity).Minutes()

		var tier string
		if minutesSince < 1 {
			tier = "ultra"
		} else if minutesSince <= 15 {
			tier = "bright"
		} else if minutesSince <= 30 {
			tier = "medium"
		} else if minutesSince <= 45 {
			tier = "light"
		} else {
			tier = "dormant"
		}

		var categoryPrefix string
		if s.IsSaving {
			categoryPrefix = "saving"
		} else if s.IsDirty {
			categoryPrefix = "dirty"
		} else {
			categoryPrefix = "clean"
		}
		counts[categoryPrefix+"_"+tier]++
	}

	// 2. Build the final list of displayCount states based on the calculated proportions.
	proportionalStates := make([]DraftSessionState, 0, displayCount)
	categoryOrder := []string{ // Define order for consistent display
		"saving_ultra", "saving_bright", "saving_medium", "saving_light", "saving_dormant",
		"dirty_ultra", "dirty_bright", "dirty_medium", "dirty_light", "dirty_dormant",
		"clean_ultra", "clean_bright", "clean_medium", "clean_light", "clean_dormant",
	}

	// Helper to create multiple copies of a state
	repeatState := func(num int, state DraftSessionState) {
		for i := 0; i < num; i++ {
			proportionalStates = append(proportionalStates, state)
		}
	}

	for _, category := range categoryOrder {
		categoryCount := counts[category]
		if categoryCount == 0 {
			continue
		}

		// Determine the representative state template for this category
		var template DraftSessionState
		switch {
		case strings.HasPrefix(category, "saving"):
			template.IsSaving = true
			template.IsDirty = true // A saving session has dirty work in flight
		case strings.HasPrefix(category, "dirty"):
			template.IsDirty = true
		default: // "clean"
		}

		tier := strings.Split(category, "_")[1]
		template.LastActivity = timeTiers[tier]

		// Calculate how many blocks this category gets and add them to the list
		numBlocks := int(math.Round((float64(categoryCount) / float64(total)) * float64(displayCount)))
		if numBlocks > 0 {
			repeatState(numBlocks, template)
		}
	}

	// 3. Sort and adjust for rounding errors to ensure a clean visual mix and exact count.
	sort.SliceStable(proportionalStates, func(i, j int) bool {
		if proportionalStates[i].IsSaving != proportionalStates[j].IsSaving {
			return proportionalStates[i].IsSaving
		}
		return proportionalStates[i].IsDirty
	})

	if len(proportionalStates) > displayCount {
		return proportionalStates[:displayCount]
	}
	for len(proportionalStates) < displayCount {
		// Pad with the most common "clean dormant" state if we're short due to rounding
		proportionalStates = append(proportionalStates, DraftSessionState{LastActivity: timeTiers["dormant"]})
	}

	return proportionalStates
}
