// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages tenant-scoped, session-specific SSE connections.
type SSEBroadcaster struct {
	tenantSessions map[string]map[string][]chan string // tenantId -> sessionId -> []channels
	mu             sync.Mutex
	logger         *logging.ChanneledLogger
}

var (
	globalBroadcaster *SSEBroadcaster
	once              sync.Once
)

// NewSSEBroadcaster creates the singleton SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	once.Do(func() {
		globalBroadcaster = &SSEBroadcaster{
			tenantSessions: make(map[string]map[string][]chan string),
			logger:         logger,
		}
	})
	return globalBroadcaster
}

// AddClientWithSession registers a new SSE client with tenant and session isolation.
func (b *SSEBroadcaster) AddClientWithSession(tenantID, sessionID string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tenantSessions[tenantID] == nil {
		b.tenantSessions[tenantID] = make(map[string][]chan string)
	}

	if b.tenantSessions[tenantID][sessionID] == nil {
		b.tenantSessions[tenantID][sessionID] = make([]chan string, 0)
	}
	b.tenantSessions[tenantID][sessionID] = append(b.tenantSessions[tenantID][sessionID], ch)

	b.logger.Ops().Debug("SSE client registered", "tenantId", tenantID, "sessionId", sessionID)
	return ch
}

// RemoveClientWithSession removes an SSE client with tenant and session context.
func (b *SSEBroadcaster) RemoveClientWithSession(ch chan string, tenantID, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantSessions, exists := b.tenantSessions[tenantID]; exists {
		if sessionClients, exists := tenantSessions[sessionID]; exists {
			newClients := make([]chan string, 0, len(sessionClients)-1)
			for _, client := range sessionClients {
				if client != ch {
					newClients = append(newClients, client)
				}
			}
			tenantSessions[sessionID] = newClients

			if len(tenantSessions[sessionID]) == 0 {
				delete(tenantSessions, sessionID)
			}
		}

		if len(tenantSessions) == 0 {
			delete(b.tenantSessions, tenantID)
		}
	}
	b.logger.Ops().Debug("SSE client unregistered", "tenantId", tenantID, "sessionId", sessionID)
}

// GetSessionConnectionCount returns the connection count for a specific tenant session.
func (b *SSEBroadcaster) GetSessionConnectionCount(tenantID, sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantSessions, exists := b.tenantSessions[tenantID]; exists {
		if sessionClients, exists := tenantSessions[sessionID]; exists {
			return len(sessionClients)
		}
	}
	return 0
}

// BroadcastSaveReport pushes a save report to the session that ran the save.
func (b *SSEBroadcaster) BroadcastSaveReport(tenantID, sessionID string, event SaveReportEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Ops().Error("Panic recovered in BroadcastSaveReport", "error", r, "tenantId", tenantID, "sessionId", sessionID)
		}
	}()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Ops().Error("Failed to marshal save report", "error", err, "tenantId", tenantID, "sessionId", sessionID)
		return
	}
	message := fmt.Sprintf("event: schedule_saved\ndata: %s\n\n", data)

	b.logger.Ops().Debug("Broadcasting save report", "message", strings.ReplaceAll(message, "\n", "\\n"), "tenantId", tenantID, "sessionId", sessionID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantSessions, exists := b.tenantSessions[tenantID]; exists {
		if sessionClients, exists := tenantSessions[sessionID]; exists {
			for _, ch := range sessionClients {
				select {
				case ch <- message:
				default:
					b.logger.Ops().Warn("SSE channel full, message dropped", "tenantId", tenantID, "sessionId", sessionID)
				}
			}
		}
	}
}

// BroadcastOrderEvent pushes an order lifecycle change to every session of a tenant.
func (b *SSEBroadcaster) BroadcastOrderEvent(tenantID string, event OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Ops().Error("Failed to marshal order event", "error", err, "tenantId", tenantID)
		return
	}
	b.broadcastToTenant(tenantID, fmt.Sprintf("event: order_updated\ndata: %s\n\n", data))
}

// BroadcastCatalogEvent pushes a catalog content change to every session of a tenant.
func (b *SSEBroadcaster) BroadcastCatalogEvent(tenantID string, event CatalogEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Ops().Error("Failed to marshal catalog event", "error", err, "tenantId", tenantID)
		return
	}
	b.broadcastToTenant(tenantID, fmt.Sprintf("event: catalog_updated\ndata: %s\n\n", data))
}

// broadcastToTenant fans a message out to every connected session of a tenant.
func (b *SSEBroadcaster) broadcastToTenant(tenantID, message string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Ops().Error("Panic recovered in broadcastToTenant", "error", r, "tenantId", tenantID)
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantSessions, exists := b.tenantSessions[tenantID]; exists {
		for sessionID, sessionClients := range tenantSessions {
			for _, ch := range sessionClients {
				select {
				case ch <- message:
				default:
					b.logger.Ops().Warn("SSE channel full, message dropped", "tenantId", tenantID, "sessionId", sessionID)
				}
			}
		}
	}
}

// HasActiveSessions checks if any dashboard sessions are connected for a tenant.
func (b *SSEBroadcaster) HasActiveSessions(tenantID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tenantSessions, exists := b.tenantSessions[tenantID]; exists {
		return len(tenantSessions) > 0
	}
	return false
}
