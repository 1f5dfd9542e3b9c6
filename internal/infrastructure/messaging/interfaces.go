// Package messaging defines interfaces for real-time communication.
package messaging

// Broadcaster defines the interface for managing SSE client connections and broadcasting messages.
type Broadcaster interface {
	AddClientWithSession(tenantID, sessionID string) chan string
	RemoveClientWithSession(ch chan string, tenantID, sessionID string)
	GetSessionConnectionCount(tenantID, sessionID string) int
	BroadcastSaveReport(tenantID, sessionID string, event SaveReportEvent)
	BroadcastOrderEvent(tenantID string, event OrderEvent)
	BroadcastCatalogEvent(tenantID string, event CatalogEvent)
	HasActiveSessions(tenantID string) bool
}
