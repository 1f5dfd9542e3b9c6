// Package messaging defines the event payloads pushed to dashboard clients.
package messaging

import "time"

// SaveReportEvent summarizes one completed schedule save for the session
// that initiated it. Exactly one of these is pushed per save call.
type SaveReportEvent struct {
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"` // "success", "partial" or "noop"
	Message   string    `json:"message"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	FailedIDs []string  `json:"failedIds,omitempty"`
	At        time.Time `json:"at"`
}

// OrderEvent notifies dashboard clients of an order lifecycle change.
type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	At            time.Time `json:"at"`
}

// CatalogEvent notifies dashboard clients that catalog content changed.
type CatalogEvent struct {
	Kind   string    `json:"kind"` // "product", "category" or "special"
	ID     string    `json:"id"`
	Action string    `json:"action"` // "created", "updated" or "deleted"
	At     time.Time `json:"at"`
}
