package catalog

import "time"

// Order lifecycle statuses. Delivered and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment statuses tracked independently of the kitchen lifecycle.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// orderTransitions maps each status to the statuses it may move to. The
// kitchen flow only ever advances one step, and any non-terminal order can be
// cancelled.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderDelivered, OrderCancelled},
	OrderDelivered: {},
	OrderCancelled: {},
}

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionOrder reports whether an order may move from one status to
// another.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether s is one of the known payment statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionPayment reports whether a payment status change is allowed:
// unpaid orders get paid, paid orders get refunded.
func CanTransitionPayment(from, to string) bool {
	switch {
	case from == PaymentUnpaid && to == PaymentPaid:
		return true
	case from == PaymentPaid && to == PaymentRefunded:
		return true
	}
	return false
}

type OrderNode struct {
	ID            string       `json:"id"`
	Number        string       `json:"number"`
	NodeType      string       `json:"nodeType"`
	CustomerID    *string      `json:"customerId,omitempty"`
	CustomerName  string       `json:"customerName"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"paymentStatus"`
	TotalCents    int64        `json:"totalCents"`
	Note          *string      `json:"note,omitempty"`
	Items         []*OrderItem `json:"items,omitempty"`
	Created       time.Time    `json:"created"`
	Changed       *time.Time   `json:"changed,omitempty"`
}

type OrderItem struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}
