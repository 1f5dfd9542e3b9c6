package catalog

import "testing"

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderPending, OrderPreparing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderReady, false},
		{OrderPending, OrderDelivered, false},
		{OrderPending, OrderPending, false},
		{OrderPreparing, OrderReady, true},
		{OrderPreparing, OrderCancelled, true},
		{OrderPreparing, OrderDelivered, false},
		{OrderPreparing, OrderPending, false},
		{OrderReady, OrderDelivered, true},
		{OrderReady, OrderCancelled, true},
		{OrderReady, OrderPreparing, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderCancelled, false},
		{"burnt", OrderPending, false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrder(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionOrder(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{PaymentUnpaid, PaymentPaid, true},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentUnpaid, PaymentRefunded, false},
		{PaymentPaid, PaymentUnpaid, false},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentRefunded, PaymentUnpaid, false},
		{PaymentUnpaid, PaymentUnpaid, false},
	}
	for _, tc := range cases {
		if got := CanTransitionPayment(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionPayment(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidStatuses(t *testing.T) {
	for _, s := range []string{OrderPending, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled} {
		if !ValidOrderStatus(s) {
			t.Errorf("ValidOrderStatus(%q) = false", s)
		}
	}
	if ValidOrderStatus("burnt") || ValidOrderStatus("") {
		t.Error("unknown order statuses must be invalid")
	}

	for _, s := range []string{PaymentUnpaid, PaymentPaid, PaymentRefunded} {
		if !ValidPaymentStatus(s) {
			t.Errorf("ValidPaymentStatus(%q) = false", s)
		}
	}
	if ValidPaymentStatus("iou") || ValidPaymentStatus("") {
		t.Error("unknown payment statuses must be invalid")
	}
}
