package handlers

import (
	"reflect"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/models"
)

func TestNewOrderIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[A-Z0-9]+-[A-Z0-9]{6}$`)

	id, err := newOrderID()
	if err != nil {
		t.Fatalf("newOrderID returned error: %v", err)
	}
	if !pattern.MatchString(id) {
		t.Fatalf("order id %q does not match expected pattern", id)
	}
}

func TestNewOrderIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := newOrderID()
		if err != nil {
			t.Fatalf("newOrderID returned error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate order id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestAmountMinorUnits(t *testing.T) {
	tests := []struct {
		total float64
		want  int64
	}{
		{0, 0},
		{1, 100},
		{99.99, 9999},
		{10.5, 1050},
		{1234.56, 123456},
	}
	for _, tt := range tests {
		if got := amountMinorUnits(tt.total); got != tt.want {
			t.Fatalf("amountMinorUnits(%v) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestValidateOrderTotals(t *testing.T) {
	items := []orderItemRequest{
		{ProductID: "p1", Quantity: 2, Price: 100},
		{ProductID: "p2", Quantity: 1, Price: 50},
	}

	if err := validateOrderTotals(items, 250, 25, 275); err != nil {
		t.Fatalf("expected matching totals to pass, got %v", err)
	}
	if err := validateOrderTotals(items, 250, 25, 300); err == nil {
		t.Fatal("expected total != subtotal + tax to be rejected")
	}
	if err := validateOrderTotals(items, 200, 25, 225); err == nil {
		t.Fatal("expected subtotal mismatch with item prices to be rejected")
	}
	if err := validateOrderTotals([]orderItemRequest{{ProductID: "p1", Quantity: 0, Price: 10}}, 0, 0, 0); err == nil {
		t.Fatal("expected zero quantity to be rejected")
	}
}

func TestBuildOrderStartsPending(t *testing.T) {
	now := time.Now()
	order := buildOrder(createOrderRequest{
		CustomerName:   " Asha Rao ",
		CustomerMobile: "9876543210",
		CustomerAddress: orderAddressRequest{
			Street:     "14 Lake View Road",
			City:       "Pune",
			PostalCode: "411001",
		},
		Items:    []orderItemRequest{{ProductID: "p1", ProductName: "Scarf", Quantity: 2, Price: 100}},
		Subtotal: 200,
		Tax:      20,
		Total:    220,
	}, "ORD-TEST-ABC123", "order_gw1", now)

	if order.PaymentStatus != models.PaymentPending || order.OrderStatus != models.OrderPending {
		t.Fatalf("expected pending/pending, got %s/%s", order.PaymentStatus, order.OrderStatus)
	}
	if order.CustomerName != "Asha Rao" {
		t.Fatalf("expected customer name to be trimmed, got %q", order.CustomerName)
	}
	if order.RazorpayOrderID != "order_gw1" || order.OrderID != "ORD-TEST-ABC123" {
		t.Fatalf("unexpected ids: %q / %q", order.OrderID, order.RazorpayOrderID)
	}
	if order.RazorpayPaymentID != "" || order.RazorpaySignature != "" {
		t.Fatal("expected payment fields to be empty before reconciliation")
	}
}

func TestPaymentCapturedUpdateIdempotent(t *testing.T) {
	now := time.Unix(1700000000, 0)

	first := paymentCapturedUpdate("pay_1", "sig_1", now)
	second := paymentCapturedUpdate("pay_1", "sig_1", now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical update documents, got %v vs %v", first, second)
	}

	set := first["$set"].(bson.M)
	for key := range first {
		if key != "$set" {
			t.Fatalf("expected a pure $set update, found operator %s", key)
		}
	}
	if set["paymentStatus"] != models.PaymentSuccess || set["orderStatus"] != models.OrderConfirmed {
		t.Fatalf("expected success/confirmed, got %v/%v", set["paymentStatus"], set["orderStatus"])
	}
}

// Applying the synchronous confirmation and the webhook capture in either
// order must land on the same success/confirmed state.
func TestReconciliationOrderIndependence(t *testing.T) {
	now := time.Unix(1700000000, 0)
	sync := paymentCapturedUpdate("pay_1", "sig_1", now)["$set"].(bson.M)
	hook := paymentCapturedUpdate("pay_1", "", now)["$set"].(bson.M)

	apply := func(doc map[string]interface{}, sets ...bson.M) map[string]interface{} {
		for _, set := range sets {
			for key, value := range set {
				doc[key] = value
			}
		}
		return doc
	}

	syncFirst := apply(map[string]interface{}{"paymentStatus": models.PaymentPending, "orderStatus": models.OrderPending}, sync, hook)
	hookFirst := apply(map[string]interface{}{"paymentStatus": models.PaymentPending, "orderStatus": models.OrderPending}, hook, sync)

	for _, doc := range []map[string]interface{}{syncFirst, hookFirst} {
		if doc["paymentStatus"] != models.PaymentSuccess || doc["orderStatus"] != models.OrderConfirmed {
			t.Fatalf("expected success/confirmed, got %v/%v", doc["paymentStatus"], doc["orderStatus"])
		}
		if doc["razorpayPaymentId"] != "pay_1" {
			t.Fatalf("expected payment id pay_1, got %v", doc["razorpayPaymentId"])
		}
	}
}

func TestPaymentFailedUpdateLeavesOrderStatus(t *testing.T) {
	set := paymentFailedUpdate(time.Now())["$set"].(bson.M)

	if set["paymentStatus"] != models.PaymentFailed {
		t.Fatalf("expected failed payment status, got %v", set["paymentStatus"])
	}
	if _, ok := set["orderStatus"]; ok {
		t.Fatal("expected orderStatus to stay untouched on failure")
	}
}
