package handlers

import (
	"crypto/rand"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"storefront/internal/models"
)

const orderIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newOrderID builds the human-readable order identifier: the current
// millisecond timestamp and a 6 character random suffix, both base36,
// uppercased. Example: ORD-MEYQ1QZC-K4D2XA.
func newOrderID() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = orderIDAlphabet[int(b)%len(orderIDAlphabet)]
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper(fmt.Sprintf("ORD-%s-%s", timestamp, suffix)), nil
}

// amountMinorUnits converts a decimal amount to paise for the gateway.
func amountMinorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}

func moneyEquals(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

// validateOrderTotals checks the client-computed amounts against the
// submitted line items instead of trusting them blindly: the subtotal must
// match the item prices and the total must equal subtotal plus tax.
func validateOrderTotals(items []orderItemRequest, subtotal, tax, total float64) error {
	var itemSum float64
	for _, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("quantity for %s must be at least 1", item.ProductID)
		}
		if item.Price < 0 {
			return fmt.Errorf("price for %s must not be negative", item.ProductID)
		}
		itemSum += item.Price * float64(item.Quantity)
	}

	if !moneyEquals(itemSum, subtotal) {
		return fmt.Errorf("subtotal %.2f does not match item prices %.2f", subtotal, itemSum)
	}
	if !moneyEquals(subtotal+tax, total) {
		return fmt.Errorf("total %.2f must equal subtotal plus tax %.2f", total, subtotal+tax)
	}
	return nil
}

func buildOrder(req createOrderRequest, orderID, razorpayOrderID string, now time.Time) models.Order {
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: strings.TrimSpace(item.ProductName),
			Quantity:    item.Quantity,
			Price:       item.Price,
			Image:       strings.TrimSpace(item.Image),
		})
	}

	return models.Order{
		OrderID:         orderID,
		RazorpayOrderID: razorpayOrderID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerMobile:  strings.TrimSpace(req.CustomerMobile),
		CustomerAddress: models.OrderAddress{
			Street:     strings.TrimSpace(req.CustomerAddress.Street),
			City:       strings.TrimSpace(req.CustomerAddress.City),
			PostalCode: strings.TrimSpace(req.CustomerAddress.PostalCode),
		},
		Items:         items,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Total:         req.Total,
		PaymentStatus: models.PaymentPending,
		OrderStatus:   models.OrderPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// paymentCapturedUpdate is the single mutation both reconciliation paths
// apply on a confirmed payment. It only sets fields, so delivering it any
// number of times, in any order relative to the other path, converges on
// the same success/confirmed state.
func paymentCapturedUpdate(paymentID, signature string, now time.Time) bson.M {
	set := bson.M{
		"razorpayPaymentId": paymentID,
		"paymentStatus":     models.PaymentSuccess,
		"orderStatus":       models.OrderConfirmed,
		"updatedAt":         now,
	}
	if signature != "" {
		set["razorpaySignature"] = signature
	}
	return bson.M{"$set": set}
}

// paymentFailedUpdate marks the payment failed and leaves orderStatus
// untouched.
func paymentFailedUpdate(now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentFailed,
		"updatedAt":     now,
	}}
}
