package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/gateway"
)

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range header {
		req.Header.Set(key, value)
	}
	c.Request = req

	handler(c)
	return recorder
}

const validOrderBody = `{
	"customerName": "Asha Rao",
	"customerMobile": "9876543210",
	"customerAddress": {"street": "14 Lake View Road", "city": "Pune", "postalCode": "411001"},
	"items": [{"productId": "p1", "productName": "Scarf", "quantity": 2, "price": 100}],
	"subtotal": 200,
	"tax": 20,
	"total": 220
}`

func TestCreateOrderGatewayNotConfigured(t *testing.T) {
	// A nil client is the degraded mode: the request is well-formed but
	// no gateway order, and therefore no local order, may be created.
	recorder := postJSON(t, CreateOrder(nil, nil), "/api/payment/create-order", validOrderBody, nil)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestCreateOrderMissingFields(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"customerName": "Asha Rao"}`,
		`{"customerName": "Asha Rao", "customerMobile": "9876543210", "customerAddress": {"street": "14 Lake View Road", "city": "Pune", "postalCode": "411001"}, "items": [], "total": 100}`,
	}
	for _, body := range bodies {
		recorder := postJSON(t, CreateOrder(nil, nil), "/api/payment/create-order", body, nil)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %s, got %d", body, recorder.Code)
		}
	}
}

func TestCreateOrderRejectsMismatchedTotals(t *testing.T) {
	body := strings.Replace(validOrderBody, `"total": 220`, `"total": 260`, 1)

	recorder := postJSON(t, CreateOrder(nil, nil), "/api/payment/create-order", body, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched total, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestVerifyPaymentMissingParameters(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"razorpay_order_id": "order_abc"}`,
		`{"razorpay_order_id": "order_abc", "razorpay_payment_id": "pay_xyz"}`,
	}
	for _, body := range bodies {
		recorder := postJSON(t, VerifyPayment(nil, "s3cr3t"), "/api/payment/verify-payment", body, nil)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %s, got %d", body, recorder.Code)
		}
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`

	recorder := postJSON(t, HandleWebhook(nil, "whs3cr3t"), "/api/payment/webhook", body, map[string]string{
		"X-Razorpay-Signature": "deadbeef",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad webhook signature, got %d", recorder.Code)
	}
}

func TestHandleWebhookAcceptsValidSignature(t *testing.T) {
	// Unknown events are acknowledged without touching any order, which
	// also means re-delivery of them can never fail.
	body := `{"event":"refund.created","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`
	signature := gateway.WebhookSignature("whs3cr3t", []byte(body))

	recorder := postJSON(t, HandleWebhook(nil, "whs3cr3t"), "/api/payment/webhook", body, map[string]string{
		"X-Razorpay-Signature": signature,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown event, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), `"success":true`) {
		t.Fatalf("expected success acknowledgment, got %s", recorder.Body.String())
	}
}

func TestHandleWebhookUnknownEventWithoutSecret(t *testing.T) {
	body := `{"event":"order.paid","payload":{}}`

	recorder := postJSON(t, HandleWebhook(nil, ""), "/api/payment/webhook", body, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestHandleWebhookRejectsMalformedPayload(t *testing.T) {
	recorder := postJSON(t, HandleWebhook(nil, ""), "/api/payment/webhook", "not json", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", recorder.Code)
	}
}
