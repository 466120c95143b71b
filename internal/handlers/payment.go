package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/gateway"
	"storefront/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type orderItemRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

type orderAddressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
}

type createOrderRequest struct {
	CustomerName    string              `json:"customerName" binding:"required"`
	CustomerMobile  string              `json:"customerMobile" binding:"required"`
	CustomerAddress orderAddressRequest `json:"customerAddress" binding:"required"`
	Items           []orderItemRequest  `json:"items" binding:"required,min=1,dive"`
	Subtotal        float64             `json:"subtotal"`
	Tax             float64             `json:"tax"`
	Total           float64             `json:"total" binding:"required"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

/* =========================
   ORDER INTAKE
========================= */

// CreateOrder registers an order with the gateway and persists the local
// pending record. The local write happens only after the gateway call
// succeeds: a gateway failure leaves no trace.
func CreateOrder(db *mongo.Database, gw gateway.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/create-order"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := validateOrderTotals(req.Items, req.Subtotal, req.Tax, req.Total); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if gw == nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "payment gateway is not configured")
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		orderID, err := newOrderID()
		if err != nil {
			log.Println("[PAYMENT] [ERROR] order id generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "order id generation failed")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
		defer cancel()

		gatewayOrder, err := gw.CreateOrder(ctx, amountMinorUnits(req.Total), "INR", orderID, map[string]string{
			"customerName":   strings.TrimSpace(req.CustomerName),
			"customerMobile": strings.TrimSpace(req.CustomerMobile),
		})
		if err != nil {
			log.Println("[PAYMENT] [ERROR] gateway order creation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "failed to create order")
			return
		}

		order := buildOrder(req, orderID, gatewayOrder.ID, time.Now())
		if _, err := db.Collection("orders").InsertOne(ctx, order); err != nil {
			log.Println("[PAYMENT] [ERROR] order insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[PAYMENT] [INFO] order created:", order.OrderID)
		c.JSON(http.StatusCreated, gin.H{
			"success":  true,
			"orderId":  gatewayOrder.ID,
			"amount":   gatewayOrder.Amount,
			"currency": gatewayOrder.Currency,
			"orderDetails": gin.H{
				"orderId":      order.OrderID,
				"customerName": order.CustomerName,
			},
		})
	}
}

/* =========================
   SYNCHRONOUS VERIFICATION
========================= */

// VerifyPayment checks the signature the client brings back from checkout
// and confirms the order on a match. A mismatch marks the payment failed
// best-effort before returning the signature error.
func VerifyPayment(db *mongo.Database, keySecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/verify-payment"
		defer handlePanic(c, route)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "missing payment verification parameters")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		expected := gateway.PaymentSignature(keySecret, req.RazorpayOrderID, req.RazorpayPaymentID)
		if !gateway.VerifySignature(expected, req.RazorpaySignature) {
			// Record the failed attempt; a write error here must not
			// mask the signature failure.
			res, err := db.Collection("orders").UpdateOne(ctx,
				bson.M{"razorpayOrderId": req.RazorpayOrderID},
				paymentFailedUpdate(time.Now()),
			)
			if err != nil {
				log.Println("[PAYMENT] [ERROR] marking payment failed:", err)
			} else if res.MatchedCount == 0 {
				log.Println("[PAYMENT] [WARN] failed payment for unknown order:", req.RazorpayOrderID)
			}
			respondWithError(c, http.StatusBadRequest, route, "invalid payment signature")
			return
		}

		var order models.Order
		err := db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"razorpayOrderId": req.RazorpayOrderID},
			paymentCapturedUpdate(req.RazorpayPaymentID, req.RazorpaySignature, time.Now()),
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			log.Println("[PAYMENT] [ERROR] payment verification update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[PAYMENT] [INFO] payment verified for order:", order.OrderID)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "payment verified",
			"orderId": order.OrderID,
			"order":   order,
		})
	}
}

/* =========================
   WEBHOOK RECONCILIATION
========================= */

// HandleWebhook reconciles asynchronous gateway events. Updates are plain
// field sets keyed by the gateway order id, so re-delivery before, after,
// or instead of the synchronous path converges on the same state. Unknown
// events are acknowledged so the gateway stops retrying them.
func HandleWebhook(db *mongo.Database, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/webhook"
		defer handlePanic(c, route)

		body, err := c.GetRawData()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "unreadable body")
			return
		}

		if webhookSecret != "" {
			expected := gateway.WebhookSignature(webhookSecret, body)
			if !gateway.VerifySignature(expected, c.GetHeader("X-Razorpay-Signature")) {
				respondWithError(c, http.StatusBadRequest, route, "invalid webhook signature")
				return
			}
		}

		var event webhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid webhook payload")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		entity := event.Payload.Payment.Entity
		switch event.Event {
		case "payment.captured":
			_, err = db.Collection("orders").UpdateOne(ctx,
				bson.M{"razorpayOrderId": entity.OrderID},
				paymentCapturedUpdate(entity.ID, "", time.Now()),
			)
			if err == nil {
				log.Println("[WEBHOOK] [INFO] payment captured:", entity.ID)
			}
		case "payment.failed":
			_, err = db.Collection("orders").UpdateOne(ctx,
				bson.M{"razorpayOrderId": entity.OrderID},
				paymentFailedUpdate(time.Now()),
			)
			if err == nil {
				log.Println("[WEBHOOK] [INFO] payment failed:", entity.ID)
			}
		default:
			// Forward compatibility: never fail on event types added
			// by the gateway later.
			log.Println("[WEBHOOK] [INFO] unhandled event:", event.Event)
		}

		if err != nil {
			log.Println("[WEBHOOK] [ERROR] event processing failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "webhook processing failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

/* =========================
   ORDER LOOKUP
========================= */

// GetOrder matches either the local order id or the gateway order id.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payment/order/:orderId"

		orderID := strings.TrimSpace(c.Param("orderId"))
		if orderID == "" {
			respondWithError(c, http.StatusBadRequest, route, "orderId is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{
			"$or": []bson.M{
				{"orderId": orderID},
				{"razorpayOrderId": orderID},
			},
		}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			log.Println("[PAYMENT] [ERROR] order lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// GetOrders lists all orders, newest first.
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payment/orders"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] order list failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			log.Println("[PAYMENT] [ERROR] order list decode failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(orders),
			"orders":  orders,
		})
	}
}
