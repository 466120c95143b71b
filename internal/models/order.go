package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment status values written by the reconciliation paths.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Fulfillment status values. Payment reconciliation only ever writes
// OrderConfirmed; the later states belong to fulfillment.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItem is a line item with name and unit price snapshotted at order time.
type OrderItem struct {
	ProductID   string  `bson:"productId" json:"productId"`
	ProductName string  `bson:"productName" json:"productName"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
}

// OrderAddress is the shipping address copied onto the order. Later edits
// to the user's address book must not touch a placed order.
type OrderAddress struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
}

// Order is the persisted order document. RazorpayPaymentID and
// RazorpaySignature stay empty until a payment attempt is reconciled.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID           string             `bson:"orderId" json:"orderId"`
	RazorpayOrderID   string             `bson:"razorpayOrderId" json:"razorpayOrderId"`
	RazorpayPaymentID string             `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `bson:"razorpaySignature,omitempty" json:"razorpaySignature,omitempty"`
	CustomerName      string             `bson:"customerName" json:"customerName"`
	CustomerMobile    string             `bson:"customerMobile" json:"customerMobile"`
	CustomerAddress   OrderAddress       `bson:"customerAddress" json:"customerAddress"`
	Items             []OrderItem        `bson:"items" json:"items"`
	Subtotal          float64            `bson:"subtotal" json:"subtotal"`
	Tax               float64            `bson:"tax" json:"tax"`
	Total             float64            `bson:"total" json:"total"`
	PaymentStatus     string             `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus       string             `bson:"orderStatus" json:"orderStatus"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
