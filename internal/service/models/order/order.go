package order

import (
	"time"

	"github.com/kikorobot/storefront/internal/service/models/currency"
	"github.com/kikorobot/storefront/internal/service/models/status"
)

// Order represents a paid storefront order.
//
// ID is the internal identifier assigned at creation. GatewayOrderID and
// PaymentID are the payment provider's identifiers; PaymentID is unique
// across all orders and is the idempotency key for creation.
type Order struct {
	ID              string            `json:"id"`
	GatewayOrderID  string            `json:"orderId"`
	PaymentID       string            `json:"paymentId"`
	UserID          string            `json:"userId"`
	UserEmail       string            `json:"userEmail"`
	UserName        string            `json:"userName"`
	Items           []Item            `json:"items"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
	TotalAmount     float64           `json:"totalAmount"`
	Currency        currency.Currency `json:"currency"`
	Status          status.Status     `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Item is a single order line. Price is in major currency units.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ShippingAddress holds the delivery details collected at checkout.
// All fields are required; the checkout form enforces that client-side.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}
