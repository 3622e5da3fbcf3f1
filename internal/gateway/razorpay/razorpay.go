package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/kikorobot/storefront/internal/service/models/currency"
)

var (
	// ErrGateway signals that the payment provider failed to mint an order.
	ErrGateway = errors.New("payment gateway request failed")

	// ErrInvalidSignature signals that a payment callback did not carry a
	// signature produced with our key secret. Security-relevant rejection.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrMissingCredentials signals absent gateway configuration.
	ErrMissingCredentials = errors.New("razorpay key id and key secret are required")
)

// Gateway wraps the Razorpay API: mints provider-side orders and verifies
// payment callback signatures. The key secret never leaves this package.
type Gateway struct {
	keyID     string
	keySecret string
	client    *razorpay.Client
}

// Order is the provider-side order handle returned to the browser so it can
// open the payment widget. Amount is in the smallest currency unit.
type Order struct {
	GatewayOrderID string            `json:"orderId"`
	Amount         int64             `json:"amount"`
	Currency       currency.Currency `json:"currency"`
	Key            string            `json:"key"`
}

// NewGateway creates a gateway adapter. Fails fast when credentials are absent.
func NewGateway(keyID, keySecret string) (*Gateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, ErrMissingCredentials
	}

	return &Gateway{
		keyID:     keyID,
		keySecret: keySecret,
		client:    razorpay.NewClient(keyID, keySecret),
	}, nil
}

// CreateOrder mints a provider-side order for the given amount in major
// currency units.
func (g *Gateway) CreateOrder(
	ctx context.Context,
	amount float64,
	cur currency.Currency,
	receipt string,
	notes map[string]interface{},
) (*Order, error) {
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	}
	if notes == nil {
		notes = map[string]interface{}{}
	}

	amountMinor := toMinorUnits(amount)

	data := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        cur.String(),
		"receipt":         receipt,
		"notes":           notes,
		"payment_capture": 1,
	}

	resp, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	orderID, ok := resp["id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: response missing order id", ErrGateway)
	}

	return &Order{
		GatewayOrderID: orderID,
		Amount:         amountMinor,
		Currency:       cur,
		Key:            g.keyID,
	}, nil
}

// toMinorUnits converts a major-unit amount to the gateway's smallest
// currency unit. Always multiplies by 100; wrong for zero- and three-decimal
// currencies, kept for parity with the storefront's historical behavior.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// VerifySignature checks that signature equals the lowercase hex encoding of
// HMAC-SHA256(keySecret, gatewayOrderID + "|" + paymentID).
func (g *Gateway) VerifySignature(gatewayOrderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}
