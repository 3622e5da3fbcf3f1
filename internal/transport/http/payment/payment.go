package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	CompletePayment(ctx context.Context, req ordersvc.CompletePaymentRequest) (*order.Order, error)
}

type request struct {
	GatewayOrderID   string                `json:"gatewayOrderId"`
	GatewayPaymentID string                `json:"gatewayPaymentId"`
	Signature        string                `json:"signature"`
	UserID           string                `json:"userId"`
	UserEmail        string                `json:"userEmail"`
	UserName         string                `json:"userName"`
	Items            []order.Item          `json:"items"`
	ShippingAddress  order.ShippingAddress `json:"shippingAddress"`
	TotalAmount      float64               `json:"totalAmount"`
	Currency         string                `json:"currency"`
}

type response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

// CompletePayment verifies the payment callback and persists the order.
// Idempotent on the gateway payment id.
func CompletePayment(w http.ResponseWriter, r *http.Request, service service) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to decode request body")
		slog.Error("Error decoding payment request", "error", err)

		return
	}

	stored, err := service.CompletePayment(r.Context(), ordersvc.CompletePaymentRequest{
		GatewayOrderID:  req.GatewayOrderID,
		PaymentID:       req.GatewayPaymentID,
		Signature:       req.Signature,
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		UserName:        req.UserName,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, razorpay.ErrInvalidSignature):
			respond.Error(w, http.StatusBadRequest, "Invalid payment signature")
		case errors.Is(err, ordersvc.ErrValidation):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			respond.Error(w, http.StatusInternalServerError, "Failed to save order")
			slog.Error("Error completing payment", "error", err)
		}

		return
	}

	respond.JSON(w, http.StatusOK, response{
		Success: true,
		Message: "Order saved successfully",
		Order:   stored,
	})
}
