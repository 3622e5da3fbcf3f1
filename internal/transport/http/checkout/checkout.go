package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	InitiateCheckout(ctx context.Context, amount float64, currencyCode, receipt string, notes map[string]interface{}) (*razorpay.Order, error)
}

type request struct {
	Amount   float64                `json:"amount"`
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Notes    map[string]interface{} `json:"notes"`
}

type response struct {
	Success bool `json:"success"`
	*razorpay.Order
}

// InitiateCheckout mints a gateway order and returns the handle the browser
// needs to open the payment widget.
func InitiateCheckout(w http.ResponseWriter, r *http.Request, service service) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to decode request body")
		slog.Error("Error decoding checkout request", "error", err)

		return
	}

	gatewayOrder, err := service.InitiateCheckout(r.Context(), req.Amount, req.Currency, req.Receipt, req.Notes)
	if err != nil {
		if errors.Is(err, ordersvc.ErrValidation) {
			respond.Error(w, http.StatusBadRequest, "Amount is required")

			return
		}

		respond.Error(w, http.StatusInternalServerError, "Failed to create order")
		slog.Error("Error creating gateway order", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, response{
		Success: true,
		Order:   gatewayOrder,
	})
}
