package userorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	"github.com/kikorobot/storefront/internal/transport/http/middleware/auth"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	UserOrders(ctx context.Context, userID string) ([]ordersvc.UserOrder, error)
}

type response struct {
	Success bool                 `json:"success"`
	Orders  []ordersvc.UserOrder `json:"orders"`
	Count   int                  `json:"count"`
}

// ListUserOrders returns the authenticated user's orders, newest first.
func ListUserOrders(w http.ResponseWriter, r *http.Request, service service) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")

		return
	}

	orders, err := service.UserOrders(r.Context(), userID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch orders")
		slog.Error("Error fetching user orders", "user_id", userID, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, response{
		Success: true,
		Orders:  orders,
		Count:   len(orders),
	})
}
