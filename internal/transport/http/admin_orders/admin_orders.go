package adminorders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	AllOrders(ctx context.Context) ([]order.Order, error)
	OrderByID(ctx context.Context, id string) (*order.Order, error)
	SetStatus(ctx context.Context, gatewayOrderID, statusValue string) error
	RemoveOrder(ctx context.Context, gatewayOrderID string) error
}

type listResponse struct {
	Success bool          `json:"success"`
	Orders  []order.Order `json:"orders"`
}

type orderResponse struct {
	Success bool         `json:"success"`
	Order   *order.Order `json:"order"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListOrders returns every order, newest first.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	orders, err := service.AllOrders(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch orders")
		slog.Error("Error fetching orders", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, listResponse{
		Success: true,
		Orders:  orders,
	})
}

// GetOrder returns a single order by internal or gateway order id.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")

	o, err := service.OrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ordersvc.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Order not found")

			return
		}

		respond.Error(w, http.StatusInternalServerError, "Failed to fetch order")
		slog.Error("Error fetching order", "order_id", orderID, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, orderResponse{
		Success: true,
		Order:   o,
	})
}

// UpdateOrderStatus replaces an order's status. Succeeds quietly when the
// order does not exist, matching the store contract.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to decode request body")
		slog.Error("Error decoding status update", "error", err)

		return
	}

	if err := service.SetStatus(r.Context(), orderID, req.Status); err != nil {
		if errors.Is(err, ordersvc.ErrValidation) {
			respond.Error(w, http.StatusBadRequest, "Unknown order status")

			return
		}

		respond.Error(w, http.StatusInternalServerError, "Failed to update order")
		slog.Error("Error updating order status", "order_id", orderID, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Order status updated",
	})
}

// DeleteOrder permanently removes an order. Succeeds quietly when the order
// does not exist.
func DeleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")

	if err := service.RemoveOrder(r.Context(), orderID); err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to delete order")
		slog.Error("Error deleting order", "order_id", orderID, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Order deleted",
	})
}
