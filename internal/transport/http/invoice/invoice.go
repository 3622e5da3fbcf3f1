package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	"github.com/kikorobot/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	OrderByID(ctx context.Context, id string) (*order.Order, error)
}

// DownloadInvoice renders a plain-text invoice for the order as an attachment.
func DownloadInvoice(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")

	o, err := service.OrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ordersvc.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Order not found")

			return
		}

		respond.Error(w, http.StatusInternalServerError, "Failed to generate invoice")
		slog.Error("Error generating invoice", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice-"+orderID+".txt"))

	if _, err := w.Write([]byte(render(o))); err != nil {
		slog.Error("Error writing invoice", "order_id", orderID, "error", err)
	}
}

func render(o *order.Order) string {
	var b strings.Builder

	b.WriteString("KIKO ROBOT INVOICE\n")
	b.WriteString("==================\n")
	fmt.Fprintf(&b, "Invoice: INV-%s\n", o.ID)
	fmt.Fprintf(&b, "Order ID: %s\n", o.GatewayOrderID)
	fmt.Fprintf(&b, "Date: %s\n", o.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Customer: %s\n\n", o.UserName)

	b.WriteString("Items:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s x%d ($%.2f)\n", item.Name, item.Quantity, item.Price)
	}

	fmt.Fprintf(&b, "\nTotal: $%.2f %s\n\n", o.TotalAmount, o.Currency)
	b.WriteString("Thank you for your purchase!\n")

	return b.String()
}
