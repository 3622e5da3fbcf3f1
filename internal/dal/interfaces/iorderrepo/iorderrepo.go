package iorderrepo

import (
	"context"

	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/models/status"
)

// IOrderRepository is the storage contract for orders. The repository is
// the sole writer of persisted order state.
//
// Lookups return (nil, nil) when no order matches. UpdateStatus and Delete
// are silent no-ops when no order matches the gateway order id.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	GetAll(ctx context.Context) ([]order.Order, error)
	GetByID(ctx context.Context, id string) (*order.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*order.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]order.Order, error)
	UpdateStatus(ctx context.Context, gatewayOrderID string, s status.Status) error
	Delete(ctx context.Context, gatewayOrderID string) error
}
