package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/kikorobot/storefront/internal/dal/postgres"
	"github.com/kikorobot/storefront/internal/service/models/currency"
	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/models/status"
)

var orderColumns = []string{
	"id",
	"gateway_order_id",
	"payment_id",
	"user_id",
	"user_email",
	"user_name",
	"items",
	"shipping_address",
	"total_amount",
	"currency",
	"status",
	"created_at",
	"updated_at",
}

// OrderDal represents the order row shape.
type OrderDal struct {
	Id              string
	GatewayOrderId  string
	PaymentId       string
	UserId          string
	UserEmail       string
	UserName        string
	Items           []byte
	ShippingAddress []byte
	TotalAmount     float64
	Currency        string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ToModel converts OrderDal to the service layer Order model.
func (d *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(d.Currency)
	if err != nil {
		return nil, err
	}

	st, err := status.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}

	var items []order.Item
	if err := json.Unmarshal(d.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	var addr order.ShippingAddress
	if err := json.Unmarshal(d.ShippingAddress, &addr); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}

	return &order.Order{
		ID:              d.Id,
		GatewayOrderID:  d.GatewayOrderId,
		PaymentID:       d.PaymentId,
		UserID:          d.UserId,
		UserEmail:       d.UserEmail,
		UserName:        d.UserName,
		Items:           items,
		ShippingAddress: addr,
		TotalAmount:     d.TotalAmount,
		Currency:        cur,
		Status:          st,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

// OrderDalFromModel converts the service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) (*OrderDal, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order items: %w", err)
	}

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}

	return &OrderDal{
		Id:              o.ID,
		GatewayOrderId:  o.GatewayOrderID,
		PaymentId:       o.PaymentID,
		UserId:          o.UserID,
		UserEmail:       o.UserEmail,
		UserName:        o.UserName,
		Items:           items,
		ShippingAddress: addr,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency.String(),
		Status:          o.Status.String(),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

// PostgresOrderRepository implements the order repository on Postgres.
type PostgresOrderRepository struct {
	client *postgres.Client
}

func NewPostgresOrderRepository(client *postgres.Client) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		client: client,
	}
}

// Insert stores the order.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	dal, err := OrderDalFromModel(&o)
	if err != nil {
		return order.Order{}, err
	}

	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(
			dal.Id,
			dal.GatewayOrderId,
			dal.PaymentId,
			dal.UserId,
			dal.UserEmail,
			dal.UserName,
			dal.Items,
			dal.ShippingAddress,
			dal.TotalAmount,
			dal.Currency,
			dal.Status,
			dal.CreatedAt,
			dal.UpdatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.client.Pool().Exec(ctx, query, args...); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// GetAll returns all orders in insertion order.
func (r *PostgresOrderRepository) GetAll(ctx context.Context) ([]order.Order, error) {
	return r.query(ctx, nil)
}

// GetByID returns the order with the given internal id, or nil.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.queryOne(ctx, sq.Eq{"id": id})
}

// GetByGatewayOrderID returns the order minted under the given gateway order id, or nil.
func (r *PostgresOrderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	return r.queryOne(ctx, sq.Eq{"gateway_order_id": gatewayOrderID})
}

// GetByPaymentID returns the order created for the given payment id, or nil.
func (r *PostgresOrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	return r.queryOne(ctx, sq.Eq{"payment_id": paymentID})
}

// GetByUserID returns the orders belonging to the given user.
func (r *PostgresOrderRepository) GetByUserID(ctx context.Context, userID string) ([]order.Order, error) {
	return r.query(ctx, sq.Eq{"user_id": userID})
}

// UpdateStatus replaces the status of the order with the given gateway order
// id and refreshes updated_at. No-op when no order matches.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, gatewayOrderID string, s status.Status) error {
	query, args, err := sq.Update("orders").
		Set("status", s.String()).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"gateway_order_id": gatewayOrderID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.client.Pool().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// Delete removes the order with the given gateway order id. No-op when no
// order matches.
func (r *PostgresOrderRepository) Delete(ctx context.Context, gatewayOrderID string) error {
	query, args, err := sq.Delete("orders").
		Where(sq.Eq{"gateway_order_id": gatewayOrderID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.client.Pool().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

func (r *PostgresOrderRepository) queryOne(ctx context.Context, where sq.Eq) (*order.Order, error) {
	orders, err := r.query(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	return &orders[0], nil
}

func (r *PostgresOrderRepository) query(ctx context.Context, where sq.Eq) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at ASC").
		PlaceholderFormat(sq.Dollar)
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []order.Order{}, nil
		}

		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]order.Order, 0)
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(
			&dal.Id,
			&dal.GatewayOrderId,
			&dal.PaymentId,
			&dal.UserId,
			&dal.UserEmail,
			&dal.UserName,
			&dal.Items,
			&dal.ShippingAddress,
			&dal.TotalAmount,
			&dal.Currency,
			&dal.Status,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		o, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}
