package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/models/status"
)

const ordersFileName = "orders.json"

// FileOrderRepository persists orders as a single pretty-printed JSON array.
// Every read loads the whole collection and every write rewrites it, so all
// operations are serialized behind one mutex. Across processes the file is
// last-write-wins.
type FileOrderRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type option func(*FileOrderRepository)

// NewFileOrderRepository creates a repository storing orders in dir/orders.json.
func NewFileOrderRepository(dir string, opts ...option) *FileOrderRepository {
	r := &FileOrderRepository{
		path: filepath.Join(dir, ordersFileName),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithNow overrides the clock used for updatedAt refreshes.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNow(now func() time.Time) option {
	return func(r *FileOrderRepository) {
		r.now = now
	}
}

// load reads the full collection. A missing or empty file is an empty collection.
func (r *FileOrderRepository) load() ([]order.Order, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []order.Order{}, nil
		}

		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}

	if len(data) == 0 {
		return []order.Order{}, nil
	}

	var orders []order.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders file: %w", err)
	}

	return orders, nil
}

// save rewrites the full collection, creating the data directory on demand.
func (r *FileOrderRepository) save(orders []order.Order) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write orders file: %w", err)
	}

	return nil
}

// Insert appends the order to the collection.
func (r *FileOrderRepository) Insert(_ context.Context, o order.Order) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return order.Order{}, err
	}

	orders = append(orders, o)
	if err := r.save(orders); err != nil {
		return order.Order{}, err
	}

	return o, nil
}

// GetAll returns all orders in storage order.
func (r *FileOrderRepository) GetAll(_ context.Context) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// GetByID returns the order with the given internal id, or nil.
func (r *FileOrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(func(o order.Order) bool { return o.ID == id })
}

// GetByGatewayOrderID returns the order minted under the given gateway order id, or nil.
func (r *FileOrderRepository) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(func(o order.Order) bool { return o.GatewayOrderID == gatewayOrderID })
}

// GetByPaymentID returns the order created for the given payment id, or nil.
func (r *FileOrderRepository) GetByPaymentID(_ context.Context, paymentID string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(func(o order.Order) bool { return o.PaymentID == paymentID })
}

// GetByUserID returns the orders belonging to the given user, in storage order.
func (r *FileOrderRepository) GetByUserID(_ context.Context, userID string) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}

	result := make([]order.Order, 0)
	for _, o := range orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}

	return result, nil
}

// UpdateStatus replaces the status of the order with the given gateway order
// id and refreshes updatedAt. No-op when no order matches.
func (r *FileOrderRepository) UpdateStatus(_ context.Context, gatewayOrderID string, s status.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}

	for i := range orders {
		if orders[i].GatewayOrderID == gatewayOrderID {
			orders[i].Status = s
			orders[i].UpdatedAt = r.now()

			return r.save(orders)
		}
	}

	return nil
}

// Delete removes the order with the given gateway order id. No-op when no
// order matches.
func (r *FileOrderRepository) Delete(_ context.Context, gatewayOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}

	for i := range orders {
		if orders[i].GatewayOrderID == gatewayOrderID {
			orders = append(orders[:i], orders[i+1:]...)

			return r.save(orders)
		}
	}

	return nil
}

func (r *FileOrderRepository) find(match func(order.Order) bool) (*order.Order, error) {
	orders, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if match(orders[i]) {
			return &orders[i], nil
		}
	}

	return nil, nil
}
