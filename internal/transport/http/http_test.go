package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	"github.com/kikorobot/storefront/internal/service/models/currency"
	"github.com/kikorobot/storefront/internal/service/models/notification"
	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/models/status"
	"github.com/kikorobot/storefront/internal/service/services/notifysvc"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
)

// fakeOrderService serves canned orders and records mutations.
type fakeOrderService struct {
	orders        map[string]order.Order
	checkoutErr   error
	completeErr   error
	statusUpdates []string
	deleted       []string
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{orders: map[string]order.Order{}}
}

func (s *fakeOrderService) add(o order.Order) {
	s.orders[o.ID] = o
}

func (s *fakeOrderService) InitiateCheckout(_ context.Context, amount float64, currencyCode, _ string, _ map[string]interface{}) (*razorpay.Order, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	if amount <= 0 {
		return nil, ordersvc.ErrValidation
	}

	cur, err := currency.ParseCurrency(currencyCode)
	if err != nil {
		return nil, ordersvc.ErrValidation
	}

	return &razorpay.Order{
		GatewayOrderID: "order_minted",
		Amount:         int64(amount * 100),
		Currency:       cur,
		Key:            "rzp_test_key",
	}, nil
}

func (s *fakeOrderService) CompletePayment(_ context.Context, req ordersvc.CompletePaymentRequest) (*order.Order, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}

	o := order.Order{
		ID:             "id-1",
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		UserID:         req.UserID,
		TotalAmount:    req.TotalAmount,
		Currency:       currency.CurrencyUSD,
		Status:         status.StatusPending,
	}
	s.add(o)

	return &o, nil
}

func (s *fakeOrderService) UserOrders(_ context.Context, userID string) ([]ordersvc.UserOrder, error) {
	result := make([]ordersvc.UserOrder, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, ordersvc.UserOrder{Order: o, StatusText: o.Status.Label()})
		}
	}

	return result, nil
}

func (s *fakeOrderService) AllOrders(_ context.Context) ([]order.Order, error) {
	result := make([]order.Order, 0)
	for _, o := range s.orders {
		result = append(result, o)
	}

	return result, nil
}

func (s *fakeOrderService) OrderByID(_ context.Context, id string) (*order.Order, error) {
	if o, ok := s.orders[id]; ok {
		return &o, nil
	}
	for _, o := range s.orders {
		if o.GatewayOrderID == id {
			return &o, nil
		}
	}

	return nil, ordersvc.ErrNotFound
}

func (s *fakeOrderService) SetStatus(_ context.Context, gatewayOrderID, statusValue string) error {
	if _, err := status.ParseStatus(statusValue); err != nil {
		return ordersvc.ErrValidation
	}

	s.statusUpdates = append(s.statusUpdates, gatewayOrderID+":"+statusValue)

	return nil
}

func (s *fakeOrderService) RemoveOrder(_ context.Context, gatewayOrderID string) error {
	s.deleted = append(s.deleted, gatewayOrderID)

	return nil
}

// fakeNotifyService validates like the real dispatcher and can simulate a
// provider outage.
type fakeNotifyService struct {
	providerDown bool
	contacts     []notification.Contact
	feedback     []notification.Feedback
}

func (s *fakeNotifyService) SendContact(_ context.Context, c notification.Contact) error {
	if c.Name == "" || c.Email == "" || c.Message == "" {
		return notifysvc.ErrValidation
	}
	if s.providerDown {
		return notifysvc.ErrNotification
	}

	s.contacts = append(s.contacts, c)

	return nil
}

func (s *fakeNotifyService) SendFeedback(_ context.Context, f notification.Feedback) error {
	if f.Feature == "" || f.Description == "" {
		return notifysvc.ErrValidation
	}
	if s.providerDown {
		return notifysvc.ErrNotification
	}

	s.feedback = append(s.feedback, f)

	return nil
}

// authAs injects a session for the given subject; an empty subject leaves
// the request anonymous.
func authAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				claims := &clerk.SessionClaims{
					RegisteredClaims: clerk.RegisteredClaims{Subject: userID},
				}
				r = r.WithContext(clerk.ContextWithSessionClaims(r.Context(), claims))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func newTransport(orderSvc *fakeOrderService, notify *fakeNotifyService, userID string) *HTTPTransport {
	transport := NewHTTPTransport(orderSvc, notify, authAs(userID))
	transport.RegisterRoutes()

	return transport
}

func do(t *testing.T, transport *HTTPTransport, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	transport.Router().ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}

	return result
}

func TestInitiateCheckoutEndpoint(t *testing.T) {
	t.Run("mints a gateway order", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/orders/gateway", `{"amount":4999,"currency":"USD"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode(t, rec)
		if body["success"] != true {
			t.Fatalf("expected success, got %v", body)
		}
		if body["orderId"] != "order_minted" {
			t.Fatalf("expected gateway order id, got %v", body)
		}
		if body["amount"] != float64(499900) {
			t.Fatalf("expected minor-unit amount, got %v", body["amount"])
		}
	})

	t.Run("missing amount -> 400", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/orders/gateway", `{"currency":"USD"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Amount is required" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("malformed body -> 400", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/orders/gateway", `{"amount":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCompletePaymentEndpoint(t *testing.T) {
	const payload = `{
		"gatewayOrderId": "order_1",
		"gatewayPaymentId": "pay_1",
		"signature": "sig",
		"userId": "u1",
		"totalAmount": 4999,
		"currency": "USD"
	}`

	t.Run("saves the order", func(t *testing.T) {
		svc := newFakeOrderService()
		transport := newTransport(svc, &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/orders", payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode(t, rec)
		if body["message"] != "Order saved successfully" {
			t.Fatalf("unexpected body: %v", body)
		}
		if len(svc.orders) != 1 {
			t.Fatalf("expected 1 stored order, got %d", len(svc.orders))
		}
	})

	t.Run("invalid signature -> 400", func(t *testing.T) {
		svc := newFakeOrderService()
		svc.completeErr = razorpay.ErrInvalidSignature
		transport := newTransport(svc, &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/orders", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Invalid payment signature" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})
}

func TestListUserOrdersEndpoint(t *testing.T) {
	t.Run("anonymous -> 401", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodGet, "/api/orders/mine", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Unauthorized" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("authenticated -> own orders with count", func(t *testing.T) {
		svc := newFakeOrderService()
		svc.add(order.Order{ID: "id-1", GatewayOrderID: "order_1", UserID: "u1", Status: status.StatusPending})
		svc.add(order.Order{ID: "id-2", GatewayOrderID: "order_2", UserID: "u2", Status: status.StatusPending})
		transport := newTransport(svc, &fakeNotifyService{}, "u1")

		rec := do(t, transport, http.MethodGet, "/api/orders/mine", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decode(t, rec)
		if body["count"] != float64(1) {
			t.Fatalf("expected count 1, got %v", body["count"])
		}
		orders := body["orders"].([]any)
		first := orders[0].(map[string]any)
		if first["statusText"] != "Pending" {
			t.Fatalf("expected status label, got %v", first)
		}
	})
}

func TestAdminOrdersEndpoints(t *testing.T) {
	t.Run("list returns all orders", func(t *testing.T) {
		svc := newFakeOrderService()
		svc.add(order.Order{ID: "id-1", GatewayOrderID: "order_1", UserID: "u1"})
		svc.add(order.Order{ID: "id-2", GatewayOrderID: "order_2", UserID: "u2"})
		transport := newTransport(svc, &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodGet, "/api/admin/orders/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := len(decode(t, rec)["orders"].([]any)); got != 2 {
			t.Fatalf("expected 2 orders, got %d", got)
		}
	})

	t.Run("get by gateway order id", func(t *testing.T) {
		svc := newFakeOrderService()
		svc.add(order.Order{ID: "id-1", GatewayOrderID: "order_1", UserID: "u1"})
		transport := newTransport(svc, &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodGet, "/api/admin/orders/order_1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("get missing -> 404", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodGet, "/api/admin/orders/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Order not found" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("update status", func(t *testing.T) {
		svc := newFakeOrderService()
		transport := newTransport(svc, &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodPut, "/api/admin/orders/order_1", `{"status":"shipped"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(svc.statusUpdates) != 1 || svc.statusUpdates[0] != "order_1:shipped" {
			t.Fatalf("unexpected updates: %v", svc.statusUpdates)
		}
	})

	t.Run("unknown status -> 400", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodPut, "/api/admin/orders/order_1", `{"status":"misplaced"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Unknown order status" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("delete succeeds quietly", func(t *testing.T) {
		svc := newFakeOrderService()
		transport := newTransport(svc, &fakeNotifyService{}, "admin")

		rec := do(t, transport, http.MethodDelete, "/api/admin/orders/order_1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(svc.deleted) != 1 || svc.deleted[0] != "order_1" {
			t.Fatalf("unexpected deletions: %v", svc.deleted)
		}
	})
}

func TestContactEndpoint(t *testing.T) {
	t.Run("missing fields -> 400", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodPost, "/api/contact", `{"name":"Ada"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("valid submission -> 200", func(t *testing.T) {
		notify := &fakeNotifyService{}
		transport := newTransport(newFakeOrderService(), notify, "")

		rec := do(t, transport, http.MethodPost, "/api/contact",
			`{"name":"Ada","email":"ada@example.com","message":"Hi"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(notify.contacts) != 1 {
			t.Fatalf("expected 1 contact, got %d", len(notify.contacts))
		}
	})
}

func TestFeedbackEndpoint(t *testing.T) {
	t.Run("provider down -> 500 with saved-locally message", func(t *testing.T) {
		notify := &fakeNotifyService{providerDown: true}
		transport := newTransport(newFakeOrderService(), notify, "")

		rec := do(t, transport, http.MethodPost, "/api/feedback",
			`{"feature":"voice-control","description":"Spoken commands"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Failed to send email, but feedback was saved locally" {
			t.Fatalf("unexpected error body: %s", rec.Body.String())
		}
	})

	t.Run("valid submission -> 200", func(t *testing.T) {
		notify := &fakeNotifyService{}
		transport := newTransport(newFakeOrderService(), notify, "")

		rec := do(t, transport, http.MethodPost, "/api/feedback",
			`{"feature":"voice-control","description":"Spoken commands"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(notify.feedback) != 1 {
			t.Fatalf("expected 1 feedback, got %d", len(notify.feedback))
		}
	})
}

func TestInvoiceEndpoint(t *testing.T) {
	t.Run("renders attachment", func(t *testing.T) {
		svc := newFakeOrderService()
		svc.add(order.Order{
			ID:             "id-1",
			GatewayOrderID: "order_1",
			UserName:       "Ada",
			Items:          []order.Item{{ID: "kiko-1", Name: "KIKO ROBOT", Price: 4999, Quantity: 1}},
			TotalAmount:    4999,
			Currency:       currency.CurrencyUSD,
			CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		})
		transport := newTransport(svc, &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodGet, "/api/invoice/order_1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "invoice-order_1.txt") {
			t.Fatalf("unexpected disposition: %s", got)
		}
		if !strings.Contains(rec.Body.String(), "KIKO ROBOT INVOICE") {
			t.Fatalf("unexpected invoice body: %s", rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Total: $4999.00 USD") {
			t.Fatalf("total missing: %s", rec.Body.String())
		}
	})

	t.Run("missing order -> 404", func(t *testing.T) {
		transport := newTransport(newFakeOrderService(), &fakeNotifyService{}, "")

		rec := do(t, transport, http.MethodGet, "/api/invoice/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
