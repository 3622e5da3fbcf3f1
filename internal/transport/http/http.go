package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	"github.com/kikorobot/storefront/internal/service/models/notification"
	"github.com/kikorobot/storefront/internal/service/models/order"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	adminorders "github.com/kikorobot/storefront/internal/transport/http/admin_orders"
	"github.com/kikorobot/storefront/internal/transport/http/checkout"
	"github.com/kikorobot/storefront/internal/transport/http/contact"
	"github.com/kikorobot/storefront/internal/transport/http/feedback"
	"github.com/kikorobot/storefront/internal/transport/http/invoice"
	"github.com/kikorobot/storefront/internal/transport/http/payment"
	userorders "github.com/kikorobot/storefront/internal/transport/http/user_orders"
	"github.com/kikorobot/storefront/pkg/http/middleware/trace"
	"github.com/kikorobot/storefront/pkg/logger"
)

type orderService interface {
	InitiateCheckout(ctx context.Context, amount float64, currencyCode, receipt string, notes map[string]interface{}) (*razorpay.Order, error)
	CompletePayment(ctx context.Context, req ordersvc.CompletePaymentRequest) (*order.Order, error)
	UserOrders(ctx context.Context, userID string) ([]ordersvc.UserOrder, error)
	AllOrders(ctx context.Context) ([]order.Order, error)
	OrderByID(ctx context.Context, id string) (*order.Order, error)
	SetStatus(ctx context.Context, gatewayOrderID, statusValue string) error
	RemoveOrder(ctx context.Context, gatewayOrderID string) error
}

type notifyService interface {
	SendContact(ctx context.Context, c notification.Contact) error
	SendFeedback(ctx context.Context, f notification.Feedback) error
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	orderSvc orderService
	notify   notifyService
	authMW   func(http.Handler) http.Handler
}

// NewHTTPTransport creates the HTTP transport. authMW resolves the caller's
// session; the identity provider enforces the route-access policy upstream.
func NewHTTPTransport(
	orderSvc orderService,
	notify notifyService,
	authMW func(http.Handler) http.Handler,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		orderSvc: orderSvc,
		notify:   notify,
		authMW:   authMW,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Router returns the underlying router, used by handler tests.
func (h *HTTPTransport) Router() *chi.Mux {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/orders/gateway", h.initiateCheckout)
		r.Post("/orders", h.completePayment)
		r.Post("/contact", h.submitContact)
		r.Post("/feedback", h.submitFeedback)
		r.Get("/invoice/{orderID}", h.downloadInvoice)

		r.Group(func(r chi.Router) {
			r.Use(h.authMW)

			r.Get("/orders/mine", h.listUserOrders)

			r.Route("/admin/orders", func(r chi.Router) {
				r.Get("/", h.listAllOrders)
				r.Get("/{orderID}", h.getOrder)
				r.Put("/{orderID}", h.updateOrderStatus)
				r.Delete("/{orderID}", h.deleteOrder)
			})
		})
	})
}

func (h *HTTPTransport) initiateCheckout(w http.ResponseWriter, r *http.Request) {
	checkout.InitiateCheckout(w, r, h.orderSvc)
}

func (h *HTTPTransport) completePayment(w http.ResponseWriter, r *http.Request) {
	payment.CompletePayment(w, r, h.orderSvc)
}

func (h *HTTPTransport) listUserOrders(w http.ResponseWriter, r *http.Request) {
	userorders.ListUserOrders(w, r, h.orderSvc)
}

func (h *HTTPTransport) listAllOrders(w http.ResponseWriter, r *http.Request) {
	adminorders.ListOrders(w, r, h.orderSvc)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	adminorders.GetOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	adminorders.UpdateOrderStatus(w, r, h.orderSvc)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	adminorders.DeleteOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) submitContact(w http.ResponseWriter, r *http.Request) {
	contact.SubmitContact(w, r, h.notify)
}

func (h *HTTPTransport) submitFeedback(w http.ResponseWriter, r *http.Request) {
	feedback.SubmitFeedback(w, r, h.notify)
}

func (h *HTTPTransport) downloadInvoice(w http.ResponseWriter, r *http.Request) {
	invoice.DownloadInvoice(w, r, h.orderSvc)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	if viper.GetBool("tracing.enabled") {
		router.Use(trace.NewTraceMiddleware)
	}

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
