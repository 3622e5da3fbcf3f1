package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/spf13/viper"

	"github.com/kikorobot/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/kikorobot/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/kikorobot/storefront/internal/dal/postgres"
	"github.com/kikorobot/storefront/internal/dal/rabbitmq"
	orderfilerepo "github.com/kikorobot/storefront/internal/dal/repositories/order/file"
	orderpgrepo "github.com/kikorobot/storefront/internal/dal/repositories/order/postgres"
	outboxfilerepo "github.com/kikorobot/storefront/internal/dal/repositories/outbox/file"
	outboxpgrepo "github.com/kikorobot/storefront/internal/dal/repositories/outbox/postgres"
	"github.com/kikorobot/storefront/internal/gateway/razorpay"
	resendmailer "github.com/kikorobot/storefront/internal/mailer/resend"
	"github.com/kikorobot/storefront/internal/otel"
	"github.com/kikorobot/storefront/internal/service/services/notifysvc"
	"github.com/kikorobot/storefront/internal/service/services/ordersvc"
	httptransport "github.com/kikorobot/storefront/internal/transport/http"
	"github.com/kikorobot/storefront/internal/transport/http/middleware/auth"
	outboxworker "github.com/kikorobot/storefront/internal/worker/outbox"
)

const eventsExchange = "orders.events"

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	notifySvc      *notifysvc.NotifyService
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	outboxWorker   *outboxworker.Worker
	otelCtrl       *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	a := &App{}

	if viper.GetBool("tracing.enabled") {
		a.otelCtrl = otel.MustInitOtel()
	}

	clerk.SetKey(os.Getenv("CLERK_SECRET_KEY"))

	dataDir := viper.GetString("storage.data_dir")
	if dataDir == "" {
		dataDir = "data"
	}

	var orderRepo iorderrepo.IOrderRepository
	var outboxRepo ioutboxrepo.IOutboxRepository
	switch driver := viper.GetString("storage.driver"); driver {
	case "postgres":
		a.postgresClient = postgres.MustNewClient()
		orderRepo = orderpgrepo.NewPostgresOrderRepository(a.postgresClient)
		outboxRepo = outboxpgrepo.NewPostgresOutboxRepository(a.postgresClient)
	case "", "file":
		orderRepo = orderfilerepo.NewFileOrderRepository(dataDir)
		outboxRepo = outboxfilerepo.NewFileOutboxRepository(dataDir)
	default:
		panic("unknown storage driver: " + driver)
	}

	gateway, err := razorpay.NewGateway(
		os.Getenv("RAZORPAY_KEY_ID"),
		os.Getenv("RAZORPAY_KEY_SECRET"),
	)
	if err != nil {
		panic("configuration error: " + err.Error())
	}

	mailer, err := resendmailer.NewMailer(os.Getenv("RESEND_API_KEY"))
	if err != nil {
		panic("configuration error: " + err.Error())
	}

	orderOpts := []ordersvc.Option{
		ordersvc.WithOrderRepository(orderRepo),
		ordersvc.WithGateway(gateway),
	}

	if viper.GetBool("events.enabled") {
		a.rabbitClient = rabbitmq.MustNewClient()
		queue := viper.GetString("rabbitmq.events.queue")
		if queue == "" {
			queue = "storefront.order.events"
		}
		mustDeclareEventsTopology(a.rabbitClient, queue)

		orderOpts = append(orderOpts, ordersvc.WithOutbox(outboxRepo, eventsExchange, queue))
		a.outboxWorker = outboxworker.NewWorker(outboxRepo, a.rabbitClient)
	}

	a.orderSvc = ordersvc.MustNewOrderService(orderOpts...)
	a.notifySvc = notifysvc.MustNewNotifyService(
		notifysvc.WithMailer(mailer),
		notifysvc.WithDataDir(dataDir),
	)

	a.transport = httptransport.NewHTTPTransport(a.orderSvc, a.notifySvc, auth.NewClerkMiddleware())
	a.transport.RegisterRoutes()

	return a
}

func mustDeclareEventsTopology(client *rabbitmq.Client, queue string) {
	if err := client.Channel().ExchangeDeclare(
		eventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		panic("failed to declare events exchange: " + err.Error())
	}

	if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queue,
		Durable: true,
	}); err != nil {
		panic("failed to declare events queue: " + err.Error())
	}

	if err := client.Channel().QueueBind(queue, "order.#", eventsExchange, false, nil); err != nil {
		panic("failed to bind events queue: " + err.Error())
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	if a.outboxWorker != nil {
		go a.outboxWorker.Start(workerCtx)
	}

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelWorker()

	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
	}

	if a.otelCtrl != nil {
		if err := a.otelCtrl.Shutdown(); err != nil {
			slog.Error("Trace provider shutdown error", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
}
