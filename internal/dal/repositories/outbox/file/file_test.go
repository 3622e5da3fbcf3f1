package filerepo

import (
	"context"
	"testing"
	"time"

	"github.com/kikorobot/storefront/internal/service/models/outbox"
)

func newMessage(routingKey string, nextRetryAt time.Time) outbox.Message {
	return outbox.Message{
		QueueName:    "storefront.order.events",
		ExchangeName: "orders.events",
		RoutingKey:   routingKey,
		Payload:      []byte(`{"orderId":"id-1"}`),
		ContentType:  "application/json",
		MaxRetries:   5,
		CreatedAt:    nextRetryAt,
		UpdatedAt:    nextRetryAt,
		NextRetryAt:  nextRetryAt,
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	repo := NewFileOutboxRepository(t.TempDir())
	ctx := context.Background()
	now := time.Now().Add(-time.Minute)

	if err := repo.Insert(ctx, newMessage(outbox.RoutingKeyOrderCreated, now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Insert(ctx, newMessage(outbox.RoutingKeyOrderStatusChanged, now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := repo.GetPendingMessages(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID == messages[1].ID {
		t.Fatalf("expected distinct ids, got %d twice", messages[0].ID)
	}
}

func TestGetPendingMessages(t *testing.T) {
	repo := NewFileOutboxRepository(t.TempDir())
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	if err := repo.Insert(ctx, newMessage("due", past)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Insert(ctx, newMessage("not-due", future)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exhausted := newMessage("exhausted", past)
	exhausted.RetryCount = 5
	if err := repo.Insert(ctx, exhausted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := repo.GetPendingMessages(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(messages))
	}
	if messages[0].RoutingKey != "due" {
		t.Fatalf("expected the due message, got %s", messages[0].RoutingKey)
	}
}

func TestUpdateRetryAndDelete(t *testing.T) {
	repo := NewFileOutboxRepository(t.TempDir())
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	if err := repo.Insert(ctx, newMessage(outbox.RoutingKeyOrderCreated, past)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := repo.GetPendingMessages(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := messages[0].ID

	nextRetry := time.Now().Add(time.Hour)
	if err := repo.UpdateRetry(ctx, id, 1, "connection refused", nextRetry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err = repo.GetPendingMessages(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected message deferred, got %d pending", len(messages))
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.UpdateRetry(ctx, id, 2, "gone", nextRetry); err != nil {
		t.Fatalf("expected silent no-op after delete, got %v", err)
	}
}
