package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kikorobot/storefront/internal/service/models/outbox"
)

const outboxFileName = "outbox.json"

// FileOutboxRepository keeps pending order events in a JSON file next to the
// order collection. Same model as the order store: full-file reads and
// rewrites, serialized behind a mutex.
type FileOutboxRepository struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileOutboxRepository creates a repository storing events in dir/outbox.json.
func NewFileOutboxRepository(dir string) *FileOutboxRepository {
	return &FileOutboxRepository{
		path: filepath.Join(dir, outboxFileName),
		now:  time.Now,
	}
}

func (r *FileOutboxRepository) load() ([]outbox.Message, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []outbox.Message{}, nil
		}

		return nil, fmt.Errorf("failed to read outbox file: %w", err)
	}

	if len(data) == 0 {
		return []outbox.Message{}, nil
	}

	var messages []outbox.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode outbox file: %w", err)
	}

	return messages, nil
}

func (r *FileOutboxRepository) save(messages []outbox.Message) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outbox: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write outbox file: %w", err)
	}

	return nil
}

// Insert adds a new message, assigning the next sequential id.
func (r *FileOutboxRepository) Insert(_ context.Context, msg outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.load()
	if err != nil {
		return err
	}

	var maxID int64
	for _, m := range messages {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	msg.ID = maxID + 1

	return r.save(append(messages, msg))
}

// GetPendingMessages returns up to limit messages that are due for publishing,
// oldest retry deadline first.
func (r *FileOutboxRepository) GetPendingMessages(_ context.Context, limit int) ([]outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.load()
	if err != nil {
		return nil, err
	}

	now := r.now()
	pending := make([]outbox.Message, 0)
	for _, m := range messages {
		if !m.NextRetryAt.After(now) && m.RetryCount < m.MaxRetries {
			pending = append(pending, m)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].NextRetryAt.Before(pending[j].NextRetryAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	return pending, nil
}

// UpdateRetry records a failed publish attempt and its next retry deadline.
func (r *FileOutboxRepository) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.load()
	if err != nil {
		return err
	}

	for i := range messages {
		if messages[i].ID == id {
			messages[i].RetryCount = retryCount
			messages[i].LastError = lastError
			messages[i].NextRetryAt = nextRetryAt
			messages[i].UpdatedAt = r.now()

			return r.save(messages)
		}
	}

	return nil
}

// Delete removes a message after a successful publish.
func (r *FileOutboxRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.load()
	if err != nil {
		return err
	}

	for i := range messages {
		if messages[i].ID == id {
			messages = append(messages[:i], messages[i+1:]...)

			return r.save(messages)
		}
	}

	return nil
}
