// Package store persists feed messages behind one interface with SQL, Redis
// and MongoDB backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"chatfeed/internal/models"
)

var (
	// ErrValidation marks a message missing a required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a cursor id that matches no stored message.
	ErrNotFound = errors.New("message not found")
	// ErrUnavailable marks a failure of the underlying persistence.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the durable message collection.
type Store interface {
	// Insert assigns a new id, persists the message and returns the stored form.
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	// ListAll returns every stored message in no particular order.
	ListAll(ctx context.Context) ([]models.Message, error)
	// ListAfter returns messages sent strictly after the cursor message. An
	// empty or unknown cursor returns every message.
	ListAfter(ctx context.Context, cursorID string) ([]models.Message, error)
	// Clear removes every message.
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a fresh time-ordered identifier, so ids sort in creation order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func prepare(msg models.Message) (models.Message, error) {
	if msg.ContentType == "" {
		msg.ContentType = models.ContentTypePlain
	}
	msg.Sent = models.TruncateSent(msg.Sent)
	if err := msg.Validate(); err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	id, err := NewID()
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = id
	return msg, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
}
