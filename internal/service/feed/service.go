package feed

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"chatfeed/internal/models"
	"chatfeed/internal/store"
)

// Service validates posted messages and serves the ordered feed.
type Service struct {
	store store.Store
	log   *zap.Logger
}

// NewService builds a feed service over the given store.
func NewService(s store.Store) *Service {
	return &Service{store: s, log: zap.L().Named("feed")}
}

// Post validates a posted view, stores it as a plain message and returns the
// stored view.
func (s *Service) Post(ctx context.Context, view models.MessageView) (models.MessageView, error) {
	if err := view.Validate(); err != nil {
		return models.MessageView{}, fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	msg, err := s.store.Insert(ctx, models.FromView(view))
	if err != nil {
		return models.MessageView{}, fmt.Errorf("post message: %w", err)
	}
	s.log.Info("message posted",
		zap.String("id", msg.ID),
		zap.String("author", msg.UserName),
		zap.Time("sent", msg.Sent),
	)
	return models.ToView(msg), nil
}

// Messages returns every message sent after the cursor message, or every
// message when lastMessageID is empty or unknown, oldest first.
func (s *Service) Messages(ctx context.Context, lastMessageID string) ([]models.MessageView, error) {
	messages, err := s.store.ListAfter(ctx, lastMessageID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	SortBySent(messages)
	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, models.ToView(m))
	}
	return views, nil
}

// Clear drops every stored message.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	s.log.Warn("message store cleared")
	return nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SortBySent orders messages by sent time, breaking ties by id. Ids are
// time-ordered, so ties come back in creation order.
func SortBySent(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if !a.Sent.Equal(b.Sent) {
			return a.Sent.Before(b.Sent)
		}
		return a.ID < b.ID
	})
}
