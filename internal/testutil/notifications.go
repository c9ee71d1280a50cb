package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

var _ repositories.NotificationRepository = (*NotificationStore)(nil)

// NotificationStore is an in-memory NotificationRepository. CreateErr, when
// set, is returned by CreateNotification.
type NotificationStore struct {
	mu        sync.Mutex
	items     []*models.Notification
	nextID    uint
	Now       func() time.Time
	CreateErr error
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{nextID: 1, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *NotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	n.ID = s.nextID
	s.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.Now()
	}
	cp := *n
	s.items = append(s.items, &cp)
	return nil
}

func (s *NotificationStore) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	all := s.forRecipient(recipientID, func(*models.Notification) bool { return true })
	total := int64(len(all))
	offset, ok := repositories.PageOffset(page, limit)
	if !ok || offset >= len(all) {
		return []models.Notification{}, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *NotificationStore) GetGrouped(_ context.Context, recipientID uint, now time.Time) (*models.NotificationGroups, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	groups := &models.NotificationGroups{}
	for _, n := range s.forRecipient(recipientID, func(*models.Notification) bool { return true }) {
		switch {
		case !n.CreatedAt.Before(todayStart):
			groups.Today = append(groups.Today, n)
		case !n.CreatedAt.Before(yesterdayStart):
			groups.Yesterday = append(groups.Yesterday, n)
		case !n.CreatedAt.Before(weekStart):
			groups.ThisWeek = append(groups.ThisWeek, n)
		case len(groups.Older) < 50:
			groups.Older = append(groups.Older, n)
		}
	}
	return groups, nil
}

func (s *NotificationStore) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	return int64(len(s.forRecipient(recipientID, func(n *models.Notification) bool { return !n.Read }))), nil
}

func (s *NotificationStore) MarkAsRead(_ context.Context, id, recipientID uint) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID == id && n.RecipientID == recipientID {
			if !n.Read {
				now := s.Now()
				n.Read = true
				n.ReadAt = &now
			}
			cp := *n
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("Notification", id)
}

func (s *NotificationStore) MarkAllAsRead(_ context.Context, recipientID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	now := s.Now()
	for _, n := range s.items {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			n.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func (s *NotificationStore) DeleteNotification(_ context.Context, id, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.items {
		if n.ID == id && n.RecipientID == recipientID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return models.NewNotFoundError("Notification", id)
}

// All returns every stored notification in insertion order.
func (s *NotificationStore) All() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	for i, n := range s.items {
		out[i] = *n
	}
	return out
}

// forRecipient returns copies of the recipient's matching notifications,
// newest first.
func (s *NotificationStore) forRecipient(recipientID uint, match func(*models.Notification) bool) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for _, n := range s.items {
		if n.RecipientID == recipientID && match(n) {
			out = append(out, *n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
