package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 50
)

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// NotificationService is the per-recipient notification ledger.
type NotificationService struct {
	repo  repositories.NotificationRepository
	users repositories.UserRepository
	now   func() time.Time
}

func NewNotificationService(repo repositories.NotificationRepository, users repositories.UserRepository) *NotificationService {
	return &NotificationService{repo: repo, users: users, now: time.Now}
}

// Record stores n, cutting its message to the column width.
func (s *NotificationService) Record(ctx context.Context, n *models.Notification) error {
	n.Message = truncateRunes(n.Message, models.MaxNotificationMessageLen)
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsRecorded.WithLabelValues(n.Type).Inc()
	return nil
}

func (s *NotificationService) List(ctx context.Context, recipientID uint, page, limit int) (*NotificationPage, error) {
	page, limit = normalizePage(page, limit, DefaultNotificationLimit, MaxNotificationLimit)

	items, total, err := s.repo.GetByRecipientID(ctx, recipientID, page, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if err := s.attachSenders(ctx, items); err != nil {
		return nil, err
	}
	return &NotificationPage{
		Notifications: items,
		UnreadCount:   unread,
		Total:         total,
		Page:          page,
		Limit:         limit,
	}, nil
}

// Grouped buckets the recipient's notifications into today, yesterday, the
// rest of the week and older.
func (s *NotificationService) Grouped(ctx context.Context, recipientID uint) (*models.NotificationGroups, error) {
	groups, err := s.repo.GetGrouped(ctx, recipientID, s.now())
	if err != nil {
		return nil, err
	}
	for _, g := range [][]models.Notification{groups.Today, groups.Yesterday, groups.ThisWeek, groups.Older} {
		if err := s.attachSenders(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	return s.repo.MarkAsRead(ctx, id, recipientID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID uint) error {
	return s.repo.DeleteNotification(ctx, id, recipientID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.GetUnreadCount(ctx, recipientID)
}

func (s *NotificationService) attachSenders(ctx context.Context, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint, len(items))
	for i := range items {
		ids[i] = items[i].SenderID
	}
	senders, err := compacts(ctx, s.users, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Sender = senders[items[i].SenderID]
	}
	return nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
