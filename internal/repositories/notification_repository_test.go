package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(t *testing.T, repo NotificationRepository, recipientID uint, createdAt ...time.Time) []*models.Notification {
	t.Helper()
	out := make([]*models.Notification, len(createdAt))
	for i, at := range createdAt {
		n := &models.Notification{
			RecipientID: recipientID,
			SenderID:    99,
			Type:        models.NotificationLike,
			Message:     "someone liked your post",
			CreatedAt:   at,
		}
		require.NoError(t, repo.CreateNotification(context.Background(), n))
		out[i] = n
	}
	return out
}

func TestNotificationRepository_ReadAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewPostgresNotificationRepository(setupSQLite(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mine := seedNotifications(t, repo, 1, base, base.Add(time.Minute), base.Add(2*time.Minute))
	theirs := seedNotifications(t, repo, 2, base)

	page, total, err := repo.GetByRecipientID(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, mine[2].ID, page[0].ID)
	assert.Equal(t, mine[1].ID, page[1].ID)

	page, _, err = repo.GetByRecipientID(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, mine[0].ID, page[0].ID)

	page, total, err = repo.GetByRecipientID(ctx, 1, math.MaxInt, 20)
	require.NoError(t, err)
	assert.Empty(t, page, "an offset past the int range is past the end, not page 1")
	assert.EqualValues(t, 3, total)

	_, err = repo.MarkAsRead(ctx, theirs[0].ID, 1)
	assertCode(t, err, models.CodeNotFound)

	read, err := repo.MarkAsRead(ctx, mine[0].ID, 1)
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)

	again, err := repo.MarkAsRead(ctx, mine[0].ID, 1)
	require.NoError(t, err)
	require.NotNil(t, again.ReadAt)
	assert.True(t, read.ReadAt.Equal(*again.ReadAt))

	unread, err := repo.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	updated, err := repo.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	unread, err = repo.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread)
	unread, err = repo.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	err = repo.DeleteNotification(ctx, theirs[0].ID, 1)
	assertCode(t, err, models.CodeNotFound)
	require.NoError(t, repo.DeleteNotification(ctx, mine[1].ID, 1))
	err = repo.DeleteNotification(ctx, mine[1].ID, 1)
	assertCode(t, err, models.CodeNotFound)

	_, total, err = repo.GetByRecipientID(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestNotificationRepository_GetGrouped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewPostgresNotificationRepository(setupSQLite(t))
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	seedNotifications(t, repo, 1,
		now.Add(-time.Hour),       // today
		now.Add(-20*time.Hour),    // yesterday
		now.Add(-3*24*time.Hour),  // this week
		now.Add(-6*24*time.Hour),  // this week
		now.Add(-30*24*time.Hour), // older
	)
	seedNotifications(t, repo, 2, now.Add(-time.Hour))

	groups, err := repo.GetGrouped(ctx, 1, now)
	require.NoError(t, err)
	assert.Len(t, groups.Today, 1)
	assert.Len(t, groups.Yesterday, 1)
	assert.Len(t, groups.ThisWeek, 2)
	assert.Len(t, groups.Older, 1)
	assert.True(t, groups.ThisWeek[0].CreatedAt.After(groups.ThisWeek[1].CreatedAt))
}
