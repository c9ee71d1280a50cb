package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir    *testutil.Directory
	posts  *testutil.PostStore
	notes  *testutil.NotificationStore
	media  *testutil.MediaStore
	clock  *stepClock

	identity      *IdentityService
	postService   *PostService
	feed          *FeedService
	engagement    *EngagementService
	notifications *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dir:   testutil.NewDirectory(),
		posts: testutil.NewPostStore(),
		notes: testutil.NewNotificationStore(),
		media: testutil.NewMediaStore(),
		clock: &stepClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.posts.Now = f.clock.Next
	f.notes.Now = f.clock.Next

	f.identity = NewIdentityService(f.dir, f.dir, testutil.PlainHasher{}, f.media)
	f.postService = NewPostService(f.posts, f.dir, f.dir)
	f.feed = NewFeedService(f.posts, f.dir, f.dir)
	f.notifications = NewNotificationService(f.notes, f.dir)
	f.notifications.now = f.clock.Now
	f.engagement = NewEngagementService(f.posts, f.dir, f.identity, f.notifications)
	return f
}

// stepClock advances one second on every Next call so stored rows get
// distinct, increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID.Hex()
	}
	return ids
}
