package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_IsItsOwnInverse(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	users := testutil.MustCreateUsers(t, f.dir, 3)
	author, liker, other := users[0], users[1], users[2]

	post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: author.ID, Content: "hello"})
	require.NoError(t, err)
	_, err = f.engagement.ToggleLike(ctx, post.ID.Hex(), other.ID)
	require.NoError(t, err)

	first, err := f.engagement.ToggleLike(ctx, post.ID.Hex(), liker.ID)
	require.NoError(t, err)
	assert.True(t, first.IsLiked)
	assert.ElementsMatch(t, []uint{other.ID, liker.ID}, first.Likes)

	second, err := f.engagement.ToggleLike(ctx, post.ID.Hex(), liker.ID)
	require.NoError(t, err)
	assert.False(t, second.IsLiked)
	assert.ElementsMatch(t, []uint{other.ID}, second.Likes)
}

func TestToggleLike_ConcurrentParity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	users := testutil.MustCreateUsers(t, f.dir, 4)
	author := users[0]

	post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: author.ID, Content: "race me"})
	require.NoError(t, err)

	// users[1] toggles 7 times, users[2] 4 times, users[3] once
	toggles := map[uint]int{users[1].ID: 7, users[2].ID: 4, users[3].ID: 1}
	var wg sync.WaitGroup
	for userID, n := range toggles {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				_, err := f.engagement.ToggleLike(ctx, post.ID.Hex(), userID)
				assert.NoError(t, err)
			}(userID)
		}
	}
	wg.Wait()

	stored, err := f.postService.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{users[1].ID, users[3].ID}, stored.Likes)
}

func TestToggleLike_Notifications(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("liking another user's post notifies once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		users := testutil.MustCreateUsers(t, f.dir, 2)
		b, a := users[0], users[1]
		post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: b.ID, Content: "mine"})
		require.NoError(t, err)

		_, err = f.engagement.ToggleLike(ctx, post.ID.Hex(), a.ID)
		require.NoError(t, err)

		all := f.notes.All()
		require.Len(t, all, 1)
		n := all[0]
		assert.Equal(t, models.NotificationLike, n.Type)
		assert.Equal(t, b.ID, n.RecipientID)
		assert.Equal(t, a.ID, n.SenderID)
		assert.Equal(t, a.Username+" liked your post", n.Message)
		require.NotNil(t, n.PostID)
		assert.Equal(t, post.ID.Hex(), *n.PostID)

		// unliking emits nothing
		_, err = f.engagement.ToggleLike(ctx, post.ID.Hex(), a.ID)
		require.NoError(t, err)
		assert.Len(t, f.notes.All(), 1)
	})

	t.Run("self like never notifies", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := testutil.MustCreateUsers(t, f.dir, 1)[0]
		post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: a.ID, Content: "mine"})
		require.NoError(t, err)

		res, err := f.engagement.ToggleLike(ctx, post.ID.Hex(), a.ID)
		require.NoError(t, err)
		assert.True(t, res.IsLiked)
		assert.Empty(t, f.notes.All())
	})

	t.Run("missing post has no side effect", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := testutil.MustCreateUsers(t, f.dir, 1)[0]

		_, err := f.engagement.ToggleLike(ctx, "65f1c0ffee0ddba11c0ffee0", a.ID)
		assertCode(t, err, models.CodeNotFound)
		_, err = f.engagement.ToggleLike(ctx, "not-an-id", a.ID)
		assertCode(t, err, models.CodeNotFound)
		assert.Empty(t, f.notes.All())
	})
}

func TestToggleLike_NotificationFailureKeepsLike(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	users := testutil.MustCreateUsers(t, f.dir, 2)
	post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: users[0].ID, Content: "x"})
	require.NoError(t, err)

	f.notes.CreateErr = models.NewStorageError(errors.New("connection reset"))
	_, err = f.engagement.ToggleLike(ctx, post.ID.Hex(), users[1].ID)
	assertCode(t, err, models.CodeStorage)

	stored, err := f.postService.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []uint{users[1].ID}, stored.Likes)
}

func TestAddComment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		wantErr string
		want    string
	}{
		{name: "500 characters accepted", content: strings.Repeat("a", 500), want: strings.Repeat("a", 500)},
		{name: "501 characters rejected", content: strings.Repeat("a", 501), wantErr: models.CodeValidation},
		{name: "multibyte counted as characters", content: strings.Repeat("é", 500), want: strings.Repeat("é", 500)},
		{name: "whitespace only rejected", content: "   \n\t", wantErr: models.CodeValidation},
		{name: "trimmed", content: "  nice post  ", want: "nice post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			users := testutil.MustCreateUsers(t, f.dir, 2)
			post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: users[0].ID, Content: "post"})
			require.NoError(t, err)

			c, err := f.engagement.AddComment(ctx, post.ID.Hex(), users[1].ID, tt.content)
			if tt.wantErr != "" {
				assertCode(t, err, tt.wantErr)
				assert.Empty(t, f.notes.All())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Content)
			assert.False(t, c.ID.IsZero())
			require.NotNil(t, c.Author)
			assert.Equal(t, users[1].Username, c.Author.Username)

			stored, err := f.postService.Get(ctx, post.ID.Hex())
			require.NoError(t, err)
			require.Len(t, stored.Comments, 1)
			assert.Equal(t, c.ID, stored.Comments[0].ID)

			notes := f.notes.All()
			require.Len(t, notes, 1)
			assert.Equal(t, models.NotificationComment, notes[0].Type)
			assert.Equal(t, users[0].ID, notes[0].RecipientID)
		})
	}
}

func TestAddComment_AppendsInOrderWithoutSelfNotification(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.MustCreateUsers(t, f.dir, 1)[0]
	post, err := f.postService.Create(ctx, CreatePostInput{AuthorID: a.ID, Content: "post"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.engagement.AddComment(ctx, post.ID.Hex(), a.ID, text)
		require.NoError(t, err)
	}
	stored, err := f.postService.Get(ctx, post.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.Comments, 3)
	assert.Equal(t, "one", stored.Comments[0].Content)
	assert.Equal(t, "three", stored.Comments[2].Content)
	assert.Empty(t, f.notes.All())

	_, err = f.engagement.AddComment(ctx, "65f1c0ffee0ddba11c0ffee0", a.ID, "hi")
	assertCode(t, err, models.CodeNotFound)
}

func TestToggleFollow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("follow then follow again unfollows both directions", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		users := testutil.MustCreateUsers(t, f.dir, 2)
		a, b := users[0], users[1]

		following, err := f.engagement.ToggleFollow(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, following)

		profileA, err := f.identity.Profile(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{b.ID}, profileA.Following)
		profileB, err := f.identity.Profile(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{a.ID}, profileB.Followers)
		assert.True(t, profileB.IsFollowing)

		following, err = f.engagement.ToggleFollow(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, following)

		profileA, err = f.identity.Profile(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Empty(t, profileA.Following)
		profileB, err = f.identity.Profile(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Empty(t, profileB.Followers)
		assert.False(t, profileB.IsFollowing)

		notes := f.notes.All()
		require.Len(t, notes, 1)
		assert.Equal(t, models.NotificationFollow, notes[0].Type)
		assert.Equal(t, b.ID, notes[0].RecipientID)
		assert.Equal(t, a.Username+" started following you", notes[0].Message)
		assert.Nil(t, notes[0].PostID)
	})

	t.Run("self follow is invalid", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := testutil.MustCreateUsers(t, f.dir, 1)[0]
		_, err := f.engagement.ToggleFollow(ctx, a.ID, a.ID)
		assertCode(t, err, models.CodeInvalidOperation)
	})

	t.Run("missing target", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		a := testutil.MustCreateUsers(t, f.dir, 1)[0]
		_, err := f.engagement.ToggleFollow(ctx, a.ID, a.ID+100)
		assertCode(t, err, models.CodeNotFound)
		assert.Empty(t, f.notes.All())
	})
}
