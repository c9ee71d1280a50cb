package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestFeedQuery_Includes(t *testing.T) {
	t.Parallel()
	post := func(author uint, visibility string) *models.Post {
		return &models.Post{AuthorID: author, Visibility: visibility}
	}

	tests := []struct {
		name string
		q    FeedQuery
		p    *models.Post
		want bool
	}{
		{name: "no follows sees public", q: FeedQuery{ViewerID: 1}, p: post(2, models.VisibilityPublic), want: true},
		{name: "no follows hides followers-only", q: FeedQuery{ViewerID: 1}, p: post(2, models.VisibilityFollowers), want: false},
		{name: "no follows hides own followers-only", q: FeedQuery{ViewerID: 1}, p: post(1, models.VisibilityFollowers), want: false},
		{name: "own followers-only", q: FeedQuery{ViewerID: 1, Following: []uint{2}}, p: post(1, models.VisibilityFollowers), want: true},
		{name: "followed followers-only", q: FeedQuery{ViewerID: 1, Following: []uint{2}}, p: post(2, models.VisibilityFollowers), want: true},
		{name: "stranger followers-only", q: FeedQuery{ViewerID: 1, Following: []uint{2}}, p: post(3, models.VisibilityFollowers), want: false},
		{name: "stranger public", q: FeedQuery{ViewerID: 1, Following: []uint{2}}, p: post(3, models.VisibilityPublic), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Includes(tt.p))
		})
	}
}

func TestFeedFilter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bson.M{"visibility": models.VisibilityPublic}, feedFilter(FeedQuery{ViewerID: 1}))

	f := feedFilter(FeedQuery{ViewerID: 1, Following: []uint{2, 3}})
	branches, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, branches, 3)
	assert.Equal(t, bson.M{"author_id": uint(1)}, branches[0])
	assert.Equal(t, bson.M{"visibility": models.VisibilityPublic}, branches[2])
}

// setupMongo connects to the database named by MONGO_TEST_URI and returns a
// repository over a throwaway collection.
func setupMongo(t *testing.T) *MongoPostRepository {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("nanofeed_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo := NewMongoPostRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoPostRepository_LikesAndComments(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	post := &models.Post{AuthorID: 1, Content: "hello", Visibility: models.VisibilityPublic}
	require.NoError(t, repo.CreatePost(ctx, post))
	id := post.ID.Hex()

	got, liked, err := repo.ToggleLike(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []uint{2}, got.Likes)
	assert.EqualValues(t, 1, got.AuthorID)

	got, liked, err = repo.ToggleLike(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, got.Likes)

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.ToggleLike(ctx, id, 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	stored, err := repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, stored.Likes)

	_, err = repo.AddComment(ctx, id, &models.Comment{AuthorID: 4, Content: "nice"})
	require.NoError(t, err)
	stored, err = repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "nice", stored.Comments[0].Content)
	assert.False(t, stored.Comments[0].ID.IsZero())

	_, _, err = repo.ToggleLike(ctx, primitive.NewObjectID().Hex(), 2)
	assertCode(t, err, models.CodeNotFound)
	_, err = repo.GetPostByID(ctx, "not-an-id")
	assertCode(t, err, models.CodeNotFound)
}

func TestMongoPostRepository_FeedAndDelete(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	create := func(author uint, visibility string) *models.Post {
		p := &models.Post{AuthorID: author, Content: "x", Visibility: visibility}
		require.NoError(t, repo.CreatePost(ctx, p))
		return p
	}
	ownPrivate := create(1, models.VisibilityFollowers)
	followedPrivate := create(2, models.VisibilityFollowers)
	strangerPrivate := create(3, models.VisibilityFollowers)
	strangerPublic := create(3, models.VisibilityPublic)

	posts, err := repo.ListFeed(ctx, FeedQuery{ViewerID: 1, Following: []uint{2}, Limit: 10})
	require.NoError(t, err)
	ids := make([]primitive.ObjectID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	assert.Equal(t, []primitive.ObjectID{strangerPublic.ID, followedPrivate.ID, ownPrivate.ID}, ids)
	assert.NotContains(t, ids, strangerPrivate.ID)

	_, _, err = repo.ToggleLike(ctx, strangerPublic.ID.Hex(), 5)
	require.NoError(t, err)
	quiet := create(4, models.VisibilityPublic)
	trending, err := repo.ListTrending(ctx, time.Now().Add(-time.Hour), 20)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, strangerPublic.ID, trending[0].ID, "a liked post outranks a newer quiet one")
	assert.Equal(t, quiet.ID, trending[1].ID)

	trending, err = repo.ListTrending(ctx, time.Now().Add(-time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, trending, 1)

	err = repo.DeletePost(ctx, strangerPublic.ID.Hex(), 1)
	assertCode(t, err, models.CodeNotFound)
	require.NoError(t, repo.DeletePost(ctx, strangerPublic.ID.Hex(), 3))

	byAuthor, err := repo.GetPostsByAuthor(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)
}
