package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxToggleAttempts = 3

// FeedQuery selects one page of a viewer's feed.
type FeedQuery struct {
	ViewerID  uint
	Following []uint
	Skip      int64
	Limit     int64
}

// Includes reports whether the feed of q's viewer contains p. It mirrors the
// filter sent to MongoDB by ListFeed.
func (q FeedQuery) Includes(p *models.Post) bool {
	if len(q.Following) == 0 {
		return p.Visibility == models.VisibilityPublic
	}
	if p.AuthorID == q.ViewerID || p.Visibility == models.VisibilityPublic {
		return true
	}
	return lo.Contains(q.Following, p.AuthorID) && p.Visibility == models.VisibilityFollowers
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error)
	DeletePost(ctx context.Context, id string, authorID uint) error
	ToggleLike(ctx context.Context, postID string, userID uint) (*models.Post, bool, error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error)
	ListFeed(ctx context.Context, q FeedQuery) ([]models.Post, error)
	ListTrending(ctx context.Context, since time.Time, limit int64) ([]models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes backing the feed, trending and profile
// queries. It is safe to call on every start.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	// array fields must never be stored as null or $addToSet/$push fail
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	if post.Media == nil {
		post.Media = []models.Media{}
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return storageError(err)
}

// GetPostByID treats a malformed id as a missing post.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post); err != nil {
		return nil, mapError(err, "Post", id)
	}
	return &post, nil
}

func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	findOptions := options.Find().SetSort(newestFirst())
	return r.find(ctx, bson.M{"author_id": authorID}, findOptions)
}

// DeletePost removes the post only when authorID wrote it.
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string, authorID uint) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.NewNotFoundError("Post", id)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "author_id": authorID})
	if err != nil {
		return storageError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// ToggleLike adds userID to the post's likes when absent and removes it
// otherwise. Each branch is a single guarded findOneAndUpdate, so concurrent
// toggles on one post serialise on the document. The returned post carries
// only author_id and likes.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID string, userID uint) (*models.Post, bool, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, false, models.NewNotFoundError("Post", postID)
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"author_id": 1, "likes": 1})

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var post models.Post
		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": objID, "likes": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"likes": userID}},
			opts,
		).Decode(&post)
		if err == nil {
			return &post, true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, storageError(err)
		}

		err = r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": objID, "likes": userID},
			bson.M{"$pull": bson.M{"likes": userID}},
			opts,
		).Decode(&post)
		if err == nil {
			return &post, false, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, storageError(err)
		}

		// neither guard matched: the post is gone, or another toggle won the race
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
		if err != nil {
			return nil, false, storageError(err)
		}
		if n == 0 {
			return nil, false, models.NewNotFoundError("Post", postID)
		}
		log.WithField("post_id", postID).WithField("attempt", attempt+1).Debug("like toggle raced, retrying")
	}
	return nil, false, models.NewStorageError(fmt.Errorf("like toggle on post %s did not settle", postID))
}

// AddComment appends comment to the post. The returned post carries only
// author_id.
func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()

	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().SetProjection(bson.M{"author_id": 1}),
	).Decode(&post)
	if err != nil {
		return nil, mapError(err, "Post", postID)
	}
	return &post, nil
}

func (r *MongoPostRepository) ListFeed(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(q.Skip).SetLimit(q.Limit).SetSort(newestFirst())
	return r.find(ctx, feedFilter(q), findOptions)
}

// ListTrending ranks the public posts created at or after since by
// engagement score (likes + 2*comments + 3*shares) inside MongoDB and returns
// the top limit. Ties go to the newer post, then to the greater id.
func (r *MongoPostRepository) ListTrending(ctx context.Context, since time.Time, limit int64) ([]models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"visibility": models.VisibilityPublic,
			"created_at": bson.M{"$gte": since},
		}}},
		{{Key: "$addFields", Value: bson.M{"score": bson.M{"$add": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}},
			bson.M{"$multiply": bson.A{2, bson.M{"$size": bson.M{"$ifNull": bson.A{"$comments", bson.A{}}}}}},
			bson.M{"$multiply": bson.A{3, bson.M{"$ifNull": bson.A{"$shares", 0}}}},
		}}}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: -1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"score": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storageError(err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, storageError(err)
	}
	return posts, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageError(err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, storageError(err)
	}
	return posts, nil
}

// feedFilter builds the MongoDB filter for q. Without follows the feed is
// every public post; with follows it is the viewer's own posts, the followed
// authors' public and followers-only posts, and every public post.
func feedFilter(q FeedQuery) bson.M {
	if len(q.Following) == 0 {
		return bson.M{"visibility": models.VisibilityPublic}
	}
	return bson.M{"$or": bson.A{
		bson.M{"author_id": q.ViewerID},
		bson.M{
			"author_id":  bson.M{"$in": q.Following},
			"visibility": bson.M{"$in": bson.A{models.VisibilityPublic, models.VisibilityFollowers}},
		},
		bson.M{"visibility": models.VisibilityPublic},
	}}
}

func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}
