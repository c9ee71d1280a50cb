package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50

	TrendingWindow = 24 * time.Hour
	TrendingLimit  = 20
)

// FeedService assembles the personalised feed and the trending ranking.
type FeedService struct {
	posts   repositories.PostRepository
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

func NewFeedService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	follows repositories.FollowRepository,
) *FeedService {
	return &FeedService{posts: posts, users: users, follows: follows}
}

// Feed returns one page of viewerID's feed, newest first. A page shorter
// than limit is the last one.
func (s *FeedService) Feed(ctx context.Context, viewerID uint, page, limit int) ([]models.Post, error) {
	page, limit = normalizePage(page, limit, DefaultFeedLimit, MaxFeedLimit)

	skip, ok := repositories.PageOffset(page, limit)
	if !ok {
		return []models.Post{}, nil
	}

	following, err := s.follows.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListFeed(ctx, repositories.FeedQuery{
		ViewerID:  viewerID,
		Following: following,
		Skip:      int64(skip),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	if err := decoratePosts(ctx, s.users, viewerID, postPtrs(posts)); err != nil {
		return nil, err
	}
	return posts, nil
}

// Trending ranks the public posts of the last 24 hours before now by
// engagement score. Ties go to the newer post, then to the greater id.
func (s *FeedService) Trending(ctx context.Context, viewerID uint, now time.Time) ([]models.Post, error) {
	posts, err := s.posts.ListTrending(ctx, now.Add(-TrendingWindow), TrendingLimit)
	if err != nil {
		return nil, err
	}
	if err := decoratePosts(ctx, s.users, viewerID, postPtrs(posts)); err != nil {
		return nil, err
	}
	return posts, nil
}

// normalizePage clamps page to at least 1 and limit to [1, max], using def
// for non-positive limits.
func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
