package testutil

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.PostRepository = (*PostStore)(nil)

// PostStore is an in-memory PostRepository. Now stamps created posts and
// comments; tests may replace it to control ordering.
type PostStore struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
	Now   func() time.Time
}

func NewPostStore() *PostStore {
	return &PostStore{
		posts: make(map[primitive.ObjectID]*models.Post),
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Seed stores posts as given, keeping their CreatedAt. Missing ids are
// generated. It returns the stored posts.
func (s *PostStore) Seed(posts ...models.Post) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		if p.Visibility == "" {
			p.Visibility = models.VisibilityPublic
		}
		if p.Likes == nil {
			p.Likes = []uint{}
		}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		cp := clonePost(&p)
		s.posts[p.ID] = cp
		out = append(out, *clonePost(cp))
	}
	return out
}

func (s *PostStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *PostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return clonePost(p), nil
}

func (s *PostStore) GetPostsByAuthor(_ context.Context, authorID uint) ([]models.Post, error) {
	return s.list(func(p *models.Post) bool { return p.AuthorID == authorID }, 0, 0), nil
}

func (s *PostStore) DeletePost(_ context.Context, id string, authorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(id)
	if err != nil || p.AuthorID != authorID {
		return models.NewNotFoundError("Post", id)
	}
	delete(s.posts, p.ID)
	return nil
}

func (s *PostStore) ToggleLike(_ context.Context, postID string, userID uint) (*models.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(postID)
	if err != nil {
		return nil, false, err
	}
	liked := !lo.Contains(p.Likes, userID)
	if liked {
		p.Likes = append(p.Likes, userID)
	} else {
		p.Likes = lo.Without(p.Likes, userID)
	}
	return &models.Post{ID: p.ID, AuthorID: p.AuthorID, Likes: append([]uint{}, p.Likes...)}, liked, nil
}

func (s *PostStore) AddComment(_ context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookupLocked(postID)
	if err != nil {
		return nil, err
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = s.Now()
	p.Comments = append(p.Comments, *comment)
	return &models.Post{ID: p.ID, AuthorID: p.AuthorID}, nil
}

func (s *PostStore) ListFeed(_ context.Context, q repositories.FeedQuery) ([]models.Post, error) {
	return s.list(q.Includes, q.Skip, q.Limit), nil
}

// ListTrending orders the public posts created at or after since by
// engagement score, then newest first, and keeps the top limit.
func (s *PostStore) ListTrending(_ context.Context, since time.Time, limit int64) ([]models.Post, error) {
	posts := s.list(func(p *models.Post) bool {
		return p.Visibility == models.VisibilityPublic && !p.CreatedAt.Before(since)
	}, 0, 0)
	// list is already newest first, so a stable sort keeps that as the tie-break
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].EngagementScore() > posts[j].EngagementScore()
	})
	if limit > 0 && int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Count returns the number of stored posts.
func (s *PostStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *PostStore) lookupLocked(id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	p, ok := s.posts[objID]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return p, nil
}

// list returns matching posts newest first (created_at, then id), applying
// skip and a limit when limit > 0.
func (s *PostStore) list(match func(*models.Post) bool, skip, limit int64) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if match(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if skip < 0 || skip >= int64(len(out)) {
		return []models.Post{}
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]uint{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	cp.Media = append([]models.Media{}, p.Media...)
	cp.Tags = append([]string{}, p.Tags...)
	return &cp
}
