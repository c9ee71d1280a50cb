package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/samber/lo"
)

type CreatePostInput struct {
	AuthorID   uint
	Content    string
	Media      []models.Media
	Tags       []string
	Location   string
	Visibility string
}

// PostService authors, reads and deletes posts.
type PostService struct {
	posts   repositories.PostRepository
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

func NewPostService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	follows repositories.FollowRepository,
) *PostService {
	return &PostService{posts: posts, users: users, follows: follows}
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Post content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxPostContentLen {
		return nil, models.NewValidationError("Post content must be at most 2000 characters")
	}
	if len(in.Media) > models.MaxPostMedia {
		return nil, models.NewValidationError("A post can carry at most 10 media items")
	}
	for _, m := range in.Media {
		if strings.TrimSpace(m.URL) == "" {
			return nil, models.NewValidationError("Media URL is required")
		}
		if m.Kind != models.MediaImage && m.Kind != models.MediaVideo {
			return nil, models.NewValidationError("Media type must be image or video")
		}
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityFollowers {
		return nil, models.NewValidationError("Visibility must be public or followers")
	}

	post := &models.Post{
		AuthorID:   in.AuthorID,
		Content:    content,
		Media:      append([]models.Media{}, in.Media...),
		Tags:       normalizeTags(in.Tags),
		Location:   strings.TrimSpace(in.Location),
		Visibility: visibility,
		Likes:      []uint{},
		Comments:   []models.Comment{},
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	metrics.PostsCreated.Inc()

	if err := decoratePosts(ctx, s.users, in.AuthorID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetPostByID(ctx, id)
}

// Delete removes the post with its comments and likes. Only the author may
// delete a post.
func (s *PostService) Delete(ctx context.Context, id string, requesterID uint) error {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return models.NewForbiddenError("Not authorized to delete this post")
	}
	return s.posts.DeletePost(ctx, id, requesterID)
}

func (s *PostService) ByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	return s.posts.GetPostsByAuthor(ctx, authorID)
}

// View returns the post as viewerID sees it. Posts the viewer may not read
// are reported as missing.
func (s *PostService) View(ctx context.Context, viewerID uint, id string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	follows, err := s.followsAuthor(ctx, viewerID, post.AuthorID, post.Visibility)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewerID, follows) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err := decoratePosts(ctx, s.users, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ProfilePosts lists authorID's posts readable by viewerID, newest first.
func (s *PostService) ProfilePosts(ctx context.Context, viewerID, authorID uint) ([]models.Post, error) {
	posts, err := s.posts.GetPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	follows, err := s.followsAuthor(ctx, viewerID, authorID, models.VisibilityFollowers)
	if err != nil {
		return nil, err
	}
	visible := lo.Filter(posts, func(p models.Post, _ int) bool {
		return p.VisibleTo(viewerID, follows)
	})
	if err := decoratePosts(ctx, s.users, viewerID, postPtrs(visible)); err != nil {
		return nil, err
	}
	return visible, nil
}

func (s *PostService) followsAuthor(ctx context.Context, viewerID, authorID uint, visibility string) (bool, error) {
	if viewerID == authorID || visibility != models.VisibilityFollowers {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, viewerID, authorID)
}

// normalizeTags trims tags, drops empty ones and removes duplicates keeping
// the first occurrence.
func normalizeTags(tags []string) []string {
	trimmed := lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	})
	return lo.Uniq(trimmed)
}

func postPtrs(posts []models.Post) []*models.Post {
	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	return ptrs
}

// decoratePosts fills the per-viewer and joined fields: is_liked and the
// author summaries of posts and comments.
func decoratePosts(ctx context.Context, users repositories.UserRepository, viewerID uint, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	var ids []uint
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
		for _, c := range p.Comments {
			ids = append(ids, c.AuthorID)
		}
	}
	authors, err := compacts(ctx, users, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.IsLiked = p.LikedBy(viewerID)
		p.Author = authors[p.AuthorID]
		for i := range p.Comments {
			p.Comments[i].Author = authors[p.Comments[i].AuthorID]
		}
	}
	return nil
}
