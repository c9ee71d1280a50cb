package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
)

// EngagementService applies likes, comments and follows and notifies the
// users they target.
//
// The mutation commits before its notification is written; when the
// notification write fails the error is returned and the mutation stays.
type EngagementService struct {
	posts         repositories.PostRepository
	users         repositories.UserRepository
	identity      *IdentityService
	notifications *NotificationService
}

func NewEngagementService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	identity *IdentityService,
	notifications *NotificationService,
) *EngagementService {
	return &EngagementService{posts: posts, users: users, identity: identity, notifications: notifications}
}

// ToggleLike likes the post for userID, or unlikes it when already liked.
func (s *EngagementService) ToggleLike(ctx context.Context, postID string, userID uint) (*models.LikeResult, error) {
	post, liked, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	metrics.LikeToggles.WithLabelValues(metrics.Toggle(liked, "like", "unlike")).Inc()

	if liked && post.AuthorID != userID {
		if err := s.notify(ctx, userID, post.AuthorID, models.NotificationLike, "liked your post", &postID); err != nil {
			return nil, err
		}
	}
	likes := post.Likes
	if likes == nil {
		likes = []uint{}
	}
	return &models.LikeResult{Likes: likes, IsLiked: liked}, nil
}

// AddComment appends a comment by userID to the post.
func (s *EngagementService) AddComment(ctx context.Context, postID string, userID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLen {
		return nil, models.NewValidationError("Comment must be at most 500 characters")
	}

	comment := &models.Comment{AuthorID: userID, Content: content}
	post, err := s.posts.AddComment(ctx, postID, comment)
	if err != nil {
		return nil, err
	}
	metrics.CommentsAdded.Inc()

	if post.AuthorID != userID {
		if err := s.notify(ctx, userID, post.AuthorID, models.NotificationComment, "commented on your post", &postID); err != nil {
			return nil, err
		}
	}
	if author, err := s.users.GetUserByID(ctx, userID); err == nil {
		comment.Author = author.ToCompact()
	}
	return comment, nil
}

// ToggleFollow follows targetID for actorID, or unfollows when already
// following, and reports whether actorID follows targetID afterwards.
func (s *EngagementService) ToggleFollow(ctx context.Context, actorID, targetID uint) (bool, error) {
	following, err := s.identity.Follow(ctx, actorID, targetID)
	if err != nil {
		return false, err
	}
	metrics.FollowToggles.WithLabelValues(metrics.Toggle(following, "follow", "unfollow")).Inc()

	if following {
		if err := s.notify(ctx, actorID, targetID, models.NotificationFollow, "started following you", nil); err != nil {
			return false, err
		}
	}
	return following, nil
}

func (s *EngagementService) notify(ctx context.Context, senderID, recipientID uint, kind, action string, postID *string) error {
	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return err
	}
	n := &models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        kind,
		Message:     sender.Username + " " + action,
		PostID:      postID,
	}
	if err := s.notifications.Record(ctx, n); err != nil {
		log.WithError(err).WithField("type", kind).WithField("recipient_id", recipientID).
			Error("notification not recorded after committed mutation")
		return err
	}
	return nil
}
