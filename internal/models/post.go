package models

import (
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"

	MediaImage = "image"
	MediaVideo = "video"

	MaxPostContentLen = 2000
	MaxPostMedia      = 10
)

type Media struct {
	URL  string `json:"url" bson:"url"`
	Kind string `json:"type" bson:"kind"` // image or video
}

// Post represents a social media post stored in MongoDB
type Post struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID   uint               `json:"author_id" bson:"author_id"`
	Author     *UserCompact       `json:"author,omitempty" bson:"-"`
	Content    string             `json:"content" bson:"content"`
	Media      []Media            `json:"media" bson:"media"`
	Tags       []string           `json:"tags" bson:"tags"`
	Location   string             `json:"location,omitempty" bson:"location,omitempty"`
	Visibility string             `json:"visibility" bson:"visibility"`
	Likes      []uint             `json:"likes" bson:"likes"`
	Comments   []Comment          `json:"comments" bson:"comments"`
	Shares     int                `json:"shares" bson:"shares"`
	IsLiked    bool               `json:"is_liked" bson:"-"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p *Post) LikedBy(userID uint) bool {
	return lo.Contains(p.Likes, userID)
}

// EngagementScore weights likes once, comments twice and shares three times.
func (p *Post) EngagementScore() int {
	return len(p.Likes) + 2*len(p.Comments) + 3*p.Shares
}

// VisibleTo reports whether viewerID may read the post. followsAuthor tells
// whether the viewer follows the post's author.
func (p *Post) VisibleTo(viewerID uint, followsAuthor bool) bool {
	switch {
	case p.Visibility == VisibilityPublic:
		return true
	case p.AuthorID == viewerID:
		return true
	default:
		return p.Visibility == VisibilityFollowers && followsAuthor
	}
}

type MediaRequest struct {
	URL  string `json:"url" validate:"required"`
	Kind string `json:"type" validate:"required,oneof=image video"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content    string         `json:"content" validate:"required"`
	Media      []MediaRequest `json:"media,omitempty" validate:"omitempty,max=10,dive"`
	Tags       []string       `json:"tags,omitempty"`
	Location   string         `json:"location,omitempty" validate:"omitempty,max=100"`
	Visibility string         `json:"visibility,omitempty" validate:"omitempty,oneof=public followers"`
}

// LikeResult is the post's like set after a toggle.
type LikeResult struct {
	Likes   []uint `json:"likes"`
	IsLiked bool   `json:"isLiked"`
}
