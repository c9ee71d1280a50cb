package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCommentLen = 500

// Comment is embedded in its post's document and is never edited.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Author    *UserCompact       `json:"author,omitempty" bson:"-"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}
