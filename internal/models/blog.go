package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blog represents a published blog post stored in MongoDB
type Blog struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BlogID        string             `json:"blog_id" bson:"blog_id"` // URL slug
	Topic         string             `json:"topic" bson:"topic"`
	Content       string             `json:"content" bson:"content"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// BlogRef is the populated blog reference carried by notification views.
// Nil when the blog the notification concerned was deleted.
type BlogRef struct {
	ID     string `json:"_id"`
	BlogID string `json:"blog_id"`
	Topic  string `json:"topic"`
}

// CreateBlogRequest defines the request body for publishing a new blog
type CreateBlogRequest struct {
	BlogID  string `json:"blog_id" validate:"required,min=1,max=100"`
	Topic   string `json:"topic" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1"`
}
