package models

import "gorm.io/gorm"

// Comment represents a comment on a blog. A reply is a comment whose
// ParentID points at the comment it replies to.
type Comment struct {
	gorm.Model
	BlogID   string `json:"blog_id" gorm:"index"` // MongoDB ObjectID of the blog as hex string
	UserID   uint   `json:"user_id" gorm:"index"`
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
	Content  string `json:"content" validate:"required,min=1,max=500"`
}

// CommentRef is the populated comment/reply reference carried by
// notification views: just the id and the body text.
type CommentRef struct {
	ID      string `json:"_id"`
	Comment string `json:"comment"`
}

// CreateCommentRequest defines the request body for commenting on a blog
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// CreateReplyRequest defines the request body for replying to a comment.
// NotificationID ties the reply back to the feed entry it was composed from.
type CreateReplyRequest struct {
	Content        string `json:"content" validate:"required,min=1,max=500"`
	NotificationID string `json:"notification_id,omitempty"`
}
