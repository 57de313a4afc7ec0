package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"
)

// Notification represents a notification stored in MongoDB.
//
// NotificationFor is the recipient; User is the actor who triggered it.
// Self-notifications are stored but filtered out at query time (user != recipient
// is part of every feed filter), so an author's own actions never surface in
// their feed.
//
// The Blog/Comment/Reply/RepliedOnComment references depend on Type:
// like carries Blog; comment carries Blog+Comment; reply carries
// Blog+Comment (the parent), Reply (the new reply) and RepliedOnComment.
// Blog is empty when the blog the notification concerned was deleted.
type Notification struct {
	ID               primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Type             string             `json:"type" bson:"type"`
	NotificationFor  uint               `json:"notification_for" bson:"notification_for"`
	User             uint               `json:"user" bson:"user"`
	Blog             string             `json:"blog,omitempty" bson:"blog,omitempty"`
	Comment          string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Reply            string             `json:"reply,omitempty" bson:"reply,omitempty"`
	RepliedOnComment string             `json:"replied_on_comment,omitempty" bson:"replied_on_comment,omitempty"`
	Message          string             `json:"message,omitempty" bson:"message,omitempty"`
	Entity           string             `json:"entity,omitempty" bson:"entity,omitempty"`
	EntityModel      string             `json:"entityModel,omitempty" bson:"entity_model,omitempty"`
	Seen             bool               `json:"seen" bson:"seen"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
}

// CreateNotificationRequest defines the request body for the create endpoint.
// All five fields are required.
type CreateNotificationRequest struct {
	User        uint   `json:"user" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=like comment reply"`
	Message     string `json:"message" validate:"required"`
	Entity      string `json:"entity" validate:"required"`
	EntityModel string `json:"entityModel" validate:"required"`
}

// NotificationTupleRequest identifies a notification by the
// (user, type, entity, entityModel) tuple, used by the delete and
// check endpoints.
type NotificationTupleRequest struct {
	User        uint   `json:"user" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Entity      string `json:"entity" validate:"required"`
	EntityModel string `json:"entityModel" validate:"required"`
}

// FeedPageRequest defines the request body for the paginated feed endpoint.
// DeletedDocCount is a client-supplied hint compensating the skip offset for
// items the client removed from its cache since the last full fetch; the
// server clamps the resulting skip to >= 0 and never treats it as more than
// a hint.
type FeedPageRequest struct {
	Page            int64  `json:"page"`
	Filter          string `json:"filter" validate:"omitempty,oneof=all like comment reply"`
	DeletedDocCount int64  `json:"deletedDoccount"`
}

// FeedCountRequest defines the request body for the feed count endpoint
type FeedCountRequest struct {
	Filter string `json:"filter" validate:"omitempty,oneof=all like comment reply"`
}
