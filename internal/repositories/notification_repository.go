package repositories

import (
	"context"
	"time"

	"github.com/warit42/blognest/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedPageSize is the fixed number of notifications per feed page
const FeedPageSize = 10

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	CheckNotificationExists(ctx context.Context, user uint, notifType, entity, entityModel string) (*models.Notification, error)
	DeleteNotification(ctx context.Context, user uint, notifType, entity, entityModel string) error
	GetByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	SetNotificationReply(ctx context.Context, id primitive.ObjectID, replyID string) error
	GetFeedPage(ctx context.Context, recipientID uint, page int64, filter string, deletedDocCount int64) ([]models.Notification, error)
	MarkFeedSeen(ctx context.Context, recipientID uint, filter string) error
	CountFeed(ctx context.Context, recipientID uint, filter string) (int64, error)
	HasUnseenFromOthers(ctx context.Context, recipientID uint) (bool, error)
	RemoveCommentRefs(ctx context.Context, commentID string) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// EnsureIndexes creates the indexes the feed queries depend on. The
// (notification_for, seen) index keeps the badge existence check from
// scanning the collection.
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "notification_for", Value: 1}, {Key: "seen", Value: 1}}},
		{Keys: bson.D{{Key: "notification_for", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "entity", Value: 1}, {Key: "type", Value: 1}, {Key: "entity_model", Value: 1}}},
	})
	return err
}

// feedFilter builds the query selecting the recipient's feed: notifications
// addressed to them, excluding their own actions, optionally constrained to
// one type. Filter "all" (or empty) means no type constraint.
func feedFilter(recipientID uint, filter string) bson.M {
	query := bson.M{
		"notification_for": recipientID,
		"user":             bson.M{"$ne": recipientID},
	}
	if filter != "" && filter != "all" {
		query["type"] = filter
	}
	return query
}

// feedSkip computes the offset for a feed page, compensated by the number of
// documents the client reports having deleted from its cache since the last
// full fetch. Clamped to >= 0 so a stale or inflated client count can never
// produce a negative skip.
func feedSkip(page, deletedDocCount int64) int64 {
	if page < 1 {
		page = 1
	}
	skip := (page-1)*FeedPageSize - deletedDocCount
	if skip < 0 {
		skip = 0
	}
	return skip
}

// tupleFilter identifies at most one notification by the
// (user, entity, type, entityModel) application-level uniqueness tuple.
func tupleFilter(user uint, notifType, entity, entityModel string) bson.M {
	return bson.M{
		"user":         user,
		"type":         notifType,
		"entity":       entity,
		"entity_model": entityModel,
	}
}

// CreateNotification persists a new notification. It does not enforce the
// tuple uniqueness invariant itself; callers run CheckNotificationExists
// first. Two concurrent check-then-create sequences can both observe
// "does not exist" and both insert — an accepted limitation of the two-step
// protocol.
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// CheckNotificationExists looks up a notification by tuple. Returns nil
// (and no error) when none exists.
func (r *MongoNotificationRepository) CheckNotificationExists(ctx context.Context, user uint, notifType, entity, entityModel string) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOne(ctx, tupleFilter(user, notifType, entity, entityModel)).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

// DeleteNotification deletes at most one notification matching the tuple
func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, user uint, notifType, entity, entityModel string) error {
	_, err := r.collection.DeleteOne(ctx, tupleFilter(user, notifType, entity, entityModel))
	return err
}

// GetByUser retrieves all notifications owned by a user, newest first
func (r *MongoNotificationRepository) GetByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAsRead sets seen on a single notification by id and returns the
// updated document. Returns mongo.ErrNoDocuments when the id matches nothing.
// Seen only ever transitions false -> true; re-marking is a no-op.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"seen": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&notification)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// SetNotificationReply attaches a reply reference to an existing
// notification, so the feed entry it came from shows the reply thread.
func (r *MongoNotificationRepository) SetNotificationReply(ctx context.Context, id primitive.ObjectID, replyID string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reply": replyID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// GetFeedPage fetches one page of the recipient's feed, ordered by creation
// time descending, with the skip offset compensated by the client-reported
// deletion count.
func (r *MongoNotificationRepository) GetFeedPage(ctx context.Context, recipientID uint, page int64, filter string, deletedDocCount int64) ([]models.Notification, error) {
	findOptions := options.Find().
		SetSkip(feedSkip(page, deletedDocCount)).
		SetLimit(FeedPageSize).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, feedFilter(recipientID, filter), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkFeedSeen marks every notification matching the feed filter as seen.
// Callers run it detached from the read path; it is best-effort and
// idempotent, and its failure never fails the read.
func (r *MongoNotificationRepository) MarkFeedSeen(ctx context.Context, recipientID uint, filter string) error {
	_, err := r.collection.UpdateMany(ctx, feedFilter(recipientID, filter), bson.M{"$set": bson.M{"seen": true}})
	return err
}

// CountFeed counts notifications matching the feed filter
func (r *MongoNotificationRepository) CountFeed(ctx context.Context, recipientID uint, filter string) (int64, error) {
	return r.collection.CountDocuments(ctx, feedFilter(recipientID, filter))
}

// HasUnseenFromOthers reports whether the recipient has any unseen
// notification from another user. Limit 1 keeps it an index probe on
// (notification_for, seen) rather than a scan.
func (r *MongoNotificationRepository) HasUnseenFromOthers(ctx context.Context, recipientID uint) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"notification_for": recipientID,
		"seen":             false,
		"user":             bson.M{"$ne": recipientID},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveCommentRefs reconciles notifications after a comment deletion:
// notifications whose primary subject was the comment are removed outright,
// while notifications that merely carried it as their reply keep the entry
// and lose only the reply field. This mirrors the client cache's
// OnDeleteComment / OnDeleteReply split.
func (r *MongoNotificationRepository) RemoveCommentRefs(ctx context.Context, commentID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"comment": commentID}); err != nil {
		return err
	}
	_, err := r.collection.UpdateMany(ctx, bson.M{"reply": commentID}, bson.M{"$unset": bson.M{"reply": ""}})
	return err
}
