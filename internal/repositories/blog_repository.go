package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/warit42/blognest/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlogRepository defines the interface for blog data operations
type BlogRepository interface {
	CreateBlog(ctx context.Context, blog *models.Blog) error
	GetBlogByID(ctx context.Context, id string) (*models.Blog, error)
	GetBlogBySlug(ctx context.Context, blogID string) (*models.Blog, error)
	GetBlogs(ctx context.Context, skip, limit int64) ([]models.Blog, error)
	DeleteBlog(ctx context.Context, id string) error
	IncrementLikesCount(ctx context.Context, blogID string) error
	DecrementLikesCount(ctx context.Context, blogID string) error
	IncrementCommentsCount(ctx context.Context, blogID string) error
	DecrementCommentsCount(ctx context.Context, blogID string) error
}

// MongoBlogRepository implements BlogRepository for MongoDB
type MongoBlogRepository struct {
	collection *mongo.Collection
}

// NewMongoBlogRepository creates a new MongoBlogRepository
func NewMongoBlogRepository(db *mongo.Database) *MongoBlogRepository {
	return &MongoBlogRepository{collection: db.Collection("blogs")}
}

// CreateBlog creates a new blog in MongoDB
func (r *MongoBlogRepository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = time.Now()
	blog.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, blog)
	return err
}

// GetBlogByID retrieves a blog by ID from MongoDB
func (r *MongoBlogRepository) GetBlogByID(ctx context.Context, id string) (*models.Blog, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid blog ID format: %w", err)
	}

	var blog models.Blog
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&blog)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("blog not found")
		}
		return nil, err
	}
	return &blog, nil
}

// GetBlogBySlug retrieves a blog by its URL slug from MongoDB
func (r *MongoBlogRepository) GetBlogBySlug(ctx context.Context, blogID string) (*models.Blog, error) {
	var blog models.Blog
	err := r.collection.FindOne(ctx, bson.M{"blog_id": blogID}).Decode(&blog)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("blog not found")
		}
		return nil, err
	}
	return &blog, nil
}

// GetBlogs retrieves blogs from MongoDB with pagination, newest first
func (r *MongoBlogRepository) GetBlogs(ctx context.Context, skip, limit int64) ([]models.Blog, error) {
	var blogs []models.Blog
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// DeleteBlog deletes a blog by ID from MongoDB
func (r *MongoBlogRepository) DeleteBlog(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid blog ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("blog not found")
	}
	return nil
}

// IncrementLikesCount increments the likes count of a blog
func (r *MongoBlogRepository) IncrementLikesCount(ctx context.Context, blogID string) error {
	return r.adjustCount(ctx, blogID, "likes_count", 1)
}

// DecrementLikesCount decrements the likes count of a blog
func (r *MongoBlogRepository) DecrementLikesCount(ctx context.Context, blogID string) error {
	return r.adjustCount(ctx, blogID, "likes_count", -1)
}

// IncrementCommentsCount increments the comments count of a blog
func (r *MongoBlogRepository) IncrementCommentsCount(ctx context.Context, blogID string) error {
	return r.adjustCount(ctx, blogID, "comments_count", 1)
}

// DecrementCommentsCount decrements the comments count of a blog
func (r *MongoBlogRepository) DecrementCommentsCount(ctx context.Context, blogID string) error {
	return r.adjustCount(ctx, blogID, "comments_count", -1)
}

func (r *MongoBlogRepository) adjustCount(ctx context.Context, blogID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(blogID)
	if err != nil {
		return fmt.Errorf("invalid blog ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}
