package repositories

import (
	"github.com/warit42/blognest/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(blogID string, userID uint) error
	HasUserLikedBlog(blogID string, userID uint) (bool, error)
	GetLikesCountForBlog(blogID string) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like
func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	return r.db.Create(like).Error
}

// DeleteLike removes a user's like from a blog
func (r *PostgresLikeRepository) DeleteLike(blogID string, userID uint) error {
	return r.db.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&models.Like{}).Error
}

// HasUserLikedBlog checks whether a user has already liked a blog
func (r *PostgresLikeRepository) HasUserLikedBlog(blogID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("blog_id = ? AND user_id = ?", blogID, userID).Count(&count).Error
	return count > 0, err
}

// GetLikesCountForBlog returns the number of likes on a blog
func (r *PostgresLikeRepository) GetLikesCountForBlog(blogID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("blog_id = ?", blogID).Count(&count).Error
	return count, err
}
