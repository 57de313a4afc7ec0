package repositories

import (
	"github.com/warit42/blognest/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	GetCommentsByBlogID(blogID string) ([]models.Comment, error)
	DeleteCommentTree(id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment (or reply, when ParentID is set)
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetCommentByID retrieves a comment by ID
func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByBlogID retrieves all comments for a blog, oldest first
func (r *PostgresCommentRepository) GetCommentsByBlogID(blogID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("blog_id = ?", blogID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteCommentTree deletes a comment and its direct replies
func (r *PostgresCommentRepository) DeleteCommentTree(id uint) error {
	if err := r.db.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Comment{}, id).Error
}
