package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/warit42/blognest/backend/internal/models"
	"github.com/warit42/blognest/backend/internal/repositories"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	blogRepository         repositories.BlogRepository
	notificationRepository repositories.NotificationRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, blogRepo repositories.BlogRepository, notifRepo repositories.NotificationRepository) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		blogRepository:         blogRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/blogs/:blog_id/likes", h.LikeBlog)
	g.DELETE("/blogs/:blog_id/likes", h.UnlikeBlog)
	g.GET("/blogs/:blog_id/likes/count", h.GetLikesCountForBlog)
}

// LikeBlog handles liking a blog. The like notification goes through the
// two-step check-then-create protocol so repeated like/unlike cycles keep a
// single notification per (user, blog) pair. The two steps are not atomic:
// concurrent likes can slip a duplicate through, which is tolerated.
func (h *LikeHandler) LikeBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	blogID := c.Param("blog_id")

	blog, err := h.blogRepository.GetBlogByID(c.Request().Context(), blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	hasLiked, err := h.likeRepository.HasUserLikedBlog(blogID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Blog already liked by this user")
	}

	like := &models.Like{
		BlogID: blogID,
		UserID: currentUserID,
	}
	if err := h.likeRepository.CreateLike(like); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.blogRepository.IncrementLikesCount(context.Background(), blogID)
	go h.notifyLiked(blog, currentUserID)

	return c.JSON(http.StatusCreated, like)
}

// UnlikeBlog handles unliking a blog
func (h *LikeHandler) UnlikeBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	blogID := c.Param("blog_id")

	hasLiked, err := h.likeRepository.HasUserLikedBlog(blogID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !hasLiked {
		return echo.NewHTTPError(http.StatusNotFound, "Like not found")
	}

	if err := h.likeRepository.DeleteLike(blogID, currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.blogRepository.DecrementLikesCount(context.Background(), blogID)
	go func() {
		if err := h.notificationRepository.DeleteNotification(context.Background(), currentUserID, models.NotificationTypeLike, blogID, "Blog"); err != nil {
			log.Printf("Failed to delete like notification for blog %s: %v", blogID, err)
		}
	}()

	return c.NoContent(http.StatusNoContent)
}

// GetLikesCountForBlog returns the number of likes on a blog
func (h *LikeHandler) GetLikesCountForBlog(c echo.Context) error {
	blogID := c.Param("blog_id")

	count, err := h.likeRepository.GetLikesCountForBlog(blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// notifyLiked runs the check-then-create sequence for the like notification,
// detached from the like response and log-only on failure.
func (h *LikeHandler) notifyLiked(blog *models.Blog, likerID uint) {
	ctx := context.Background()
	blogID := blog.ID.Hex()

	existing, err := h.notificationRepository.CheckNotificationExists(ctx, likerID, models.NotificationTypeLike, blogID, "Blog")
	if err != nil {
		log.Printf("Failed to check like notification for blog %s: %v", blogID, err)
		return
	}
	if existing != nil {
		return
	}

	notification := &models.Notification{
		Type:            models.NotificationTypeLike,
		NotificationFor: blog.AuthorID,
		User:            likerID,
		Blog:            blogID,
		Message:         fmt.Sprintf("Someone liked %q", blog.Topic),
		Entity:          blogID,
		EntityModel:     "Blog",
	}
	if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
		log.Printf("Failed to create like notification for blog %s: %v", blogID, err)
	}
}
