package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/warit42/blognest/backend/internal/models"
	"github.com/warit42/blognest/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// CommentHandler handles HTTP requests related to comments and replies
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	blogRepository         repositories.BlogRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		blogRepository:         blogRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/blogs/:blog_id/comments", h.CreateComment)
	g.GET("/blogs/:blog_id/comments", h.GetCommentsByBlogID)
	g.POST("/comments/:id/replies", h.CreateReply)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new comment on a blog and notifies the blog author.
// The notification is stored even when the commenter is the author; the feed
// query filters self-notifications out at read time.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	blogID := c.Param("blog_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	blog, err := h.blogRepository.GetBlogByID(c.Request().Context(), blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	comment := &models.Comment{
		BlogID:  blogID,
		UserID:  currentUserID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.blogRepository.IncrementCommentsCount(context.Background(), blogID)

	commentID := strconv.FormatUint(uint64(comment.ID), 10)
	h.createNotification(&models.Notification{
		Type:            models.NotificationTypeComment,
		NotificationFor: blog.AuthorID,
		User:            currentUserID,
		Blog:            blogID,
		Comment:         commentID,
		Message:         fmt.Sprintf("New comment on %q", blog.Topic),
		Entity:          commentID,
		EntityModel:     "Comment",
	})

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByBlogID retrieves all comments for a blog
func (h *CommentHandler) GetCommentsByBlogID(c echo.Context) error {
	blogID := c.Param("blog_id")

	if _, err := h.blogRepository.GetBlogByID(c.Request().Context(), blogID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	comments, err := h.commentRepository.GetCommentsByBlogID(blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comments)
}

// CreateReply creates a reply to a comment and notifies that comment's
// author. When the request names the notification it was composed from,
// the new reply is also attached to that notification so the recipient's
// feed entry shows the reply thread.
func (h *CommentHandler) CreateReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	parentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.CreateReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	parent, err := h.commentRepository.GetCommentByID(uint(parentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	parentRef := uint(parentID)
	reply := &models.Comment{
		BlogID:   parent.BlogID,
		UserID:   currentUserID,
		ParentID: &parentRef,
		Content:  req.Content,
	}
	if err := h.commentRepository.CreateComment(reply); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.blogRepository.IncrementCommentsCount(context.Background(), parent.BlogID)

	parentIDStr := strconv.FormatUint(parentID, 10)
	replyIDStr := strconv.FormatUint(uint64(reply.ID), 10)
	h.createNotification(&models.Notification{
		Type:             models.NotificationTypeReply,
		NotificationFor:  parent.UserID,
		User:             currentUserID,
		Blog:             parent.BlogID,
		Comment:          parentIDStr,
		Reply:            replyIDStr,
		RepliedOnComment: parentIDStr,
		Message:          "New reply to your comment",
		Entity:           replyIDStr,
		EntityModel:      "Comment",
	})

	if req.NotificationID != "" {
		if notifID, err := primitive.ObjectIDFromHex(req.NotificationID); err == nil {
			if err := h.notificationRepository.SetNotificationReply(c.Request().Context(), notifID, replyIDStr); err != nil {
				log.Printf("Failed to attach reply %s to notification %s: %v", replyIDStr, req.NotificationID, err)
			}
		}
	}

	return c.JSON(http.StatusCreated, reply)
}

// DeleteComment deletes a comment (and its replies) and reconciles the
// notifications that referenced it: entries whose subject it was disappear,
// entries that carried it as a reply keep the entry and lose the reply.
// Only the comment's author or the blog's author may delete it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if comment.UserID != currentUserID {
		blog, err := h.blogRepository.GetBlogByID(c.Request().Context(), comment.BlogID)
		if err != nil || blog.AuthorID != currentUserID {
			return echo.NewHTTPError(http.StatusForbidden, "Not allowed to delete this comment")
		}
	}

	if err := h.commentRepository.DeleteCommentTree(uint(commentID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.blogRepository.DecrementCommentsCount(context.Background(), comment.BlogID)

	if err := h.notificationRepository.RemoveCommentRefs(c.Request().Context(), strconv.FormatUint(commentID, 10)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted"})
}

// createNotification persists a notification off the comment critical path
// in the same detached, log-only manner as the blog counters.
func (h *CommentHandler) createNotification(notification *models.Notification) {
	go func() {
		if err := h.notificationRepository.CreateNotification(context.Background(), notification); err != nil {
			log.Printf("Failed to create %s notification for user %d: %v", notification.Type, notification.NotificationFor, err)
		}
	}()
}
