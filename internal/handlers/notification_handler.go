package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/warit42/blognest/backend/internal/models"
	"github.com/warit42/blognest/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	blogRepository         repositories.BlogRepository
	commentRepository      repositories.CommentRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, blogRepo repositories.BlogRepository, commentRepo repositories.CommentRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		blogRepository:         blogRepo,
		commentRepository:      commentRepo,
	}
}

// RegisterNotificationRoutes registers the notification CRUD routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.GetNotifications)
	g.POST("", h.CreateNotification)
	g.PATCH("/:id/mark-as-read", h.MarkAsRead)
	g.POST("/delete", h.DeleteNotification)
	g.POST("/check", h.CheckNotification)
}

// RegisterFeedRoutes registers the bearer-authenticated feed routes
func (h *NotificationHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/new-notification", h.NewNotificationAvailable)
	g.POST("/notifications", h.GetFeedPage)
	g.POST("/all-notification-count", h.GetFeedCount)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

// NotificationView is the per-type feed projection: only the references
// relevant to the notification's type are populated, the rest are omitted.
type NotificationView struct {
	ID               string              `json:"_id"`
	Type             string              `json:"type"`
	Seen             bool                `json:"seen"`
	CreatedAt        time.Time           `json:"createdAt"`
	User             *models.UserCompact `json:"user,omitempty"`
	Blog             *models.BlogRef     `json:"blog,omitempty"`
	Comment          *models.CommentRef  `json:"comment,omitempty"`
	RepliedOnComment *models.CommentRef  `json:"replied_on_comment,omitempty"`
	Reply            *models.CommentRef  `json:"reply,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := userCache[n.User]; ok {
			enriched[i].Actor = actor
		} else {
			user, err := h.userRepository.GetUserByID(n.User)
			if err == nil {
				compact := user.ToCompact()
				userCache[n.User] = compact
				enriched[i].Actor = compact
			}
		}
	}
	return enriched
}

// buildFeedViews resolves the references each notification carries: the
// actor's compact profile, the blog's topic and slug, and the bodies of the
// comment, reply and replied-on comment. Lookups that fail leave the
// reference nil rather than failing the page.
func (h *NotificationHandler) buildFeedViews(ctx context.Context, notifications []models.Notification) []NotificationView {
	views := make([]NotificationView, len(notifications))
	userCache := make(map[uint]models.UserCompact)
	commentCache := make(map[string]*models.CommentRef)

	for i, n := range notifications {
		views[i] = NotificationView{
			ID:        n.ID.Hex(),
			Type:      n.Type,
			Seen:      n.Seen,
			CreatedAt: n.CreatedAt,
		}

		if actor, ok := userCache[n.User]; ok {
			views[i].User = &actor
		} else if user, err := h.userRepository.GetUserByID(n.User); err == nil {
			compact := user.ToCompact()
			userCache[n.User] = compact
			views[i].User = &compact
		}

		if n.Blog != "" {
			if blog, err := h.blogRepository.GetBlogByID(ctx, n.Blog); err == nil {
				views[i].Blog = &models.BlogRef{ID: blog.ID.Hex(), BlogID: blog.BlogID, Topic: blog.Topic}
			}
		}

		views[i].Comment = h.resolveComment(commentCache, n.Comment)
		views[i].RepliedOnComment = h.resolveComment(commentCache, n.RepliedOnComment)
		views[i].Reply = h.resolveComment(commentCache, n.Reply)
	}
	return views
}

func (h *NotificationHandler) resolveComment(cache map[string]*models.CommentRef, id string) *models.CommentRef {
	if id == "" {
		return nil
	}
	if ref, ok := cache[id]; ok {
		return ref
	}
	commentID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil
	}
	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		return nil
	}
	ref := &models.CommentRef{ID: id, Comment: comment.Content}
	cache[id] = ref
	return ref
}

// GetNotifications returns all notifications owned by a user, with actor
// fields populated
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userIDParam := c.QueryParam("userId")
	if userIDParam == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}
	userID, err := strconv.ParseUint(userIDParam, 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	notifications, err := h.notificationRepository.GetByUser(c.Request().Context(), uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, h.enrichNotifications(notifications))
}

// CreateNotification creates a new notification. It does not check the
// (user, entity, type, entityModel) uniqueness tuple itself; callers are
// expected to hit the check endpoint first.
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req models.CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notification := &models.Notification{
		Type:        req.Type,
		User:        req.User,
		Message:     req.Message,
		Entity:      req.Entity,
		EntityModel: req.EntityModel,
	}

	if err := h.notificationRepository.CreateNotification(c.Request().Context(), notification); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, notification)
}

// MarkAsRead marks a single notification as read by id
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.notificationRepository.MarkAsRead(c.Request().Context(), id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, notification)
}

// DeleteNotification deletes at most one notification matching the
// (user, entity, type, entityModel) tuple
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	var req models.NotificationTupleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.notificationRepository.DeleteNotification(c.Request().Context(), req.User, req.Type, req.Entity, req.EntityModel); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Notification deleted"})
}

// CheckNotification reports whether a notification already exists for the
// tuple. Check-then-create is not atomic: two concurrent callers can both
// see exists=false and both create. Accepted, documented limitation.
func (h *NotificationHandler) CheckNotification(c echo.Context) error {
	var req models.NotificationTupleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notification, err := h.notificationRepository.CheckNotificationExists(c.Request().Context(), req.User, req.Type, req.Entity, req.EntityModel)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if notification == nil {
		return c.JSON(http.StatusOK, echo.Map{"exists": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": true, "notification": notification})
}

// NewNotificationAvailable reports whether the caller has any unseen
// notification from another user. Read-only: unlike the feed fetch it never
// marks anything seen, so polling it is side-effect-free.
func (h *NotificationHandler) NewNotificationAvailable(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	available, err := h.notificationRepository.HasUnseenFromOthers(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"new_notification_available": available})
}

// GetFeedPage returns one page of the caller's notification feed. The
// recipient always comes from the verified token, never from the body.
// After composing the page it marks the whole filtered set seen in a
// detached goroutine; the response never waits on it and its failure is
// only logged.
func (h *NotificationHandler) GetFeedPage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.FeedPageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Filter == "" {
		req.Filter = "all"
	}
	if req.DeletedDocCount < 0 {
		req.DeletedDocCount = 0
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notifications, err := h.notificationRepository.GetFeedPage(c.Request().Context(), currentUserID, req.Page, req.Filter, req.DeletedDocCount)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := h.buildFeedViews(c.Request().Context(), notifications)

	// Mark the filtered set seen off the response path. Idempotent, so a
	// repeat fetch re-marking already-seen rows is a no-op.
	go func(recipientID uint, filter string) {
		if err := h.notificationRepository.MarkFeedSeen(context.Background(), recipientID, filter); err != nil {
			log.Printf("Failed to mark notifications seen for user %d: %v", recipientID, err)
		}
	}(currentUserID, req.Filter)

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": echo.Map{
			"result": views,
		},
	})
}

// GetFeedCount returns the total number of notifications matching the
// caller's feed filter
func (h *NotificationHandler) GetFeedCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.FeedCountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Filter == "" {
		req.Filter = "all"
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	totalDocs, err := h.notificationRepository.CountFeed(c.Request().Context(), currentUserID, req.Filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"totalDocs": totalDocs})
}
