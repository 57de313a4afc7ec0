package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/warit42/blognest/backend/internal/models"
	"github.com/warit42/blognest/backend/internal/repositories"
)

// BlogHandler handles HTTP requests related to blogs
type BlogHandler struct {
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(blogRepo repositories.BlogRepository, userRepo repositories.UserRepository) *BlogHandler {
	return &BlogHandler{
		blogRepository: blogRepo,
		userRepository: userRepo,
	}
}

// RegisterBlogRoutes registers blog-related routes
func (h *BlogHandler) RegisterBlogRoutes(g *echo.Group) {
	g.POST("/blogs", h.CreateBlog)
	g.GET("/blogs", h.GetBlogs)
	g.GET("/blogs/:blog_id", h.GetBlogBySlug)
	g.DELETE("/blogs/:id", h.DeleteBlog)
}

// EnrichedBlog includes author info
type EnrichedBlog struct {
	models.Blog
	Author models.UserCompact `json:"author"`
}

// CreateBlog publishes a new blog
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateBlogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	blog := &models.Blog{
		BlogID:   req.BlogID,
		Topic:    req.Topic,
		Content:  req.Content,
		AuthorID: currentUserID,
	}
	if err := h.blogRepository.CreateBlog(c.Request().Context(), blog); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, blog)
}

// GetBlogs returns paginated blogs with author info
func (h *BlogHandler) GetBlogs(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	skip := int64((page - 1) * limit)
	blogs, err := h.blogRepository.GetBlogs(c.Request().Context(), skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := make([]EnrichedBlog, len(blogs))
	userCache := make(map[uint]models.UserCompact)
	for i, blog := range blogs {
		enriched[i] = EnrichedBlog{Blog: blog}
		if author, ok := userCache[blog.AuthorID]; ok {
			enriched[i].Author = author
		} else if user, err := h.userRepository.GetUserByID(blog.AuthorID); err == nil {
			compact := user.ToCompact()
			userCache[blog.AuthorID] = compact
			enriched[i].Author = compact
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"blogs": enriched, "page": page})
}

// GetBlogBySlug returns a single blog by its URL slug
func (h *BlogHandler) GetBlogBySlug(c echo.Context) error {
	blog, err := h.blogRepository.GetBlogBySlug(c.Request().Context(), c.Param("blog_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}
	return c.JSON(http.StatusOK, blog)
}

// DeleteBlog deletes a blog; only its author may do so
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	blog, err := h.blogRepository.GetBlogByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}
	if blog.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed to delete this blog")
	}

	if err := h.blogRepository.DeleteBlog(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Blog deleted"})
}
