package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/service"
)

// PostHandler serves the public post endpoints and post creation.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRequest is the body of post create and update requests.
type PostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	Category      string `json:"category"`
	FeaturedImage string `json:"featured_image"`
	Status        string `json:"status" enums:"draft,published"`
}

func (r *PostRequest) input() service.PostInput {
	return service.PostInput{
		Title:         r.Title,
		Content:       r.Content,
		Excerpt:       r.Excerpt,
		Category:      r.Category,
		FeaturedImage: r.FeaturedImage,
		Status:        r.Status,
	}
}

// List godoc
// @Summary List published posts
// @Tags posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Posts per page (max 100)" default(12)
// @Param category query string false "Exact category"
// @Success 200 {object} Response
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	page, err := h.postService.ListPublished(c.Request().Context(), listParams(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, Response{
		Data:       page.Posts,
		Pagination: &page.Pagination,
	})
}

// GetBySlug godoc
// @Summary Get a published post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} Response
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts/{slug} [get]
func (h *PostHandler) GetBySlug(c echo.Context) error {
	post, err := h.postService.GetPublished(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, Response{Data: post})
}

// Create godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post"
// @Success 201 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body")
	}

	claims, _ := auth.ClaimsFromContext(c)
	post, err := h.postService.Create(c.Request().Context(), claims, req.input())
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, Response{
		Message: "Post created successfully",
		Data:    post,
	})
}

// listParams reads page, limit and category. Malformed numbers fall back to
// the defaults applied by the service.
func listParams(c echo.Context) service.ListParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return service.ListParams{
		Page:     page,
		Limit:    limit,
		Category: strings.TrimSpace(c.QueryParam("category")),
	}
}
