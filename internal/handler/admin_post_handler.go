package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/service"
)

// AdminPostHandler serves the dashboard endpoints. Admins see every post,
// authors only their own.
type AdminPostHandler struct {
	postService service.PostService
}

// NewAdminPostHandler creates a new dashboard post handler.
func NewAdminPostHandler(postService service.PostService) *AdminPostHandler {
	return &AdminPostHandler{postService: postService}
}

// List godoc
// @Summary List posts visible to the caller
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/posts [get]
func (h *AdminPostHandler) List(c echo.Context) error {
	claims, _ := auth.ClaimsFromContext(c)
	posts, err := h.postService.ListForActor(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, Response{Data: posts})
}

// Get godoc
// @Summary Get a post by ID
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/posts/{id} [get]
func (h *AdminPostHandler) Get(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	claims, _ := auth.ClaimsFromContext(c)
	post, err := h.postService.GetForActor(c.Request().Context(), claims, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, Response{Data: post})
}

// Update godoc
// @Summary Update a post
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body PostRequest true "Post"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/posts/{id} [put]
func (h *AdminPostHandler) Update(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body")
	}

	claims, _ := auth.ClaimsFromContext(c)
	post, err := h.postService.Update(c.Request().Context(), claims, id, req.input())
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, Response{
		Message: "Post updated successfully",
		Data:    post,
	})
}

// Delete godoc
// @Summary Delete a post
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} Response
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (h *AdminPostHandler) Delete(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	claims, _ := auth.ClaimsFromContext(c)
	if err := h.postService.Delete(c.Request().Context(), claims, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, Response{Message: "Post deleted successfully"})
}

// postID parses the :id path parameter. A malformed ID cannot match any post.
func postID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrPostNotFound
	}
	return id, nil
}
