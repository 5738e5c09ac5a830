package handler

import (
	"github.com/labstack/echo/v4"

	"inkwell/internal/service"
)

// Response is the JSON envelope of every successful API response.
type Response struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       interface{}         `json:"data,omitempty"`
	User       interface{}         `json:"user,omitempty"`
	Token      string              `json:"token,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

func respond(c echo.Context, status int, r Response) error {
	r.Success = true
	return c.JSON(status, r)
}
