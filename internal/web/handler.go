// Package web serves the server-rendered reader pages.
package web

import (
	stderrors "errors"
	"html/template"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/service"
)

const homePageSize = 12

// Handler renders the home page and single post pages.
type Handler struct {
	posts service.PostService
	now   func() time.Time
}

// NewHandler creates the reader page handler.
func NewHandler(posts service.PostService) *Handler {
	return &Handler{posts: posts, now: time.Now}
}

type layoutView struct {
	Title string
	Year  int
}

type authorView struct {
	Name      string
	AvatarURL string
	Bio       string
}

type postCard struct {
	Title         string
	Slug          string
	Excerpt       string
	Category      string
	FeaturedImage string
	PublishedAt   *time.Time
	Author        authorView
}

type indexView struct {
	layoutView
	Posts []postCard
}

type postView struct {
	layoutView
	Post postCard
	Body template.HTML
}

// Index renders the latest published posts.
func (h *Handler) Index(c echo.Context) error {
	page, err := h.posts.ListPublished(c.Request().Context(), service.ListParams{Page: 1, Limit: homePageSize})
	if err != nil {
		return h.failure(c, err)
	}

	cards := make([]postCard, 0, len(page.Posts))
	for i := range page.Posts {
		cards = append(cards, cardOf(&page.Posts[i]))
	}
	return c.Render(http.StatusOK, "index.html", indexView{
		layoutView: h.layout("Latest posts"),
		Posts:      cards,
	})
}

// Post renders one published post with its markdown body.
func (h *Handler) Post(c echo.Context) error {
	post, err := h.posts.GetPublished(c.Request().Context(), c.Param("slug"))
	if stderrors.Is(err, errors.ErrPostNotFound) {
		return c.Render(http.StatusNotFound, "not_found.html", h.layout("Post not found"))
	}
	if err != nil {
		return h.failure(c, err)
	}

	body, err := renderMarkdown(post.Content)
	if err != nil {
		return h.failure(c, err)
	}
	return c.Render(http.StatusOK, "post.html", postView{
		layoutView: h.layout(post.Title),
		Post:       cardOf(post),
		Body:       body,
	})
}

func (h *Handler) failure(c echo.Context, err error) error {
	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("path", c.Request().URL.Path).
		Msg("render page")
	return c.Render(http.StatusInternalServerError, "error.html", h.layout("Something went wrong"))
}

func (h *Handler) layout(title string) layoutView {
	return layoutView{Title: title, Year: h.now().Year()}
}

func cardOf(p *model.Post) postCard {
	card := postCard{
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Category:      deref(p.Category),
		FeaturedImage: deref(p.FeaturedImage),
		PublishedAt:   p.PublishedAt,
	}
	if p.Author != nil {
		card.Author = authorView{
			Name:      p.Author.Name,
			AvatarURL: deref(p.Author.AvatarURL),
			Bio:       deref(p.Author.Bio),
		}
	}
	return card
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
