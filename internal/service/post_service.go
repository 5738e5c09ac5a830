package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	apperrors "inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

const (
	postCacheTTL = 5 * time.Minute

	// DefaultPageSize is used when a list request names no limit.
	DefaultPageSize = 12
	// MaxPageSize caps the limit of a list request.
	MaxPageSize = 100

	excerptLength = 150

	postGenerationKey = "posts:generation"
)

// PostInput carries the editable fields of a post. Empty strings mean
// "not provided".
type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	Category      string `json:"category"`
	FeaturedImage string `json:"featured_image"`
	Status        string `json:"status"`
}

// ListParams selects a page of published posts.
type ListParams struct {
	Page     int
	Limit    int
	Category string
}

// Normalize applies the default page and limit and clamps the limit.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Pagination describes the position of a page in the full result.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// PostPage is one page of published posts.
type PostPage struct {
	Posts      []model.Post `json:"posts"`
	Pagination Pagination   `json:"pagination"`
}

// PostService implements the post lifecycle and its access rules.
type PostService interface {
	ListPublished(ctx context.Context, params ListParams) (*PostPage, error)
	GetPublished(ctx context.Context, slug string) (*model.Post, error)
	Create(ctx context.Context, actor *auth.Claims, in PostInput) (*model.Post, error)
	ListForActor(ctx context.Context, actor *auth.Claims) ([]model.Post, error)
	GetForActor(ctx context.Context, actor *auth.Claims, id uuid.UUID) (*model.Post, error)
	Update(ctx context.Context, actor *auth.Claims, id uuid.UUID, in PostInput) (*model.Post, error)
	Delete(ctx context.Context, actor *auth.Claims, id uuid.UUID) error
}

type postService struct {
	repo  repository.PostRepository
	cache *cache.Client
	now   func() time.Time
}

// NewPostService creates a new post service. Published reads are cached in
// Redis when the cache client is enabled.
func NewPostService(repo repository.PostRepository, cache *cache.Client) PostService {
	return &postService{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// ListPublished returns a page of published posts, newest first.
func (s *postService) ListPublished(ctx context.Context, params ListParams) (*PostPage, error) {
	params = params.Normalize()

	key := s.listCacheKey(ctx, params)
	if key != "" {
		if data, _ := s.cache.Get(ctx, key); data != nil {
			var cached PostPage
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	posts, total, err := s.repo.ListPublished(ctx, repository.PublishedQuery{
		Category: params.Category,
		Limit:    params.Limit,
		Offset:   (params.Page - 1) * params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}

	page := &PostPage{
		Posts:      posts,
		Pagination: NewPagination(params.Page, params.Limit, total),
	}
	s.store(ctx, key, page)
	return page, nil
}

// GetPublished returns a published post by slug. Drafts are reported as missing.
func (s *postService) GetPublished(ctx context.Context, slug string) (*model.Post, error) {
	key := s.slugCacheKey(ctx, slug)
	if key != "" {
		if data, _ := s.cache.Get(ctx, key); data != nil {
			var cached model.Post
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	post, err := s.repo.FindPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, postError(err)
	}

	s.store(ctx, key, post)
	return post, nil
}

// Create stores a new post owned by the actor. Posts are drafts unless
// published is requested, which requires a category.
func (s *postService) Create(ctx context.Context, actor *auth.Claims, in PostInput) (*model.Post, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !actor.HasRole(model.RoleAdmin, model.RoleAuthor) {
		return nil, apperrors.ErrForbidden
	}
	authorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, apperrors.ErrForbidden
	}

	status := model.PostStatus(in.Status)
	if status == "" {
		status = model.PostStatusDraft
	}
	if err := validation.ValidatePost(validationInput(in, status)); err != nil {
		return nil, err
	}

	content := validation.SanitizeContent(in.Content)
	post := &model.Post{
		ID:            uuid.New(),
		AuthorID:      authorID,
		Title:         strings.TrimSpace(in.Title),
		Slug:          validation.GenerateSlug(in.Title),
		Content:       content,
		Excerpt:       excerptOf(in.Excerpt, content),
		Category:      optional(in.Category),
		FeaturedImage: optional(in.FeaturedImage),
		Status:        status,
	}
	if status == model.PostStatusPublished {
		now := s.now().UTC()
		post.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.invalidate(ctx)
	return post, nil
}

// ListForActor returns every post for admins and the actor's own posts for authors.
func (s *postService) ListForActor(ctx context.Context, actor *auth.Claims) ([]model.Post, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	var authorID *uuid.UUID
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleAuthor:
		id, err := uuid.Parse(actor.UserID)
		if err != nil {
			return nil, apperrors.ErrForbidden
		}
		authorID = &id
	default:
		return nil, apperrors.ErrForbidden
	}

	posts, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetForActor returns a post in any status if the actor may access it.
func (s *postService) GetForActor(ctx context.Context, actor *auth.Claims, id uuid.UUID) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, postError(err)
	}
	if err := auth.CanAccessPost(actor, post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}

// Update replaces the editable fields of a post. Omitted excerpt, category and
// featured image are reset; an omitted status keeps the current one.
//
// The slug is regenerated only when the title changes. published_at is set
// the first time the post becomes published and kept afterwards, including
// when the post goes back to draft.
func (s *postService) Update(ctx context.Context, actor *auth.Claims, id uuid.UUID, in PostInput) (*model.Post, error) {
	existing, err := s.GetForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	status := model.PostStatus(in.Status)
	if status == "" {
		status = existing.Status
	}
	if err := validation.ValidatePost(validationInput(in, status)); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	content := validation.SanitizeContent(in.Content)
	patch := map[string]interface{}{
		"title":          title,
		"content":        content,
		"excerpt":        excerptOf(in.Excerpt, content),
		"category":       optional(in.Category),
		"featured_image": optional(in.FeaturedImage),
		"status":         string(status),
	}
	if title != existing.Title {
		patch["slug"] = validation.GenerateSlug(title)
	}
	if status == model.PostStatusPublished && existing.PublishedAt == nil {
		patch["published_at"] = s.now().UTC()
	}

	post, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, postError(err)
	}

	s.invalidate(ctx)
	return post, nil
}

// Delete removes a post the actor may access. Deletion is permanent.
func (s *postService) Delete(ctx context.Context, actor *auth.Claims, id uuid.UUID) error {
	if _, err := s.GetForActor(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return postError(err)
	}

	s.invalidate(ctx)
	return nil
}

// Cache keys embed a generation counter; every write bumps it so all cached
// pages and posts become unreachable at once.
func (s *postService) generation(ctx context.Context) string {
	data, _ := s.cache.Get(ctx, postGenerationKey)
	if data == nil {
		return "0"
	}
	return string(data)
}

func (s *postService) listCacheKey(ctx context.Context, p ListParams) string {
	if !s.cache.Enabled() {
		return ""
	}
	h := xxhash.Sum64String(p.Category + "\x00" + strconv.Itoa(p.Page) + "\x00" + strconv.Itoa(p.Limit))
	return fmt.Sprintf("posts:%s:list:%016x", s.generation(ctx), h)
}

func (s *postService) slugCacheKey(ctx context.Context, slug string) string {
	if !s.cache.Enabled() {
		return ""
	}
	return fmt.Sprintf("posts:%s:slug:%s", s.generation(ctx), slug)
}

func (s *postService) store(ctx context.Context, key string, v interface{}) {
	if key == "" {
		return
	}
	if payload, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, payload, postCacheTTL)
	}
}

func (s *postService) invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if _, err := s.cache.Incr(ctx, postGenerationKey); err != nil {
		log.Warn().Err(err).Msg("invalidate post cache")
	}
}

func postError(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrPostNotFound
	}
	return fmt.Errorf("post store: %w", err)
}

func validationInput(in PostInput, status model.PostStatus) validation.PostInput {
	return validation.PostInput{
		Title:         in.Title,
		Content:       in.Content,
		Category:      in.Category,
		FeaturedImage: in.FeaturedImage,
		Status:        string(status),
	}
}

// excerptOf returns the trimmed excerpt, or the first characters of content.
func excerptOf(excerpt, content string) string {
	if e := strings.TrimSpace(excerpt); e != "" {
		return e
	}
	if utf8.RuneCountInString(content) <= excerptLength {
		return content
	}
	return string([]rune(content)[:excerptLength])
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
