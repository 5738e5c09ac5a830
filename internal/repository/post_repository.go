package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/model"
)

// PublishedQuery selects a page of published posts.
type PublishedQuery struct {
	Category string
	Limit    int
	Offset   int
}

// PostRepository defines post persistence operations.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*model.Post, error)
	ListPublished(ctx context.Context, q PublishedQuery) ([]model.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID *uuid.UUID) ([]model.Post, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	posts *Table[model.Post]
	users *Table[model.User]
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		posts: NewTable[model.Post](db),
		users: NewTable[model.User](db),
	}
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.posts.Insert(ctx, post)
}

// FindByID returns a post in any status, without its author.
func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return r.posts.GetByID(ctx, id)
}

// FindPublishedBySlug returns a published post with its author, bio included.
func (r *postRepository) FindPublishedBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post, err := r.posts.GetOne(ctx, Filters{
		"slug":   slug,
		"status": string(model.PostStatusPublished),
	})
	if err != nil {
		return nil, err
	}
	posts := []model.Post{*post}
	if err := r.attachAuthors(ctx, posts, true); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// ListPublished returns one page of published posts, newest first, and the
// total number of published posts matching the category.
func (r *postRepository) ListPublished(ctx context.Context, q PublishedQuery) ([]model.Post, int64, error) {
	filters := Filters{"status": string(model.PostStatusPublished)}
	if q.Category != "" {
		filters["category"] = q.Category
	}

	total, err := r.posts.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	posts, err := r.posts.GetAll(ctx, filters, ListOptions{
		Limit:   q.Limit,
		Offset:  q.Offset,
		OrderBy: "published_at",
	})
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachAuthors(ctx, posts, false); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListByAuthor returns posts in every status, newest first. A nil authorID
// lists the posts of all authors.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID *uuid.UUID) ([]model.Post, error) {
	filters := Filters{}
	if authorID != nil {
		filters["author_id"] = authorID.String()
	}
	posts, err := r.posts.GetAll(ctx, filters, ListOptions{OrderBy: "created_at"})
	if err != nil {
		return nil, err
	}
	if err := r.attachAuthors(ctx, posts, false); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update applies patch and returns the stored post.
func (r *postRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*model.Post, error) {
	return r.posts.Update(ctx, id, patch)
}

// Delete removes a post permanently.
func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.posts.DeleteByID(ctx, id)
}

// attachAuthors loads the author summary of every post with one query.
func (r *postRepository) attachAuthors(ctx context.Context, posts []model.Post, withBio bool) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID.String())
	}

	var authors []model.AuthorSummary
	err := r.users.DB(ctx).
		Model(&model.User{}).
		Select("id", "name", "email", "avatar_url", "bio").
		Where("id IN ?", ids).
		Find(&authors).Error
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}

	byID := make(map[uuid.UUID]model.AuthorSummary, len(authors))
	for _, a := range authors {
		if !withBio {
			a.Bio = nil
		}
		byID[a.ID] = a
	}
	for i := range posts {
		if a, ok := byID[posts[i].AuthorID]; ok {
			author := a
			posts[i].Author = &author
		}
	}
	return nil
}
