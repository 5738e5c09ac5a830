package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkwell/internal/auth"
	apperrors "inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// SeedUser describes an account to create when missing.
type SeedUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Bio      string `json:"bio"`
}

// SeedPost describes a post created on behalf of a seeded user.
type SeedPost struct {
	AuthorEmail string `json:"author_email"`
	PostInput
}

// SeedData is the document accepted by the seed command.
type SeedData struct {
	Users []SeedUser `json:"users"`
	Posts []SeedPost `json:"posts"`
}

// SeedResult counts what a seed run changed.
type SeedResult struct {
	UsersCreated int
	UsersSkipped int
	PostsCreated int
}

// SeedService loads initial accounts and posts.
type SeedService interface {
	Seed(ctx context.Context, data SeedData) (SeedResult, error)
}

type seedService struct {
	users repository.UserRepository
	auth  AuthService
	posts PostService
}

// NewSeedService creates a seed service on top of the auth and post services,
// so seeded data goes through the same validation as API requests.
func NewSeedService(users repository.UserRepository, authService AuthService, postService PostService) SeedService {
	return &seedService{users: users, auth: authService, posts: postService}
}

// Seed creates missing users, then creates every post. Existing users are
// left untouched; posts are always new since slugs are unique per call.
func (s *seedService) Seed(ctx context.Context, data SeedData) (SeedResult, error) {
	var res SeedResult

	for _, u := range data.Users {
		user, err := s.auth.Register(ctx, RegisterInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		switch {
		case errors.Is(err, apperrors.ErrEmailExists):
			res.UsersSkipped++
			continue
		case err != nil:
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.UsersCreated++

		if bio := strings.TrimSpace(u.Bio); bio != "" {
			if _, err := s.users.Update(ctx, user.ID, map[string]interface{}{"bio": bio}); err != nil {
				return res, fmt.Errorf("seed bio %s: %w", u.Email, err)
			}
		}
	}

	for _, p := range data.Posts {
		author, err := s.users.FindByEmail(ctx, p.AuthorEmail)
		if err != nil {
			return res, fmt.Errorf("seed post %q: author %s: %w", p.Title, p.AuthorEmail, err)
		}
		actor := &auth.Claims{
			UserID: author.ID.String(),
			Email:  author.Email,
			Name:   author.Name,
			Role:   author.Role,
		}
		if author.Role == model.RoleReader {
			return res, fmt.Errorf("seed post %q: %s is a reader", p.Title, author.Email)
		}
		if _, err := s.posts.Create(ctx, actor, p.PostInput); err != nil {
			return res, fmt.Errorf("seed post %q: %w", p.Title, err)
		}
		res.PostsCreated++
	}

	return res, nil
}
