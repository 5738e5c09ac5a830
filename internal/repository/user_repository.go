package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*model.User, error)
}

type userRepository struct {
	users *Table[model.User]
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{users: NewTable[model.User](db)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.users.Insert(ctx, user)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.users.GetByID(ctx, id)
}

// FindByEmail looks the user up by its lower-cased email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.users.GetOne(ctx, Filters{"email": strings.ToLower(email)})
}

// Update applies a column patch, such as a new bio or avatar, and returns the stored user.
func (r *userRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*model.User, error) {
	return r.users.Update(ctx, id, patch)
}
