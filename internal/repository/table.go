package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "inkwell/internal/errors"
)

// Filters are exact-match column conditions joined with AND.
type Filters map[string]interface{}

// ListOptions controls paging and ordering of GetAll.
// A zero Limit returns every matching row.
type ListOptions struct {
	Limit     int
	Offset    int
	OrderBy   string
	Ascending bool
	Scopes    []func(*gorm.DB) *gorm.DB
}

// Table is generic data access over one GORM model keyed by an "id" column.
//
// Every method returns a value or an error. A missing row is reported as
// errors.ErrNotFound; store failures are wrapped and returned as is.
type Table[T any] struct {
	db *gorm.DB
}

// NewTable creates a table accessor for model T.
func NewTable[T any](db *gorm.DB) *Table[T] {
	return &Table[T]{db: db}
}

// DB exposes the underlying handle for queries a Table cannot express.
func (t *Table[T]) DB(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

func (t *Table[T]) where(ctx context.Context, filters Filters) *gorm.DB {
	q := t.db.WithContext(ctx).Model(new(T))
	if len(filters) > 0 {
		q = q.Where(map[string]interface{}(filters))
	}
	return q
}

// GetByID returns the row with the given id.
func (t *Table[T]) GetByID(ctx context.Context, id interface{}) (*T, error) {
	var row T
	if err := t.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// GetOne returns the first row matching filters.
func (t *Table[T]) GetOne(ctx context.Context, filters Filters) (*T, error) {
	var row T
	if err := t.where(ctx, filters).Take(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// GetAll returns the rows matching filters. An empty result is not an error.
func (t *Table[T]) GetAll(ctx context.Context, filters Filters, opts ListOptions) ([]T, error) {
	q := t.where(ctx, filters).Scopes(opts.Scopes...)
	if opts.OrderBy != "" {
		q = q.Order(clause.OrderByColumn{
			Column: clause.Column{Name: opts.OrderBy},
			Desc:   !opts.Ascending,
		})
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	rows := make([]T, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return rows, nil
}

// Count returns the number of rows matching filters.
func (t *Table[T]) Count(ctx context.Context, filters Filters, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var n int64
	if err := t.where(ctx, filters).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Insert creates row and fills its generated fields.
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Update applies patch to the row with the given id and returns the stored row.
// Keys of patch are column names; nil values clear the column.
// A missing row is detected by the re-read: MySQL counts only changed rows
// in RowsAffected.
func (t *Table[T]) Update(ctx context.Context, id interface{}, patch map[string]interface{}) (*T, error) {
	if err := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	return t.GetByID(ctx, id)
}

// DeleteByID removes the row with the given id.
func (t *Table[T]) DeleteByID(ctx context.Context, id interface{}) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("get: %w", err)
}
