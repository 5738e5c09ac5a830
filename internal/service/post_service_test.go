package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	apperrors "inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestPostService(repo *MockPostRepository) *postService {
	svc := NewPostService(repo, cache.New("", "", 0)).(*postService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func actorFor(id uuid.UUID, role model.Role) *auth.Claims {
	return &auth.Claims{UserID: id.String(), Email: "actor@example.com", Name: "Actor", Role: role}
}

func strPtr(s string) *string { return &s }

func TestPostService_Create(t *testing.T) {
	authorID := uuid.New()

	tests := []struct {
		name          string
		actor         *auth.Claims
		input         PostInput
		expectCreate  bool
		expectedError string
		check         func(t *testing.T, p *model.Post)
	}{
		{
			name:         "defaults to draft",
			actor:        actorFor(authorID, model.RoleAuthor),
			input:        PostInput{Title: "Hello, World!", Content: "Body"},
			expectCreate: true,
			check: func(t *testing.T, p *model.Post) {
				assert.Equal(t, model.PostStatusDraft, p.Status)
				assert.Nil(t, p.PublishedAt)
				assert.Nil(t, p.Category)
				assert.Equal(t, authorID, p.AuthorID)
				assert.Regexp(t, `^hello-world-[0-9a-z]+$`, p.Slug)
				assert.Equal(t, "Body", p.Excerpt)
			},
		},
		{
			name:         "published with category sets published_at",
			actor:        actorFor(authorID, model.RoleAdmin),
			input:        PostInput{Title: "Launch", Content: "Body", Category: "Technology", Status: "published"},
			expectCreate: true,
			check: func(t *testing.T, p *model.Post) {
				assert.Equal(t, model.PostStatusPublished, p.Status)
				require.NotNil(t, p.PublishedAt)
				assert.Equal(t, fixedNow, *p.PublishedAt)
				require.NotNil(t, p.Category)
				assert.Equal(t, "Technology", *p.Category)
			},
		},
		{
			name:         "content is sanitized and excerpt derived from it",
			actor:        actorFor(authorID, model.RoleAuthor),
			input:        PostInput{Title: "XSS", Content: `<b onclick="x()">hi</b><script>alert(1)</script>` + strings.Repeat("é", 200)},
			expectCreate: true,
			check: func(t *testing.T, p *model.Post) {
				assert.NotContains(t, p.Content, "script")
				assert.NotContains(t, p.Content, "onclick")
				assert.Equal(t, 150, len([]rune(p.Excerpt)))
				assert.True(t, strings.HasPrefix(p.Excerpt, "<b>hi</b>"))
			},
		},
		{
			name:          "publish without category is rejected",
			actor:         actorFor(authorID, model.RoleAuthor),
			input:         PostInput{Title: "No category", Content: "Body", Status: "published"},
			expectedError: "Category is required for published posts",
		},
		{
			name:          "missing title",
			actor:         actorFor(authorID, model.RoleAuthor),
			input:         PostInput{Content: "Body"},
			expectedError: "Title is required",
		},
		{
			name:          "reader cannot create",
			actor:         actorFor(authorID, model.RoleReader),
			input:         PostInput{Title: "T", Content: "C"},
			expectedError: apperrors.ErrForbidden.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			if tt.expectCreate {
				repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Post")).Return(nil)
			}
			svc := newTestPostService(repo)

			post, err := svc.Create(context.Background(), tt.actor, tt.input)

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, post)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				tt.check(t, post)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPostService_Update_Lifecycle(t *testing.T) {
	authorID := uuid.New()
	postID := uuid.New()
	earlier := fixedNow.Add(-48 * time.Hour)

	tests := []struct {
		name     string
		existing *model.Post
		input    PostInput
		// checkPatch inspects the patch sent to the store.
		checkPatch func(t *testing.T, patch map[string]interface{})
	}{
		{
			name:     "draft to published sets published_at",
			existing: &model.Post{ID: postID, AuthorID: authorID, Title: "T", Slug: "t-1", Status: model.PostStatusDraft},
			input:    PostInput{Title: "T", Content: "C", Category: "Food", Status: "published"},
			checkPatch: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, "published", patch["status"])
				assert.Equal(t, fixedNow, patch["published_at"])
				assert.NotContains(t, patch, "slug")
			},
		},
		{
			name:     "published to draft keeps published_at",
			existing: &model.Post{ID: postID, AuthorID: authorID, Title: "T", Slug: "t-1", Status: model.PostStatusPublished, Category: strPtr("Food"), PublishedAt: &earlier},
			input:    PostInput{Title: "T", Content: "C", Status: "draft"},
			checkPatch: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, "draft", patch["status"])
				assert.NotContains(t, patch, "published_at")
				assert.Nil(t, patch["category"])
			},
		},
		{
			name:     "republishing keeps the first published_at",
			existing: &model.Post{ID: postID, AuthorID: authorID, Title: "T", Slug: "t-1", Status: model.PostStatusDraft, PublishedAt: &earlier},
			input:    PostInput{Title: "T", Content: "C", Category: "Food", Status: "published"},
			checkPatch: func(t *testing.T, patch map[string]interface{}) {
				assert.NotContains(t, patch, "published_at")
			},
		},
		{
			name:     "omitted status keeps current status",
			existing: &model.Post{ID: postID, AuthorID: authorID, Title: "T", Slug: "t-1", Status: model.PostStatusPublished, Category: strPtr("Food"), PublishedAt: &earlier},
			input:    PostInput{Title: "T", Content: "C", Category: "Travel"},
			checkPatch: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, "published", patch["status"])
				assert.Equal(t, strPtr("Travel"), patch["category"])
			},
		},
		{
			name:     "title change regenerates slug",
			existing: &model.Post{ID: postID, AuthorID: authorID, Title: "Old", Slug: "old-1", Status: model.PostStatusDraft},
			input:    PostInput{Title: "Brand New", Content: "C"},
			checkPatch: func(t *testing.T, patch map[string]interface{}) {
				assert.Regexp(t, `^brand-new-[0-9a-z]+$`, patch["slug"])
				assert.Equal(t, "C", patch["excerpt"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			repo.On("FindByID", mock.Anything, postID).Return(tt.existing, nil)
			var captured map[string]interface{}
			repo.On("Update", mock.Anything, postID, mock.Anything).
				Run(func(args mock.Arguments) { captured = args.Get(2).(map[string]interface{}) }).
				Return(tt.existing, nil)

			svc := newTestPostService(repo)
			_, err := svc.Update(context.Background(), actorFor(authorID, model.RoleAuthor), postID, tt.input)

			require.NoError(t, err)
			require.NotNil(t, captured)
			tt.checkPatch(t, captured)
			repo.AssertExpectations(t)
		})
	}
}

func TestPostService_Update_Rejections(t *testing.T) {
	authorID := uuid.New()
	postID := uuid.New()
	published := &model.Post{ID: postID, AuthorID: authorID, Title: "T", Status: model.PostStatusPublished, Category: strPtr("Food"), PublishedAt: &fixedNow}

	tests := []struct {
		name    string
		actor   *auth.Claims
		found   *model.Post
		findErr error
		input   PostInput
		wantErr error
		wantMsg string
	}{
		{
			name:    "published post loses its category",
			actor:   actorFor(authorID, model.RoleAuthor),
			found:   published,
			input:   PostInput{Title: "T", Content: "C"},
			wantMsg: "Category is required for published posts",
		},
		{
			name:    "explicit publish without category",
			actor:   actorFor(authorID, model.RoleAdmin),
			found:   &model.Post{ID: postID, AuthorID: authorID, Status: model.PostStatusDraft},
			input:   PostInput{Title: "T", Content: "C", Status: "published"},
			wantMsg: "Category is required for published posts",
		},
		{
			name:    "foreign author",
			actor:   actorFor(uuid.New(), model.RoleAuthor),
			found:   published,
			input:   PostInput{Title: "T", Content: "C", Category: "Food"},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "missing post",
			actor:   actorFor(authorID, model.RoleAdmin),
			findErr: apperrors.ErrNotFound,
			input:   PostInput{Title: "T", Content: "C"},
			wantErr: apperrors.ErrPostNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			if tt.findErr != nil {
				repo.On("FindByID", mock.Anything, postID).Return(nil, tt.findErr)
			} else {
				repo.On("FindByID", mock.Anything, postID).Return(tt.found, nil)
			}

			svc := newTestPostService(repo)
			post, err := svc.Update(context.Background(), tt.actor, postID, tt.input)

			assert.Nil(t, post)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var verr *validation.Error
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantMsg, verr.Message)
			}
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPostService_Delete(t *testing.T) {
	ownerID := uuid.New()
	postID := uuid.New()
	post := &model.Post{ID: postID, AuthorID: ownerID}

	t.Run("foreign author is forbidden", func(t *testing.T) {
		repo := new(MockPostRepository)
		repo.On("FindByID", mock.Anything, postID).Return(post, nil)

		err := newTestPostService(repo).Delete(context.Background(), actorFor(uuid.New(), model.RoleAuthor), postID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("admin deletes any post", func(t *testing.T) {
		repo := new(MockPostRepository)
		repo.On("FindByID", mock.Anything, postID).Return(post, nil)
		repo.On("Delete", mock.Anything, postID).Return(nil)

		err := newTestPostService(repo).Delete(context.Background(), actorFor(uuid.New(), model.RoleAdmin), postID)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		boom := errors.New("db down")
		repo := new(MockPostRepository)
		repo.On("FindByID", mock.Anything, postID).Return(post, nil)
		repo.On("Delete", mock.Anything, postID).Return(boom)

		err := newTestPostService(repo).Delete(context.Background(), actorFor(ownerID, model.RoleAuthor), postID)

		assert.ErrorIs(t, err, boom)
	})
}

func TestPostService_ListPublished(t *testing.T) {
	tests := []struct {
		name      string
		params    ListParams
		wantQuery repository.PublishedQuery
		total     int64
		wantPage  Pagination
	}{
		{
			name:      "defaults",
			params:    ListParams{},
			wantQuery: repository.PublishedQuery{Limit: 12, Offset: 0},
			total:     30,
			wantPage:  Pagination{Page: 1, Limit: 12, Total: 30, TotalPages: 3},
		},
		{
			name:      "second page of five",
			params:    ListParams{Page: 2, Limit: 5},
			wantQuery: repository.PublishedQuery{Limit: 5, Offset: 5},
			total:     12,
			wantPage:  Pagination{Page: 2, Limit: 5, Total: 12, TotalPages: 3},
		},
		{
			name:      "limit is clamped",
			params:    ListParams{Page: 1, Limit: 1000, Category: "Food"},
			wantQuery: repository.PublishedQuery{Category: "Food", Limit: 100, Offset: 0},
			total:     0,
			wantPage:  Pagination{Page: 1, Limit: 100, Total: 0, TotalPages: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			repo.On("ListPublished", mock.Anything, tt.wantQuery).Return([]model.Post{}, tt.total, nil)

			page, err := newTestPostService(repo).ListPublished(context.Background(), tt.params)

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Pagination)
			repo.AssertExpectations(t)
		})
	}
}

func TestPostService_GetPublished(t *testing.T) {
	repo := new(MockPostRepository)
	repo.On("FindPublishedBySlug", mock.Anything, "live").Return(&model.Post{Slug: "live"}, nil)
	repo.On("FindPublishedBySlug", mock.Anything, "draft").Return(nil, apperrors.ErrNotFound)
	svc := newTestPostService(repo)

	post, err := svc.GetPublished(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "live", post.Slug)

	_, err = svc.GetPublished(context.Background(), "draft")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestPostService_ListForActor(t *testing.T) {
	authorID := uuid.New()

	repo := new(MockPostRepository)
	repo.On("ListByAuthor", mock.Anything, (*uuid.UUID)(nil)).Return([]model.Post{{}, {}}, nil)
	repo.On("ListByAuthor", mock.Anything, &authorID).Return([]model.Post{{}}, nil)
	svc := newTestPostService(repo)

	all, err := svc.ListForActor(context.Background(), actorFor(uuid.New(), model.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := svc.ListForActor(context.Background(), actorFor(authorID, model.RoleAuthor))
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = svc.ListForActor(context.Background(), actorFor(uuid.New(), model.RoleReader))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 3, NewPagination(2, 5, 12).TotalPages)
	assert.Equal(t, 1, NewPagination(1, 12, 12).TotalPages)
	assert.Equal(t, 2, NewPagination(1, 12, 13).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 12, 0).TotalPages)
}

func TestExcerptOf(t *testing.T) {
	assert.Equal(t, "given", excerptOf("  given ", "content"))
	assert.Equal(t, "short", excerptOf("", "short"))
	assert.Equal(t, strings.Repeat("a", 150), excerptOf("", strings.Repeat("a", 151)))
}

func TestPostService_CacheKeysDisabledWithoutRedis(t *testing.T) {
	svc := newTestPostService(new(MockPostRepository))
	assert.Empty(t, svc.listCacheKey(context.Background(), ListParams{Page: 1, Limit: 12}))
	assert.Empty(t, svc.slugCacheKey(context.Background(), "slug"))
}
