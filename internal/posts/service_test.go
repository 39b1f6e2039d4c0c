package posts_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/repo/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*posts.Service, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &fakeClock{now: time.Date(2024, 4, 1, 9, 0, 0, 123456789, time.UTC)}
	service := posts.NewService(store)
	service.SetNow(clock.Now)
	return service, store, clock
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}

func validNewPost(i int) posts.NewPost {
	return posts.NewPost{
		Title:   fmt.Sprintf("Aula %d de programação", i),
		Content: fmt.Sprintf("Conteúdo da aula %d com exemplos práticos", i),
		Author:  "Prof. Ana",
		Tags:    []string{"aula"},
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	service, store, clock := newTestService(t)

	post, err := service.Create(ctx, posts.NewPost{
		Title:   "  Introdução a Go  ",
		Content: "  " + strings.Repeat("palavra ", 250) + "  ",
		Author:  " Prof. Ana ",
		Tags:    []string{"Go", " backend ", "go", ""},
	})
	require.NoError(t, err)

	_, err = posts.ParseID(post.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Introdução a Go", post.Title)
	assert.Equal(t, "Prof. Ana", post.Author)
	assert.Equal(t, []string{"go", "backend"}, post.Tags)
	assert.Equal(t, 2, post.ReadTime)
	assert.True(t, post.IsPublished)
	assert.Equal(t, clock.now.Truncate(time.Millisecond), post.CreatedAt)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)
	assert.Equal(t, 1, store.PostsCount())

	stored, err := service.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post, stored)

	draft, err := service.Create(ctx, posts.NewPost{
		Title:       "Rascunho",
		Content:     "Ainda escrevendo este post",
		Author:      "Prof. Ana",
		IsPublished: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)
	assert.Equal(t, []string{}, draft.Tags)
	assert.NotEqual(t, post.ID, draft.ID)
}

func TestService_Create_validation(t *testing.T) {
	service, store, _ := newTestService(t)

	_, err := service.Create(context.Background(), posts.NewPost{
		Title:   "   ",
		Content: "curto",
		Author:  "A",
	})
	var vErr *posts.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Errors, 3)
	assert.Equal(t, 0, store.PostsCount())
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	_, err := service.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, posts.ErrInvalidID)

	_, err = service.Get(ctx, posts.NewID())
	assert.ErrorIs(t, err, posts.ErrPostNotFound)

	// drafts are returned, the caller decides on visibility
	draft, err := service.Create(ctx, posts.NewPost{
		Title:       "Rascunho",
		Content:     "Ainda escrevendo este post",
		Author:      "Prof. Ana",
		IsPublished: boolPtr(false),
	})
	require.NoError(t, err)
	got, err := service.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t)

	post, err := service.Create(ctx, validNewPost(1))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	newContent := strings.Repeat("texto ", 401)
	updated, err := service.Update(ctx, post.ID, posts.Update{
		Title:   strPtr("  Título novo  "),
		Content: strPtr(newContent),
		Tags:    &[]string{"Novo", "novo"},
	})
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, "Título novo", updated.Title)
	assert.Equal(t, post.Author, updated.Author)
	assert.Equal(t, []string{"novo"}, updated.Tags)
	assert.Equal(t, 3, updated.ReadTime)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock.now.Truncate(time.Millisecond), updated.UpdatedAt)
	assert.True(t, updated.IsPublished)

	unpublished, err := service.Update(ctx, post.ID, posts.Update{IsPublished: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
	assert.Equal(t, "Título novo", unpublished.Title)

	clock.Advance(time.Minute)
	unchanged, err := service.Update(ctx, post.ID, posts.Update{})
	require.NoError(t, err)
	assert.Equal(t, unpublished.UpdatedAt, unchanged.UpdatedAt)

	stored, err := service.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, unpublished, stored)
}

func TestService_Update_errors(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t)

	_, err := service.Update(ctx, "123", posts.Update{Title: strPtr("Novo título")})
	assert.ErrorIs(t, err, posts.ErrInvalidID)

	_, err = service.Update(ctx, posts.NewID(), posts.Update{Title: strPtr("Novo título")})
	assert.ErrorIs(t, err, posts.ErrPostNotFound)

	post, err := service.Create(ctx, validNewPost(1))
	require.NoError(t, err)

	_, err = service.Update(ctx, post.ID, posts.Update{Title: strPtr("no")})
	var vErr *posts.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Errors[0].Field)

	// a clock going backwards never puts updatedAt before createdAt
	clock.Advance(-time.Hour)
	updated, err := service.Update(ctx, post.ID, posts.Update{Author: strPtr("Prof. Bruno")})
	require.NoError(t, err)
	assert.Equal(t, updated.CreatedAt, updated.UpdatedAt)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)

	post, err := service.Create(ctx, validNewPost(1))
	require.NoError(t, err)

	_, err = service.Delete(ctx, "bad")
	assert.ErrorIs(t, err, posts.ErrInvalidID)

	deleted, err := service.Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, store.PostsCount())

	deleted, err = service.Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = service.Get(ctx, post.ID)
	assert.ErrorIs(t, err, posts.ErrPostNotFound)
}

func TestService_ListPublished(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t)

	var created []*posts.Post
	for i := 0; i < 12; i++ {
		newPost := validNewPost(i)
		if i%4 == 0 {
			newPost.IsPublished = boolPtr(false)
		}
		post, err := service.Create(ctx, newPost)
		require.NoError(t, err)
		created = append(created, post)
		clock.Advance(time.Minute)
	}

	page, err := service.ListPublished(ctx, posts.ListParams{PageRequest: posts.PageRequest{Page: 1, Limit: 5}})
	require.NoError(t, err)
	assert.Equal(t, 9, page.TotalPosts)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Posts, 5)
	// newest first
	assert.Equal(t, created[11].ID, page.Posts[0].ID)
	for _, p := range page.Posts {
		assert.True(t, p.IsPublished)
	}

	page, err = service.ListPublished(ctx, posts.ListParams{PageRequest: posts.PageRequest{Page: 2, Limit: 5}})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 4)
	assert.False(t, page.HasNextPage)

	page, err = service.ListPublished(ctx, posts.ListParams{
		PageRequest: posts.PageRequest{Page: 1, Limit: 100},
		Sort:        posts.SortSpec{Field: posts.SortByCreatedAt},
	})
	require.NoError(t, err)
	assert.Equal(t, created[1].ID, page.Posts[0].ID)

	page, err = service.ListPublished(ctx, posts.ListParams{IncludeDrafts: true})
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalPosts)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	_, err := service.Create(ctx, posts.NewPost{
		Title: "Ponteiros em C", Content: "Aritmética de ponteiros explicada", Author: "Prof. Ana", Tags: []string{"c"},
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, posts.NewPost{
		Title: "Classes em Python", Content: "Orientação a objetos com exemplos", Author: "Prof. Ana", Tags: []string{"python", "poo"},
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, posts.NewPost{
		Title: "Ponteiros secretos", Content: "Rascunho que não deve aparecer", Author: "Prof. Ana", IsPublished: boolPtr(false),
	})
	require.NoError(t, err)

	page, err := service.Search(ctx, "  PONTEIROS ", posts.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalPosts)
	assert.Equal(t, "Ponteiros em C", page.Posts[0].Title)

	page, err = service.Search(ctx, "poo", posts.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalPosts)
	assert.Equal(t, "Classes em Python", page.Posts[0].Title)

	page, err = service.Search(ctx, "golang", posts.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPosts)
	assert.Equal(t, []*posts.Post{}, page.Posts)

	for _, term := range []string{"", " ", "a", " é "} {
		_, err = service.Search(ctx, term, posts.PageRequest{})
		var vErr *posts.ValidationError
		require.ErrorAs(t, err, &vErr, term)
		assert.Equal(t, "q", vErr.Errors[0].Field)
	}
}

func TestService_FindByAuthorAndTags(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	_, err := service.Create(ctx, posts.NewPost{
		Title: "Go concorrente", Content: "Goroutines e canais na prática", Author: "Prof. Ana", Tags: []string{"go", "concorrencia"},
	})
	require.NoError(t, err)
	_, err = service.Create(ctx, posts.NewPost{
		Title: "SQL básico", Content: "SELECT, JOIN e GROUP BY", Author: "Prof. Bruno", Tags: []string{"sql"},
	})
	require.NoError(t, err)

	page, err := service.FindByAuthor(ctx, " Prof. Bruno ", posts.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalPosts)
	assert.Equal(t, "SQL básico", page.Posts[0].Title)

	_, err = service.FindByAuthor(ctx, "  ", posts.PageRequest{})
	var vErr *posts.ValidationError
	require.ErrorAs(t, err, &vErr)

	page, err = service.FindByTags(ctx, []string{"SQL", "go"}, posts.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPosts)

	page, err = service.FindByTags(ctx, []string{"rust"}, posts.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPosts)

	_, err = service.FindByTags(ctx, []string{" ", ""}, posts.PageRequest{})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tags", vErr.Errors[0].Field)
}

func TestService_Counts(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &posts.Stats{}, stats)

	for i := 0; i < 5; i++ {
		newPost := validNewPost(i)
		newPost.IsPublished = boolPtr(i < 3)
		_, err := service.Create(ctx, newPost)
		require.NoError(t, err)
	}

	published, err := service.CountPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, published)

	drafts, err := service.CountDrafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, drafts)

	stats, err = service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &posts.Stats{Published: 3, Drafts: 2, Total: 5}, stats)
}

func TestService_storeErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	storeMock := NewMockStore(ctrl)
	service := posts.NewService(storeMock)

	storeErr := errors.New("connection refused")

	storeMock.EXPECT().
		Find(gomock.Any(), posts.PublishedOnly(), posts.DefaultSort, posts.PageRequest{Page: 1, Limit: 10}).
		Return(nil, 0, storeErr)
	_, err := service.ListPublished(ctx, posts.ListParams{})
	assert.ErrorIs(t, err, storeErr)

	storeMock.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(storeErr)
	_, err = service.Create(ctx, validNewPost(1))
	assert.ErrorIs(t, err, storeErr)

	id := posts.NewID()
	storeMock.EXPECT().
		Get(gomock.Any(), id).
		Return(&posts.Post{
			ID:          id,
			Title:       "Post existente",
			Content:     "Conteúdo já salvo no banco",
			Author:      "Prof. Ana",
			IsPublished: true,
		}, nil)
	storeMock.EXPECT().
		Replace(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, post *posts.Post) error {
			assert.Equal(t, id, post.ID)
			assert.Equal(t, "Título atualizado", post.Title)
			return posts.ErrPostNotFound
		})
	_, err = service.Update(ctx, id, posts.Update{Title: strPtr("Título atualizado")})
	assert.ErrorIs(t, err, posts.ErrPostNotFound)

	storeMock.EXPECT().
		Count(gomock.Any(), posts.PublishedOnly()).
		Return(0, storeErr)
	_, err = service.Stats(ctx)
	assert.ErrorIs(t, err, storeErr)

	storeMock.EXPECT().
		Delete(gomock.Any(), id).
		Return(false, storeErr)
	_, err = service.Delete(ctx, id)
	assert.ErrorIs(t, err, storeErr)
}
