// Package repotest holds the behaviour every posts.Store implementation has to provide.
package repotest

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/edublog/internal/posts"
)

var idRegex = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NewStoreFunc returns an empty store, ready to be used by a single test.
type NewStoreFunc func(t *testing.T) posts.Store

func RunStoreTests(t *testing.T, newStore NewStoreFunc) {
	t.Helper()

	t.Run("insert and get", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("get missing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("replace", func(t *testing.T) { testReplace(t, newStore(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("find published paginated", func(t *testing.T) { testFindPublishedPaginated(t, newStore(t)) })
	t.Run("find sorted", func(t *testing.T) { testFindSorted(t, newStore(t)) })
	t.Run("find by term", func(t *testing.T) { testFindByTerm(t, newStore(t)) })
	t.Run("find by author and tags", func(t *testing.T) { testFindByAuthorAndTags(t, newStore(t)) })
	t.Run("count", func(t *testing.T) { testCount(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestPost(i int, published bool, tags ...string) *posts.Post {
	createdAt := baseTime.Add(time.Duration(i) * time.Hour)
	content := fmt.Sprintf("conteúdo do post número %d sobre programação", i)
	if tags == nil {
		tags = []string{}
	}
	return &posts.Post{
		Title:       fmt.Sprintf("Post %02d", i),
		Content:     content,
		Author:      "Prof. Ana",
		Tags:        tags,
		IsPublished: published,
		ReadTime:    posts.ReadTimeFor(content),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func insertAll(t *testing.T, store posts.Store, toInsert ...*posts.Post) {
	t.Helper()
	for _, p := range toInsert {
		require.NoError(t, store.Insert(context.Background(), p))
		require.NotEmpty(t, p.ID)
	}
}

func assertSamePost(t *testing.T, expected, actual *posts.Post) {
	t.Helper()
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Title, actual.Title)
	assert.Equal(t, expected.Content, actual.Content)
	assert.Equal(t, expected.Author, actual.Author)
	assert.ElementsMatch(t, expected.Tags, actual.Tags)
	assert.Equal(t, expected.IsPublished, actual.IsPublished)
	assert.Equal(t, expected.ReadTime, actual.ReadTime)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt), "createdAt %s != %s", expected.CreatedAt, actual.CreatedAt)
	assert.True(t, expected.UpdatedAt.Equal(actual.UpdatedAt), "updatedAt %s != %s", expected.UpdatedAt, actual.UpdatedAt)
}

func titles(list []*posts.Post) []string {
	result := make([]string, 0, len(list))
	for _, p := range list {
		result = append(result, p.Title)
	}
	return result
}

func testInsertAndGet(t *testing.T, store posts.Store) {
	ctx := context.Background()

	post := newTestPost(1, true, "go", "backend")
	insertAll(t, store, post)
	assert.Regexp(t, idRegex, string(post.ID))

	stored, err := store.Get(ctx, post.ID)
	require.NoError(t, err)
	assertSamePost(t, post, stored)

	// a preset id is kept
	withID := newTestPost(2, true)
	withID.ID = posts.NewID()
	presetID := withID.ID
	insertAll(t, store, withID)
	assert.Equal(t, presetID, withID.ID)

	stored, err = store.Get(ctx, presetID)
	require.NoError(t, err)
	assertSamePost(t, withID, stored)
}

func testGetMissing(t *testing.T, store posts.Store) {
	_, err := store.Get(context.Background(), posts.NewID())
	assert.ErrorIs(t, err, posts.ErrPostNotFound)
}

func testReplace(t *testing.T, store posts.Store) {
	ctx := context.Background()

	post := newTestPost(1, true, "go")
	insertAll(t, store, post)

	post.Title = "Título atualizado"
	post.Tags = []string{"go", "testes"}
	post.IsPublished = false
	post.UpdatedAt = post.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.Replace(ctx, post))

	stored, err := store.Get(ctx, post.ID)
	require.NoError(t, err)
	assertSamePost(t, post, stored)

	missing := newTestPost(2, true)
	missing.ID = posts.NewID()
	assert.ErrorIs(t, store.Replace(ctx, missing), posts.ErrPostNotFound)
}

func testDelete(t *testing.T, store posts.Store) {
	ctx := context.Background()

	post := newTestPost(1, true)
	insertAll(t, store, post)

	deleted, err := store.Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Get(ctx, post.ID)
	assert.ErrorIs(t, err, posts.ErrPostNotFound)
}

func testFindPublishedPaginated(t *testing.T, store posts.Store) {
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		insertAll(t, store, newTestPost(i, true))
	}
	insertAll(t, store, newTestPost(8, false), newTestPost(9, false))

	found, total, err := store.Find(ctx, posts.PublishedOnly(), posts.DefaultSort, posts.PageRequest{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, []string{"Post 07", "Post 06", "Post 05"}, titles(found))

	found, total, err = store.Find(ctx, posts.PublishedOnly(), posts.DefaultSort, posts.PageRequest{Page: 3, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, []string{"Post 01"}, titles(found))

	found, total, err = store.Find(ctx, posts.PublishedOnly(), posts.DefaultSort, posts.PageRequest{Page: 4, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, found)

	found, total, err = store.Find(ctx, posts.PublishedOnly(), posts.DefaultSort, posts.PageRequest{Page: 922337203685477582, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, found)

	found, total, err = store.Find(ctx, posts.Filter{}, posts.DefaultSort, posts.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	assert.Equal(t, []string{"Post 09", "Post 08"}, titles(found))

	found, total, err = store.Find(ctx, posts.DraftsOnly(), posts.DefaultSort, posts.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, p := range found {
		assert.False(t, p.IsPublished)
	}
}

func testFindSorted(t *testing.T, store posts.Store) {
	ctx := context.Background()

	a := newTestPost(1, true)
	a.Title = "Banco de dados"
	a.Author = "Carla"
	b := newTestPost(2, true)
	b.Title = "Algoritmos"
	b.Author = "Bruno"
	c := newTestPost(3, true)
	c.Title = "Concorrência em Go"
	c.Author = "Ana"
	insertAll(t, store, a, b, c)

	pr := posts.PageRequest{Page: 1, Limit: 10}

	found, _, err := store.Find(ctx, posts.PublishedOnly(), posts.SortSpec{Field: posts.SortByTitle}, pr)
	require.NoError(t, err)
	assert.Equal(t, []string{"Algoritmos", "Banco de dados", "Concorrência em Go"}, titles(found))

	found, _, err = store.Find(ctx, posts.PublishedOnly(), posts.SortSpec{Field: posts.SortByAuthor, Desc: true}, pr)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banco de dados", "Algoritmos", "Concorrência em Go"}, titles(found))

	found, _, err = store.Find(ctx, posts.PublishedOnly(), posts.SortSpec{Field: posts.SortByCreatedAt}, pr)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banco de dados", "Algoritmos", "Concorrência em Go"}, titles(found))
}

func testFindByTerm(t *testing.T, store posts.Store) {
	ctx := context.Background()

	inTitle := newTestPost(1, true)
	inTitle.Title = "Introdução ao JavaScript"
	inContent := newTestPost(2, true)
	inContent.Content = "Neste post falamos de javascript moderno e promises"
	inTag := newTestPost(3, true, "javascript-avancado")
	draft := newTestPost(4, false)
	draft.Title = "JavaScript rascunho"
	special := newTestPost(5, true)
	special.Title = "C++ e 100% de cobertura"
	other := newTestPost(6, true)
	other.Title = "Python para iniciantes"
	insertAll(t, store, inTitle, inContent, inTag, draft, special, other)

	pr := posts.PageRequest{Page: 1, Limit: 10}
	search := func(term string) ([]*posts.Post, int) {
		filter := posts.PublishedOnly()
		filter.Term = term
		found, total, err := store.Find(ctx, filter, posts.DefaultSort, pr)
		require.NoError(t, err)
		return found, total
	}

	found, total := search("JAVASCRIPT")
	assert.Equal(t, 3, total)
	assert.ElementsMatch(t, []posts.ID{inTitle.ID, inContent.ID, inTag.ID}, []posts.ID{found[0].ID, found[1].ID, found[2].ID})

	// the term is a literal, never a pattern
	found, total = search("c++")
	assert.Equal(t, 1, total)
	assert.Equal(t, special.ID, found[0].ID)

	_, total = search("100%")
	assert.Equal(t, 1, total)

	_, total = search(".*")
	assert.Equal(t, 0, total)

	_, total = search("_")
	assert.Equal(t, 0, total)

	found, total = search("inexistente")
	assert.Equal(t, 0, total)
	assert.Empty(t, found)
}

func testFindByAuthorAndTags(t *testing.T, store posts.Store) {
	ctx := context.Background()

	p1 := newTestPost(1, true, "go", "backend")
	p1.Author = "Bruno"
	p2 := newTestPost(2, true, "frontend")
	p2.Author = "Bruno"
	p3 := newTestPost(3, false, "go")
	p3.Author = "Bruno"
	p4 := newTestPost(4, true, "go")
	insertAll(t, store, p1, p2, p3, p4)

	pr := posts.PageRequest{Page: 1, Limit: 10}

	byAuthor := posts.PublishedOnly()
	byAuthor.Author = "Bruno"
	found, total, err := store.Find(ctx, byAuthor, posts.DefaultSort, pr)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []posts.ID{p2.ID, p1.ID}, []posts.ID{found[0].ID, found[1].ID})

	// author match is exact
	byAuthor.Author = "bru"
	_, total, err = store.Find(ctx, byAuthor, posts.DefaultSort, pr)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	byTags := posts.PublishedOnly()
	byTags.Tags = []string{"go", "frontend"}
	_, total, err = store.Find(ctx, byTags, posts.DefaultSort, pr)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	byTags.Tags = []string{"backend"}
	found, total, err = store.Find(ctx, byTags, posts.DefaultSort, pr)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, p1.ID, found[0].ID)
}

func testCount(t *testing.T, store posts.Store) {
	ctx := context.Background()

	count, err := store.Count(ctx, posts.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	insertAll(t, store, newTestPost(1, true), newTestPost(2, true), newTestPost(3, false))

	count, err = store.Count(ctx, posts.PublishedOnly())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.Count(ctx, posts.DraftsOnly())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Count(ctx, posts.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
