package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/2beens/edublog/internal/posts"
)

var _ posts.Store = (*Store)(nil)

// Store keeps posts in a map guarded by a mutex. Used in tests and with store = "memory".
type Store struct {
	posts map[posts.ID]*posts.Post
	mutex sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		posts: make(map[posts.ID]*posts.Post),
	}
}

func (s *Store) Insert(_ context.Context, post *posts.Post) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if post.ID == "" {
		post.ID = posts.NewID()
	}

	if _, ok := s.posts[post.ID]; ok {
		return posts.ErrPostExists
	}

	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id posts.ID) (*posts.Post, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, posts.ErrPostNotFound
	}
	return post.Clone(), nil
}

func (s *Store) Replace(_ context.Context, post *posts.Post) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return posts.ErrPostNotFound
	}

	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, id posts.ID) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}

	delete(s.posts, id)
	return true, nil
}

func (s *Store) Find(
	_ context.Context,
	filter posts.Filter,
	sort posts.SortSpec,
	page posts.PageRequest,
) ([]*posts.Post, int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matching []*posts.Post
	for _, p := range s.posts {
		if filter.Matches(p) {
			matching = append(matching, p)
		}
	}

	slices.SortFunc(matching, func(a, b *posts.Post) int {
		c := compareBy(sort.Field, a, b)
		if sort.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		// stable order for equal keys, newest id first
		return -strings.Compare(string(a.ID), string(b.ID))
	})

	total := len(matching)
	page = page.Normalized()
	start := page.Offset()
	if start < 0 || start >= total {
		return []*posts.Post{}, total, nil
	}
	end := min(start+page.Limit, total)

	result := make([]*posts.Post, 0, end-start)
	for _, p := range matching[start:end] {
		result = append(result, p.Clone())
	}

	return result, total, nil
}

func (s *Store) Count(_ context.Context, filter posts.Filter) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, p := range s.posts {
		if filter.Matches(p) {
			count++
		}
	}
	return count, nil
}

func (s *Store) PostsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.posts)
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

func compareBy(field posts.SortField, a, b *posts.Post) int {
	switch field {
	case posts.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case posts.SortByTitle:
		return cmp.Compare(a.Title, b.Title)
	case posts.SortByAuthor:
		return cmp.Compare(a.Author, b.Author)
	case posts.SortByReadTime:
		return cmp.Compare(a.ReadTime, b.ReadTime)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
