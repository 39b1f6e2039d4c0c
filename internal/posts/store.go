package posts

import "context"

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=posts_test

// Store persists posts. Implementations live under internal/repo.
type Store interface {
	// Insert stores a new post, assigning its ID when empty.
	Insert(ctx context.Context, post *Post) error
	// Get returns ErrPostNotFound when no post has the given id.
	Get(ctx context.Context, id ID) (*Post, error)
	// Replace overwrites all stored fields of an existing post, ErrPostNotFound if absent.
	Replace(ctx context.Context, post *Post) error
	// Delete reports whether a post existed and was removed.
	Delete(ctx context.Context, id ID) (bool, error)
	// Find returns one page of posts matching the filter, and the total number of matches.
	Find(ctx context.Context, filter Filter, sort SortSpec, page PageRequest) (_ []*Post, total int, err error)
	Count(ctx context.Context, filter Filter) (int, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
