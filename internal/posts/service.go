package posts

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/edublog/internal/telemetry/tracing"
)

type ListParams struct {
	PageRequest
	Sort SortSpec
	// IncludeDrafts lists unpublished posts too.
	IncludeDrafts bool
}

type NewPost struct {
	Title   string
	Content string
	Author  string
	Tags    []string
	// IsPublished defaults to true when nil.
	IsPublished *bool
}

// Update holds a partial update, nil fields keep their stored value.
type Update struct {
	Title       *string
	Content     *string
	Author      *string
	Tags        *[]string
	IsPublished *bool
}

func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Author == nil && u.Tags == nil && u.IsPublished == nil
}

type Stats struct {
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Total     int `json:"total"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) timestamp() time.Time {
	// millisecond precision is what every backing store keeps
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) ListPublished(ctx context.Context, params ListParams) (_ *Page, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.listPublished")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	pr := params.PageRequest.Normalized()
	span.SetAttributes(attribute.Int("page", pr.Page))
	span.SetAttributes(attribute.Int("limit", pr.Limit))

	sort := params.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}

	filter := PublishedOnly()
	if params.IncludeDrafts {
		filter = Filter{}
	}

	posts, total, err := s.store.Find(ctx, filter, sort, pr)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	return NewPage(posts, total, pr), nil
}

func (s *Service) Search(ctx context.Context, term string, pr PageRequest) (_ *Page, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchTermLength {
		return nil, NewValidationError("q", "Termo de busca deve ter pelo menos 2 caracteres")
	}
	span.SetAttributes(attribute.String("term", term))

	filter := PublishedOnly()
	filter.Term = term

	pr = pr.Normalized()
	posts, total, err := s.store.Find(ctx, filter, DefaultSort, pr)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	return NewPage(posts, total, pr), nil
}

func (s *Service) Get(ctx context.Context, id ID) (_ *Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	if _, err := ParseID(id.String()); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, newPost NewPost) (_ *Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	post := &Post{
		Title:       newPost.Title,
		Content:     newPost.Content,
		Author:      newPost.Author,
		Tags:        newPost.Tags,
		IsPublished: true,
	}
	if newPost.IsPublished != nil {
		post.IsPublished = *newPost.IsPublished
	}

	post.prepare()
	if err := Validate(post); err != nil {
		return nil, err
	}

	now := s.timestamp()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.store.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	log.Tracef("new post %s: [%s] added", post.ID, post.Title)

	return post, nil
}

// Update is a read-modify-write; concurrent updates of the same post are last write wins.
func (s *Service) Update(ctx context.Context, id ID, update Update) (_ *Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	if _, err := ParseID(id.String()); err != nil {
		return nil, err
	}

	post, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// nothing to change, the stored post is returned as is
	if update.IsEmpty() {
		return post, nil
	}

	if update.Title != nil {
		post.Title = *update.Title
	}
	if update.Content != nil {
		post.Content = *update.Content
	}
	if update.Author != nil {
		post.Author = *update.Author
	}
	if update.Tags != nil {
		post.Tags = *update.Tags
	}
	if update.IsPublished != nil {
		post.IsPublished = *update.IsPublished
	}

	post.prepare()
	if err := Validate(post); err != nil {
		return nil, err
	}

	post.UpdatedAt = s.timestamp()
	if post.UpdatedAt.Before(post.CreatedAt) {
		post.UpdatedAt = post.CreatedAt
	}

	if err := s.store.Replace(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *Service) Delete(ctx context.Context, id ID) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id.String()))

	if _, err := ParseID(id.String()); err != nil {
		return false, err
	}

	return s.store.Delete(ctx, id)
}

func (s *Service) CountPublished(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.countPublished")
	defer span.End()
	return s.store.Count(ctx, PublishedOnly())
}

func (s *Service) CountDrafts(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.countDrafts")
	defer span.End()
	return s.store.Count(ctx, DraftsOnly())
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	published, err := s.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("count published: %w", err)
	}
	drafts, err := s.CountDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count drafts: %w", err)
	}
	return &Stats{
		Published: published,
		Drafts:    drafts,
		Total:     published + drafts,
	}, nil
}

func (s *Service) FindByAuthor(ctx context.Context, author string, pr PageRequest) (_ *Page, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.findByAuthor")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	author = strings.TrimSpace(author)
	if author == "" {
		return nil, NewValidationError("author", "Autor é obrigatório")
	}
	span.SetAttributes(attribute.String("author", author))

	filter := PublishedOnly()
	filter.Author = author

	pr = pr.Normalized()
	posts, total, err := s.store.Find(ctx, filter, DefaultSort, pr)
	if err != nil {
		return nil, fmt.Errorf("find posts by author: %w", err)
	}

	return NewPage(posts, total, pr), nil
}

func (s *Service) FindByTags(ctx context.Context, tags []string, pr PageRequest) (_ *Page, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.posts.findByTags")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tags = NormalizeTags(tags)
	if len(tags) == 0 {
		return nil, NewValidationError("tags", "Informe ao menos uma tag")
	}
	span.SetAttributes(attribute.StringSlice("tags", tags))

	filter := PublishedOnly()
	filter.Tags = tags

	pr = pr.Normalized()
	posts, total, err := s.store.Find(ctx, filter, DefaultSort, pr)
	if err != nil {
		return nil, fmt.Errorf("find posts by tags: %w", err)
	}

	return NewPage(posts, total, pr), nil
}
