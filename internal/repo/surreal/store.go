package surreal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/telemetry/tracing"
)

const table = "posts"

var _ posts.Store = (*Store)(nil)

// postDocument uses CustomDateTime, plain time.Time values are not encoded as surreal datetimes.
type postDocument struct {
	ID          *models.RecordID      `json:"id,omitempty"`
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Author      string                `json:"author"`
	Tags        []string              `json:"tags"`
	IsPublished bool                  `json:"isPublished"`
	ReadTime    int                   `json:"readTime"`
	CreatedAt   models.CustomDateTime `json:"createdAt"`
	UpdatedAt   models.CustomDateTime `json:"updatedAt"`
}

func toDocument(post *posts.Post) *postDocument {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return &postDocument{
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Tags:        tags,
		IsPublished: post.IsPublished,
		ReadTime:    post.ReadTime,
		CreatedAt:   models.CustomDateTime{Time: post.CreatedAt},
		UpdatedAt:   models.CustomDateTime{Time: post.UpdatedAt},
	}
}

func (d *postDocument) toPost() *posts.Post {
	var id posts.ID
	if d.ID != nil {
		id = posts.ID(fmt.Sprint(d.ID.ID))
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &posts.Post{
		ID:          id,
		Title:       d.Title,
		Content:     d.Content,
		Author:      d.Author,
		Tags:        tags,
		IsPublished: d.IsPublished,
		ReadTime:    d.ReadTime,
		CreatedAt:   d.CreatedAt.Time.UTC(),
		UpdatedAt:   d.UpdatedAt.Time.UTC(),
	}
}

type countResult struct {
	Total int `json:"total"`
}

type Store struct {
	db *surrealdb.DB
}

func NewStore(db *surrealdb.DB) *Store {
	return &Store{
		db: db,
	}
}

// EnsureIndexes defines the indexes used by listing and filtering.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, s.db, `
		DEFINE INDEX IF NOT EXISTS posts_created_at ON TABLE posts FIELDS createdAt;
		DEFINE INDEX IF NOT EXISTS posts_published ON TABLE posts FIELDS isPublished;
		DEFINE INDEX IF NOT EXISTS posts_author ON TABLE posts FIELDS author;
		DEFINE INDEX IF NOT EXISTS posts_tags ON TABLE posts FIELDS tags;
	`, map[string]any{})
	if err != nil {
		return fmt.Errorf("define indexes: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if post.ID == "" {
		post.ID = posts.NewID()
	}

	_, err = surrealdb.Query[[]postDocument](
		ctx,
		s.db,
		`CREATE type::thing($tb, $id) CONTENT $doc;`,
		map[string]any{
			"tb":  table,
			"id":  post.ID.String(),
			"doc": toDocument(post),
		},
	)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return posts.ErrPostExists
		}
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id posts.ID) (_ *posts.Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.get")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docs, err := s.queryDocuments(
		ctx,
		`SELECT * FROM type::thing($tb, $id);`,
		map[string]any{"tb": table, "id": id.String()},
	)
	if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	if len(docs) == 0 {
		return nil, posts.ErrPostNotFound
	}

	return docs[0].toPost(), nil
}

func (s *Store) Replace(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.replace")
	span.SetAttributes(attribute.String("id", post.ID.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// the WHERE form only touches existing records, it never creates one
	docs, err := s.queryDocuments(
		ctx,
		`UPDATE type::table($tb) CONTENT $doc WHERE id = type::thing($tb, $id);`,
		map[string]any{
			"tb":  table,
			"id":  post.ID.String(),
			"doc": toDocument(post),
		},
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if len(docs) == 0 {
		return posts.ErrPostNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id posts.ID) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.delete")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docs, err := s.queryDocuments(
		ctx,
		`DELETE type::thing($tb, $id) RETURN BEFORE;`,
		map[string]any{"tb": table, "id": id.String()},
	)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}

	return len(docs) > 0, nil
}

func (s *Store) Find(
	ctx context.Context,
	filter posts.Filter,
	sort posts.SortSpec,
	page posts.PageRequest,
) (_ []*posts.Post, _ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	page = page.Normalized()
	span.SetAttributes(attribute.Int("page", page.Page))
	span.SetAttributes(attribute.Int("limit", page.Limit))

	total, err := s.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	where, vars := buildWhere(filter)
	vars["limit"] = page.Limit
	vars["start"] = page.Offset()

	query := fmt.Sprintf(
		`SELECT * FROM type::table($tb)%s ORDER BY %s LIMIT $limit START $start;`,
		where, orderBy(sort),
	)
	docs, err := s.queryDocuments(ctx, query, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("select posts: %w", err)
	}

	result := make([]*posts.Post, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toPost())
	}

	return result, total, nil
}

func (s *Store) Count(ctx context.Context, filter posts.Filter) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.surreal.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	where, vars := buildWhere(filter)
	res, err := surrealdb.Query[[]countResult](
		ctx,
		s.db,
		fmt.Sprintf(`SELECT count() AS total FROM type::table($tb)%s GROUP ALL;`, where),
		vars,
	)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	// no matching record means no row at all
	if res == nil || len(*res) == 0 || len((*res)[0].Result) == 0 {
		return 0, nil
	}
	return (*res)[0].Result[0].Total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := surrealdb.Query[any](ctx, s.db, `RETURN true;`, map[string]any{})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

// DropAll removes every post, used by tests and the seeder.
func (s *Store) DropAll(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, s.db, `DELETE type::table($tb);`, map[string]any{"tb": table})
	return err
}

func (s *Store) queryDocuments(ctx context.Context, query string, vars map[string]any) ([]postDocument, error) {
	res, err := surrealdb.Query[[]postDocument](ctx, s.db, query, vars)
	if err != nil {
		return nil, err
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}

// buildWhere returns the WHERE clause (with a leading space) and its variables.
func buildWhere(filter posts.Filter) (string, map[string]any) {
	vars := map[string]any{"tb": table}
	var conditions []string

	if filter.Published != nil {
		conditions = append(conditions, "isPublished = $published")
		vars["published"] = *filter.Published
	}
	if filter.Author != "" {
		conditions = append(conditions, "author = $author")
		vars["author"] = filter.Author
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags CONTAINSANY $tags")
		vars["tags"] = filter.Tags
	}
	if filter.Term != "" {
		conditions = append(conditions, "("+
			"string::contains(string::lowercase(title), $term)"+
			" OR string::contains(string::lowercase(content), $term)"+
			" OR array::len(tags[WHERE string::contains(string::lowercase($this), $term)]) > 0"+
			")")
		vars["term"] = strings.ToLower(filter.Term)
	}

	if len(conditions) == 0 {
		return "", vars
	}
	return " WHERE " + strings.Join(conditions, " AND "), vars
}

func orderBy(sort posts.SortSpec) string {
	field := sort.Field
	if field == "" {
		field = posts.SortByCreatedAt
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}
	// field names come from the sortable whitelist, never from raw input
	return fmt.Sprintf("%s %s, id DESC", field, direction)
}
