package psql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/telemetry/tracing"
	"github.com/2beens/edublog/pkg"
)

// pgx caches prepared statements on its own:
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const postColumns = `id, title, content, author, tags, is_published, read_time, created_at, updated_at`

var sortColumns = map[posts.SortField]string{
	posts.SortByCreatedAt: "created_at",
	posts.SortByUpdatedAt: "updated_at",
	posts.SortByTitle:     "title",
	posts.SortByAuthor:    "author",
	posts.SortByReadTime:  "read_time",
}

var _ posts.Store = (*Store)(nil)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
	}
}

// Migrate creates the posts table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id           CHAR(24) PRIMARY KEY,
			title        VARCHAR(200) NOT NULL,
			content      TEXT NOT NULL,
			author       VARCHAR(100) NOT NULL,
			tags         TEXT[] NOT NULL DEFAULT '{}',
			is_published BOOLEAN NOT NULL DEFAULT FALSE,
			read_time    INTEGER NOT NULL DEFAULT 1,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS posts_published_created_at_idx ON posts (is_published, created_at DESC);
		CREATE INDEX IF NOT EXISTS posts_author_idx ON posts (author);
		CREATE INDEX IF NOT EXISTS posts_tags_idx ON posts USING GIN (tags);
	`); err != nil {
		return fmt.Errorf("migrate posts: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if post.ID == "" {
		post.ID = posts.NewID()
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		post.ID.String(), post.Title, post.Content, post.Author, tagsOrEmpty(post.Tags),
		post.IsPublished, post.ReadTime, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return posts.ErrPostExists
		}
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id posts.ID) (_ *posts.Post, err error) {
	log.Tracef("getting post %s", id)

	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.get")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1;`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found, err := rows2posts(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, posts.ErrPostNotFound
	}

	return found[0], nil
}

func (s *Store) Replace(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.replace")
	span.SetAttributes(attribute.String("id", post.ID.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := s.db.Exec(
		ctx,
		`
			UPDATE posts
			SET title = $2, content = $3, author = $4, tags = $5,
				is_published = $6, read_time = $7, created_at = $8, updated_at = $9
			WHERE id = $1;
		`,
		post.ID.String(), post.Title, post.Content, post.Author, tagsOrEmpty(post.Tags),
		post.IsPublished, post.ReadTime, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return posts.ErrPostNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id posts.ID) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.delete")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1;`, id.String())
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (s *Store) Find(
	ctx context.Context,
	filter posts.Filter,
	sort posts.SortSpec,
	page posts.PageRequest,
) (_ []*posts.Post, _ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.find")
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

	where, args := buildWhere(filter)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(
		`SELECT %s FROM posts%s ORDER BY %s LIMIT $%d OFFSET $%d;`,
		postColumns, where, orderBy(sort), len(args)-1, len(args),
	)

	log.Tracef("finding posts, total %d, limit %d, offset %d", total, page.Limit, page.Offset())

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	found, err := rows2posts(rows)
	if err != nil {
		return nil, 0, err
	}

	return found, total, nil
}

func (s *Store) Count(ctx context.Context, filter posts.Filter) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.psql.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	where, args := buildWhere(filter)
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where+`;`, args...).Scan(&count); err != nil {
		if pkg.IsUndefinedTableError(err) {
			return -1, fmt.Errorf("posts table missing, migrations not run: %w", err)
		}
		return -1, fmt.Errorf("count posts: %w", err)
	}

	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.Ping(ctx)
}

func (s *Store) Close(_ context.Context) error {
	s.db.Close()
	return nil
}

// DropAll removes every post, used by tests and the seeder.
func (s *Store) DropAll(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `TRUNCATE posts;`)
	return err
}

// buildWhere returns the WHERE clause (with a leading space) and its positional arguments.
func buildWhere(filter posts.Filter) (string, []any) {
	var conditions []string
	var args []any
	next := func(arg any) string {
		args = append(args, arg)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Published != nil {
		conditions = append(conditions, "is_published = "+next(*filter.Published))
	}
	if filter.Author != "" {
		conditions = append(conditions, "author = "+next(filter.Author))
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags && "+next(filter.Tags))
	}
	if filter.Term != "" {
		pattern := next("%" + escapeLike(filter.Term) + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE %[1]s OR content ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE %[1]s))",
			pattern,
		))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike makes the term match literally, backslash is the default ILIKE escape.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func orderBy(sort posts.SortSpec) string {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, id DESC", column, direction)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func rows2posts(rows pgx.Rows) ([]*posts.Post, error) {
	var found []*posts.Post
	for rows.Next() {
		var (
			id          string
			title       string
			content     string
			author      string
			tags        []string
			isPublished bool
			readTime    int
			createdAt   time.Time
			updatedAt   time.Time
		)
		if err := rows.Scan(
			&id, &title, &content, &author, &tags,
			&isPublished, &readTime, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		found = append(found, &posts.Post{
			ID:          posts.ID(strings.TrimSpace(id)),
			Title:       title,
			Content:     content,
			Author:      author,
			Tags:        tagsOrEmpty(tags),
			IsPublished: isPublished,
			ReadTime:    readTime,
			CreatedAt:   createdAt.UTC(),
			UpdatedAt:   updatedAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return found, nil
}
