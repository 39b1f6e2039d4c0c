package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/telemetry/tracing"
)

const collectionName = "posts"

var _ posts.Store = (*Store)(nil)

type postDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Author      string             `bson:"author"`
	Tags        []string           `bson:"tags"`
	IsPublished bool               `bson:"isPublished"`
	ReadTime    int                `bson:"readTime"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(post *posts.Post) (*postDocument, error) {
	oid, err := post.ID.ObjectID()
	if err != nil {
		return nil, err
	}
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return &postDocument{
		ID:          oid,
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Tags:        tags,
		IsPublished: post.IsPublished,
		ReadTime:    post.ReadTime,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}, nil
}

func (d *postDocument) toPost() *posts.Post {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &posts.Post{
		ID:          posts.ID(d.ID.Hex()),
		Title:       d.Title,
		Content:     d.Content,
		Author:      d.Author,
		Tags:        tags,
		IsPublished: d.IsPublished,
		ReadTime:    d.ReadTime,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type Store struct {
	client     *driver.Client
	collection *driver.Collection
}

func NewStore(client *driver.Client, dbName string) *Store {
	return &Store{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}
}

// EnsureIndexes creates the indexes used by the list and filter queries, it is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	names, err := s.collection.Indexes().CreateMany(ctx, []driver.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	log.Debugf("mongo posts indexes: %v", names)
	return nil
}

func (s *Store) Insert(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if post.ID == "" {
		post.ID = posts.NewID()
	}

	doc, err := toDocument(post)
	if err != nil {
		return err
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return posts.ErrPostExists
		}
		return fmt.Errorf("insert one: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id posts.ID) (_ *posts.Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.get")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	oid, err := id.ObjectID()
	if err != nil {
		return nil, err
	}

	var doc postDocument
	if err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, posts.ErrPostNotFound
		}
		return nil, fmt.Errorf("find one: %w", err)
	}

	return doc.toPost(), nil
}

func (s *Store) Replace(ctx context.Context, post *posts.Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.replace")
	span.SetAttributes(attribute.String("id", post.ID.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	doc, err := toDocument(post)
	if err != nil {
		return err
	}

	res, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		return fmt.Errorf("replace one: %w", err)
	}
	if res.MatchedCount == 0 {
		return posts.ErrPostNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id posts.ID) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.delete")
	span.SetAttributes(attribute.String("id", id.String()))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	oid, err := id.ObjectID()
	if err != nil {
		return false, err
	}

	res, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete one: %w", err)
	}

	return res.DeletedCount > 0, nil
}

func (s *Store) Find(
	ctx context.Context,
	filter posts.Filter,
	sort posts.SortSpec,
	page posts.PageRequest,
) (_ []*posts.Post, _ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	page = page.Normalized()
	span.SetAttributes(attribute.Int("page", page.Page))
	span.SetAttributes(attribute.Int("limit", page.Limit))

	query := buildQuery(filter)

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	findOpts := options.Find().
		SetSort(sortDocument(sort)).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))

	cursor, err := s.collection.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("find: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnf("close mongo cursor: %s", err)
		}
	}()

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}

	result := make([]*posts.Post, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toPost())
	}

	return result, int(total), nil
}

func (s *Store) Count(ctx context.Context, filter posts.Filter) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.posts.mongo.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	total, err := s.collection.CountDocuments(ctx, buildQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int(total), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// DropAll removes every post, used by tests and the seeder.
func (s *Store) DropAll(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.D{})
	return err
}

func buildQuery(filter posts.Filter) bson.D {
	conditions := bson.A{}

	if filter.Published != nil {
		conditions = append(conditions, bson.D{{Key: "isPublished", Value: *filter.Published}})
	}
	if filter.Author != "" {
		conditions = append(conditions, bson.D{{Key: "author", Value: filter.Author}})
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, bson.D{{Key: "tags", Value: bson.D{{Key: "$in", Value: filter.Tags}}}})
	}
	if filter.Term != "" {
		termRegex := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Term), Options: "i"}
		conditions = append(conditions, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: termRegex}},
			bson.D{{Key: "content", Value: termRegex}},
			bson.D{{Key: "tags", Value: termRegex}},
		}}})
	}

	if len(conditions) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: conditions}}
}

func sortDocument(sort posts.SortSpec) bson.D {
	field := sort.Field
	if field == "" {
		field = posts.SortByCreatedAt
	}
	direction := 1
	if sort.Desc {
		direction = -1
	}
	return bson.D{
		{Key: string(field), Value: direction},
		{Key: "_id", Value: -1},
	}
}
