package posts

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrPostExists       = errors.New("post exists already")
	ErrPostNotPublished = errors.New("post not published")
	ErrInvalidID        = errors.New("invalid post id")
)

// ID is the hex form of a 12 byte ObjectID, used as the post identifier by every store.
type ID string

func NewID() ID {
	return ID(primitive.NewObjectID().Hex())
}

func ParseID(raw string) (ID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidID
	}
	return ID(oid.Hex()), nil
}

func (id ID) ObjectID() (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func (id ID) String() string {
	return string(id)
}

type Post struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"isPublished"`
	ReadTime    int       `json:"readTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	slugStripRegex    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRegex = regexp.MustCompile(`[\s_-]+`)
)

// Slug is derived from the title on every call and never stored.
func (p *Post) Slug() string {
	return SlugFor(p.Title)
}

func SlugFor(title string) string {
	slug := strings.ToLower(title)
	slug = slugStripRegex.ReplaceAllString(slug, "")
	slug = slugCollapseRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Excerpt returns at most maxLen runes of the content, followed by "..." when cut.
func (p *Post) Excerpt(maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}
	if utf8.RuneCountInString(p.Content) <= maxLen {
		return p.Content
	}
	return string([]rune(p.Content)[:maxLen]) + "..."
}

// ReadTimeFor returns the estimated reading time in minutes.
func ReadTimeFor(content string) int {
	words := len(strings.Fields(content))
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// NormalizeTags lowercases and trims tags, dropping empty and repeated entries.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	return normalized
}

// prepare normalizes the user supplied fields and recomputes the derived ones.
// It runs right before validation on every create and update.
func (p *Post) prepare() {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	p.Author = strings.TrimSpace(p.Author)
	p.Tags = NormalizeTags(p.Tags)
	p.ReadTime = ReadTimeFor(p.Content)
}

func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	return &c
}

// MarshalJSON adds the virtual slug and excerpt fields.
func (p *Post) MarshalJSON() ([]byte, error) {
	type postAlias Post
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(struct {
		*postAlias
		Tags    []string `json:"tags"`
		Slug    string   `json:"slug"`
		Excerpt string   `json:"excerpt"`
	}{
		postAlias: (*postAlias)(p),
		Tags:      tags,
		Slug:      p.Slug(),
		Excerpt:   p.Excerpt(DefaultExcerptLength),
	})
}
