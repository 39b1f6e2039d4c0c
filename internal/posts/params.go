package posts

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit inside a 32 bit offset for every store.
	MaxPage         = math.MaxInt32 / MaxPageSize
)

type PageRequest struct {
	Page  int
	Limit int
}

// Normalized falls back to the defaults for non positive values and caps page and limit.
func (pr PageRequest) Normalized() PageRequest {
	if pr.Page < 1 {
		pr.Page = DefaultPage
	}
	if pr.Page > MaxPage {
		pr.Page = MaxPage
	}
	if pr.Limit < 1 {
		pr.Limit = DefaultPageSize
	}
	if pr.Limit > MaxPageSize {
		pr.Limit = MaxPageSize
	}
	return pr
}

func (pr PageRequest) Offset() int {
	pr = pr.Normalized()
	return (pr.Page - 1) * pr.Limit
}

// SortField names are the json names of the sortable post fields.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
	SortByAuthor    SortField = "author"
	SortByReadTime  SortField = "readTime"
)

var sortableFields = []SortField{
	SortByCreatedAt,
	SortByUpdatedAt,
	SortByTitle,
	SortByAuthor,
	SortByReadTime,
}

type SortSpec struct {
	Field SortField
	Desc  bool
}

var DefaultSort = SortSpec{Field: SortByCreatedAt, Desc: true}

func (s SortSpec) String() string {
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// ParseSort accepts "field" or "-field"; an empty value yields DefaultSort.
func ParseSort(raw string) (SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	sortSpec := SortSpec{}
	if strings.HasPrefix(raw, "-") {
		sortSpec.Desc = true
		raw = raw[1:]
	} else {
		raw = strings.TrimPrefix(raw, "+")
	}

	sortSpec.Field = SortField(raw)
	if !slices.Contains(sortableFields, sortSpec.Field) {
		return SortSpec{}, NewValidationError("sort", fmt.Sprintf("Campo de ordenação inválido: %s", raw))
	}

	return sortSpec, nil
}

// Filter narrows the set of posts a store query works on. Zero value matches everything.
type Filter struct {
	Published *bool
	// Term is matched as a literal, case insensitive substring of title, content or any tag.
	Term   string
	Author string
	// Tags matches posts having at least one of the given tags.
	Tags []string
}

func PublishedOnly() Filter {
	published := true
	return Filter{Published: &published}
}

func DraftsOnly() Filter {
	published := false
	return Filter{Published: &published}
}

// Matches is the reference implementation of the filter semantics, used by the in-memory store.
func (f Filter) Matches(p *Post) bool {
	if f.Published != nil && p.IsPublished != *f.Published {
		return false
	}
	if f.Author != "" && p.Author != f.Author {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(p.Tags, func(t string) bool {
		return slices.Contains(f.Tags, t)
	}) {
		return false
	}
	if f.Term != "" {
		term := strings.ToLower(f.Term)
		matchesTag := slices.ContainsFunc(p.Tags, func(t string) bool {
			return strings.Contains(strings.ToLower(t), term)
		})
		if !matchesTag &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Content), term) {
			return false
		}
	}
	return true
}

type Page struct {
	Posts       []*Post `json:"posts"`
	TotalPosts  int     `json:"totalPosts"`
	Limit       int     `json:"limit"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"totalPages"`
	HasNextPage bool    `json:"hasNextPage"`
	HasPrevPage bool    `json:"hasPrevPage"`
	PrevPage    *int    `json:"prevPage"`
	NextPage    *int    `json:"nextPage"`
}

func NewPage(posts []*Post, total int, pr PageRequest) *Page {
	pr = pr.Normalized()
	if posts == nil {
		posts = []*Post{}
	}

	totalPages := (total + pr.Limit - 1) / pr.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	page := &Page{
		Posts:       posts,
		TotalPosts:  total,
		Limit:       pr.Limit,
		Page:        pr.Page,
		TotalPages:  totalPages,
		HasPrevPage: pr.Page > 1,
		HasNextPage: pr.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := pr.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := pr.Page + 1
		page.NextPage = &next
	}

	return page
}
