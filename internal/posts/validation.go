package posts

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength   = 3
	TitleMaxLength   = 200
	ContentMinLength = 10
	AuthorMinLength  = 2
	AuthorMaxLength  = 100

	WordsPerMinute       = 200
	DefaultExcerptLength = 150
	MinSearchTermLength  = 2
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Errors []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the persisted field bounds of a post. Fields are expected to be
// already trimmed, see Post.prepare.
func Validate(p *Post) error {
	vErr := &ValidationError{}

	titleLen := utf8.RuneCountInString(p.Title)
	switch {
	case titleLen == 0:
		vErr.Add("title", "Título é obrigatório")
	case titleLen < TitleMinLength:
		vErr.Add("title", "Título deve ter pelo menos 3 caracteres")
	case titleLen > TitleMaxLength:
		vErr.Add("title", "Título não pode ter mais de 200 caracteres")
	}

	contentLen := utf8.RuneCountInString(p.Content)
	switch {
	case contentLen == 0:
		vErr.Add("content", "Conteúdo é obrigatório")
	case contentLen < ContentMinLength:
		vErr.Add("content", "Conteúdo deve ter pelo menos 10 caracteres")
	}

	authorLen := utf8.RuneCountInString(p.Author)
	switch {
	case authorLen == 0:
		vErr.Add("author", "Autor é obrigatório")
	case authorLen < AuthorMinLength:
		vErr.Add("author", "Nome do autor deve ter pelo menos 2 caracteres")
	case authorLen > AuthorMaxLength:
		vErr.Add("author", "Nome do autor não pode ter mais de 100 caracteres")
	}

	for _, t := range p.Tags {
		if t != strings.ToLower(strings.TrimSpace(t)) || t == "" {
			vErr.Add("tags", "Tags devem ser minúsculas e não vazias")
			break
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
