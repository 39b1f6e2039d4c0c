package posts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrRequestTooLarge = errors.New("request body too large")

// route level messages, reported before any store access
var fieldMessages = map[string]string{
	"title":       "Título deve ter entre 3 e 200 caracteres",
	"content":     "Conteúdo deve ter pelo menos 10 caracteres",
	"author":      "Autor deve ter entre 2 e 100 caracteres",
	"tags":        "Tags deve ser um array",
	"isPublished": "isPublished deve ser um booleano",
}

type postPayload struct {
	Title       *string   `json:"title" validate:"omitnil,min=3,max=200"`
	Content     *string   `json:"content" validate:"omitnil,min=10"`
	Author      *string   `json:"author" validate:"omitnil,min=2,max=100"`
	Tags        *[]string `json:"tags" validate:"omitnil,dive,max=100"`
	IsPublished *bool     `json:"isPublished"`
}

type createPostPayload struct {
	Title       *string   `json:"title" validate:"required,min=3,max=200"`
	Content     *string   `json:"content" validate:"required,min=10"`
	Author      *string   `json:"author" validate:"required,min=2,max=100"`
	Tags        *[]string `json:"tags" validate:"omitnil,dive,max=100"`
	IsPublished *bool     `json:"isPublished"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func decodeCreateRequest(r *http.Request) (NewPost, error) {
	payload, err := decodePayload(r)
	if err != nil {
		return NewPost{}, err
	}

	create := createPostPayload(payload)
	if err := validatePayload(&create); err != nil {
		return NewPost{}, err
	}

	newPost := NewPost{
		Title:       *create.Title,
		Content:     *create.Content,
		Author:      *create.Author,
		IsPublished: create.IsPublished,
	}
	if create.Tags != nil {
		newPost.Tags = *create.Tags
	}

	return newPost, nil
}

func decodeUpdateRequest(r *http.Request) (Update, error) {
	payload, err := decodePayload(r)
	if err != nil {
		return Update{}, err
	}

	if err := validatePayload(&payload); err != nil {
		return Update{}, err
	}

	return Update{
		Title:       payload.Title,
		Content:     payload.Content,
		Author:      payload.Author,
		Tags:        payload.Tags,
		IsPublished: payload.IsPublished,
	}, nil
}

// decodePayload reads a JSON or form encoded body. Type mismatches are reported per field,
// null values count as absent and strings are trimmed.
func decodePayload(r *http.Request) (postPayload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeFormPayload(r)
	default:
		return decodeJSONPayload(r)
	}
}

func decodeJSONPayload(r *http.Request) (postPayload, error) {
	var payload postPayload
	if r.Body == nil {
		return payload, NewValidationError("body", "Corpo da requisição inválido")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return payload, ErrRequestTooLarge
		}
		return payload, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return payload, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return payload, NewValidationError("body", "Corpo da requisição deve ser um objeto JSON válido")
	}

	vErr := &ValidationError{}
	decodeField := func(field string, dst any) {
		value, ok := raw[field]
		if !ok || string(value) == "null" {
			return
		}
		if err := json.Unmarshal(value, dst); err != nil {
			vErr.Add(field, fieldMessages[field])
		}
	}

	var title, content, author string
	var tags []string
	var isPublished bool
	fields := []struct {
		name string
		dst  any
		set  func()
	}{
		{"title", &title, func() { payload.Title = trimmed(title) }},
		{"content", &content, func() { payload.Content = trimmed(content) }},
		{"author", &author, func() { payload.Author = trimmed(author) }},
		{"tags", &tags, func() { payload.Tags = &tags }},
		{"isPublished", &isPublished, func() { payload.IsPublished = &isPublished }},
	}
	for _, f := range fields {
		errCount := len(vErr.Errors)
		decodeField(f.name, f.dst)
		value, present := raw[f.name]
		if present && string(value) != "null" && len(vErr.Errors) == errCount {
			f.set()
		}
	}

	if vErr.HasErrors() {
		return payload, vErr
	}
	return payload, nil
}

func decodeFormPayload(r *http.Request) (postPayload, error) {
	var payload postPayload
	if err := r.ParseForm(); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return payload, ErrRequestTooLarge
		}
		return payload, NewValidationError("body", "Corpo da requisição inválido")
	}

	if r.PostForm.Has("title") {
		payload.Title = trimmed(r.PostForm.Get("title"))
	}
	if r.PostForm.Has("content") {
		payload.Content = trimmed(r.PostForm.Get("content"))
	}
	if r.PostForm.Has("author") {
		payload.Author = trimmed(r.PostForm.Get("author"))
	}
	if r.PostForm.Has("tags") {
		var tags []string
		for _, v := range r.PostForm["tags"] {
			tags = append(tags, strings.Split(v, ",")...)
		}
		payload.Tags = &tags
	}
	if r.PostForm.Has("isPublished") {
		isPublished, err := strconv.ParseBool(r.PostForm.Get("isPublished"))
		if err != nil {
			return payload, NewValidationError("isPublished", fieldMessages["isPublished"])
		}
		payload.IsPublished = &isPublished
	}

	return payload, nil
}

func validatePayload(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate payload: %w", err)
	}

	vErr := &ValidationError{}
	reported := make(map[string]bool)
	for _, fe := range validationErrs {
		field := fe.Field()
		// dive errors are reported as tags[0], tags[1], ...
		if name, _, found := strings.Cut(field, "["); found {
			field = name
		}
		if reported[field] {
			continue
		}
		reported[field] = true
		vErr.Add(field, fieldMessages[field])
	}

	return vErr
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}
