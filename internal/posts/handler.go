package posts

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/edublog/internal/telemetry/metrics"
	"github.com/2beens/edublog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=posts_test

type postsService interface {
	ListPublished(ctx context.Context, params ListParams) (*Page, error)
	Search(ctx context.Context, term string, pr PageRequest) (*Page, error)
	Get(ctx context.Context, id ID) (*Post, error)
	Create(ctx context.Context, newPost NewPost) (*Post, error)
	Update(ctx context.Context, id ID, update Update) (*Post, error)
	Delete(ctx context.Context, id ID) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
	FindByAuthor(ctx context.Context, author string, pr PageRequest) (*Page, error)
	FindByTags(ctx context.Context, tags []string, pr PageRequest) (*Page, error)
}

const (
	msgPostsListed      = "Posts recuperados com sucesso"
	msgSearchDone       = "Busca realizada com sucesso"
	msgPostFound        = "Post recuperado com sucesso"
	msgPostCreated      = "Post criado com sucesso"
	msgPostUpdated      = "Post atualizado com sucesso"
	msgPostDeleted      = "Post excluído com sucesso"
	msgStats            = "Estatísticas recuperadas com sucesso"
	msgPostNotFound     = "Post não encontrado"
	msgPostNotPublished = "Post não está publicado"
	msgInvalidData      = "Dados inválidos"
	msgInvalidID        = "ID inválido"
	msgTooLarge         = "Corpo da requisição muito grande"
	msgInternalError    = "Erro interno do servidor"
)

type HandlerOptions struct {
	// ExposeErrors adds the internal error detail to 500 responses, never enabled in production.
	ExposeErrors bool
	// DraftsListingEnabled honors the includeDrafts query param on the list endpoint.
	DraftsListingEnabled bool
}

type Handler struct {
	service        postsService
	metricsManager *metrics.Manager
	opts           HandlerOptions
}

func NewHandler(
	service postsService,
	metricsManager *metrics.Manager,
	opts HandlerOptions,
) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
		opts:           opts,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	postsRouter := router.PathPrefix("/api/posts").Subrouter()
	postsRouter.HandleFunc("", handler.HandleList).Methods("GET", "OPTIONS").Name("list-posts")
	postsRouter.HandleFunc("/", handler.HandleList).Methods("GET", "OPTIONS").Name("list-posts-slash")
	postsRouter.HandleFunc("", handler.HandleCreate).Methods("POST").Name("create-post")
	postsRouter.HandleFunc("/", handler.HandleCreate).Methods("POST").Name("create-post-slash")
	postsRouter.HandleFunc("/search", handler.HandleSearch).Methods("GET", "OPTIONS").Name("search-posts")
	postsRouter.HandleFunc("/stats", handler.HandleStats).Methods("GET", "OPTIONS").Name("posts-stats")
	postsRouter.HandleFunc("/tags", handler.HandleByTags).Methods("GET", "OPTIONS").Name("posts-by-tags")
	postsRouter.HandleFunc("/author/{author}", handler.HandleByAuthor).Methods("GET", "OPTIONS").Name("posts-by-author")
	postsRouter.HandleFunc("/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-post")
	postsRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT").Name("update-post")
	postsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE").Name("delete-post")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	sort, err := ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		handler.writeError(w, err)
		return
	}

	params := ListParams{
		PageRequest: pageRequestFromQuery(r),
		Sort:        sort,
	}
	if handler.opts.DraftsListingEnabled {
		params.IncludeDrafts, _ = strconv.ParseBool(r.URL.Query().Get("includeDrafts"))
	}

	page, err := handler.service.ListPublished(r.Context(), params)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostsListed,
		Data:    page,
	}, http.StatusOK)
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	page, err := handler.service.Search(r.Context(), term, pageRequestFromQuery(r))
	if err != nil {
		handler.writeError(w, err)
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterSearches.Inc()
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success:    true,
		Message:    msgSearchDone,
		SearchTerm: term,
		Data:       page,
	}, http.StatusOK)
}

func (handler *Handler) HandleByAuthor(w http.ResponseWriter, r *http.Request) {
	author := mux.Vars(r)["author"]

	page, err := handler.service.FindByAuthor(r.Context(), author, pageRequestFromQuery(r))
	if err != nil {
		handler.writeError(w, err)
		return
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostsListed,
		Data:    page,
	}, http.StatusOK)
}

func (handler *Handler) HandleByTags(w http.ResponseWriter, r *http.Request) {
	var tags []string
	for _, v := range r.URL.Query()["tags"] {
		tags = append(tags, strings.Split(v, ",")...)
	}

	page, err := handler.service.FindByTags(r.Context(), tags, pageRequestFromQuery(r))
	if err != nil {
		handler.writeError(w, err)
		return
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostsListed,
		Data:    page,
	}, http.StatusOK)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := handler.service.Stats(r.Context())
	if err != nil {
		handler.writeError(w, err)
		return
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgStats,
		Data:    stats,
	}, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(mux.Vars(r)["id"])
	if err != nil {
		handler.writeError(w, err)
		return
	}

	post, err := handler.service.Get(r.Context(), id)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	if !post.IsPublished {
		handler.writeError(w, ErrPostNotPublished)
		return
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostFound,
		Data:    post,
	}, http.StatusOK)
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	newPost, err := decodeCreateRequest(r)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	post, err := handler.service.Create(r.Context(), newPost)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterPostsCreated.Inc()
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostCreated,
		Data:    post,
	}, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(mux.Vars(r)["id"])
	if err != nil {
		handler.writeError(w, err)
		return
	}

	update, err := decodeUpdateRequest(r)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	post, err := handler.service.Update(r.Context(), id, update)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterPostsUpdated.Inc()
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostUpdated,
		Data:    post,
	}, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(mux.Vars(r)["id"])
	if err != nil {
		handler.writeError(w, err)
		return
	}

	deleted, err := handler.service.Delete(r.Context(), id)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	if !deleted {
		handler.writeError(w, ErrPostNotFound)
		return
	}

	log.Tracef("post %s deleted", id)
	if handler.metricsManager != nil {
		handler.metricsManager.CounterPostsDeleted.Inc()
	}

	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: true,
		Message: msgPostDeleted,
	}, http.StatusOK)
}

// writeError maps the error taxonomy onto status codes and the error envelope.
func (handler *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		pkg.WriteEnvelope(w, pkg.Envelope{
			Success: false,
			Message: msgInvalidData,
			Errors:  vErr.Errors,
		}, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidID):
		pkg.WriteEnvelope(w, pkg.Envelope{
			Success: false,
			Message: msgInvalidData,
			Errors:  []FieldError{{Field: "id", Message: msgInvalidID}},
		}, http.StatusBadRequest)
	case errors.Is(err, ErrPostNotFound):
		pkg.WriteEnvelope(w, pkg.Envelope{
			Success: false,
			Message: msgPostNotFound,
		}, http.StatusNotFound)
	case errors.Is(err, ErrPostNotPublished):
		pkg.WriteEnvelope(w, pkg.Envelope{
			Success: false,
			Message: msgPostNotPublished,
		}, http.StatusForbidden)
	case errors.Is(err, ErrRequestTooLarge):
		pkg.WriteEnvelope(w, pkg.Envelope{
			Success: false,
			Message: msgTooLarge,
		}, http.StatusRequestEntityTooLarge)
	default:
		log.Errorf("posts handler: %s", err)
		envelope := pkg.Envelope{
			Success: false,
			Message: msgInternalError,
		}
		if handler.opts.ExposeErrors {
			envelope.Error = err.Error()
		}
		pkg.WriteEnvelope(w, envelope, http.StatusInternalServerError)
	}
}

// pageRequestFromQuery reads page and limit, falling back to the defaults for invalid values.
func pageRequestFromQuery(r *http.Request) PageRequest {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return PageRequest{Page: page, Limit: limit}.Normalized()
}
