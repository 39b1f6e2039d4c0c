//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lib/pq"

	"github.com/2beens/edublog/internal/posts"
)

type apiResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	SearchTerm string             `json:"searchTerm"`
	Data       json.RawMessage    `json:"data"`
	Errors     []posts.FieldError `json:"errors"`
	Error      string             `json:"error"`
}

type pageResponse struct {
	Posts       []map[string]any `json:"posts"`
	TotalPosts  int              `json:"totalPosts"`
	TotalPages  int              `json:"totalPages"`
	HasNextPage bool             `json:"hasNextPage"`
}

func (s *IntegrationTestSuite) doRequest(method, path string, body any) (int, apiResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var apiResp apiResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&apiResp))
	return resp.StatusCode, apiResp
}

func (s *IntegrationTestSuite) getPage(path string) pageResponse {
	status, resp := s.doRequest(http.MethodGet, path, nil)
	s.Require().Equal(http.StatusOK, status, resp.Message)
	s.Require().True(resp.Success)

	var page pageResponse
	s.Require().NoError(json.Unmarshal(resp.Data, &page))
	return page
}

// insertPost writes a post straight into the table, skipping the API.
func (s *IntegrationTestSuite) insertPost(author string, tags []string, published bool, createdAt time.Time) posts.ID {
	id := posts.NewID()
	if tags == nil {
		tags = []string{}
	}
	_, err := s.DB.Exec(
		`INSERT INTO posts (id, title, content, author, tags, is_published, read_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8);`,
		id.String(),
		gofakeit.Sentence(4),
		gofakeit.Paragraph(1, 3, 12, " "),
		author,
		pq.Array(tags),
		published,
		1,
		createdAt,
	)
	s.Require().NoError(err)
	return id
}

func (s *IntegrationTestSuite) postsInDB() int {
	var count int
	s.Require().NoError(s.DB.QueryRow(`SELECT COUNT(*) FROM posts;`).Scan(&count))
	return count
}

func (s *IntegrationTestSuite) TestHealth() {
	resp, err := s.httpClient.Get(serverEndpoint + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&health))
	s.Equal("OK", health["status"])
	s.Equal("test-version-info", health["version"])
}

func (s *IntegrationTestSuite) TestCreateGetUpdateDelete() {
	status, resp := s.doRequest(http.MethodPost, "/api/posts", map[string]any{
		"title":   "  Ordenação por Inserção  ",
		"content": "Percorremos o vetor e inserimos cada elemento na posição certa.",
		"author":  "Prof. Helena",
		"tags":    []string{"Algoritmos", "ordenacao", "algoritmos"},
	})
	s.Require().Equal(http.StatusCreated, status, resp.Errors)
	s.Equal("Post criado com sucesso", resp.Message)

	var created map[string]any
	s.Require().NoError(json.Unmarshal(resp.Data, &created))
	id := created["id"].(string)
	s.Len(id, 24)
	s.Equal("Ordenação por Inserção", created["title"])
	s.Equal("ordenao-por-insero", created["slug"])
	s.Equal([]any{"algoritmos", "ordenacao"}, created["tags"])
	s.Equal(true, created["isPublished"])
	s.Equal(1, s.postsInDB())

	status, resp = s.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Post recuperado com sucesso", resp.Message)

	status, resp = s.doRequest(http.MethodPut, "/api/posts/"+id, map[string]any{
		"content": "Conteúdo revisado, agora com análise de complexidade.",
	})
	s.Require().Equal(http.StatusOK, status, resp.Errors)

	var updated map[string]any
	s.Require().NoError(json.Unmarshal(resp.Data, &updated))
	s.Equal(created["title"], updated["title"])
	s.Equal(created["createdAt"], updated["createdAt"])
	s.Equal("Conteúdo revisado, agora com análise de complexidade.", updated["content"])

	status, resp = s.doRequest(http.MethodPut, "/api/posts/"+id, map[string]any{"title": "ab"})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("Dados inválidos", resp.Message)
	s.Require().NotEmpty(resp.Errors)
	s.Equal("title", resp.Errors[0].Field)

	status, _ = s.doRequest(http.MethodDelete, "/api/posts/"+id, nil)
	s.Equal(http.StatusOK, status)
	s.Equal(0, s.postsInDB())

	status, resp = s.doRequest(http.MethodGet, "/api/posts/"+id, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("Post não encontrado", resp.Message)
}

func (s *IntegrationTestSuite) TestCreateInvalid() {
	status, resp := s.doRequest(http.MethodPost, "/api/posts", map[string]any{
		"title":   "Ok título",
		"content": "curto",
	})
	s.Equal(http.StatusBadRequest, status)
	s.False(resp.Success)

	fields := map[string]bool{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = true
	}
	s.True(fields["content"])
	s.True(fields["author"])
	s.Equal(0, s.postsInDB())
}

func (s *IntegrationTestSuite) TestDraftIsForbidden() {
	id := s.insertPost("Prof. Ana", nil, false, time.Now())

	status, resp := s.doRequest(http.MethodGet, "/api/posts/"+id.String(), nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("Post não está publicado", resp.Message)

	status, resp = s.doRequest(http.MethodGet, "/api/posts/not-an-id", nil)
	s.Equal(http.StatusBadRequest, status)
	s.Require().Len(resp.Errors, 1)
	s.Equal("id", resp.Errors[0].Field)
}

func (s *IntegrationTestSuite) TestListPagination() {
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		s.insertPost(gofakeit.Name(), []string{"go"}, i%4 != 0, base.Add(time.Duration(i)*time.Minute))
	}

	page := s.getPage("/api/posts?page=1&limit=5")
	s.Equal(9, page.TotalPosts)
	s.Equal(2, page.TotalPages)
	s.True(page.HasNextPage)
	s.Len(page.Posts, 5)

	// newest first by default
	first, err := time.Parse(time.RFC3339Nano, page.Posts[0]["createdAt"].(string))
	s.Require().NoError(err)
	second, err := time.Parse(time.RFC3339Nano, page.Posts[1]["createdAt"].(string))
	s.Require().NoError(err)
	s.True(first.After(second))

	page = s.getPage("/api/posts?page=2&limit=5")
	s.Len(page.Posts, 4)
	s.False(page.HasNextPage)

	page = s.getPage("/api/posts?includeDrafts=true&limit=100")
	s.Equal(12, page.TotalPosts)

	status, resp := s.doRequest(http.MethodGet, "/api/posts?sort=password", nil)
	s.Equal(http.StatusBadRequest, status)
	s.False(resp.Success)
}

func (s *IntegrationTestSuite) TestSearch() {
	_, resp := s.doRequest(http.MethodPost, "/api/posts", map[string]any{
		"title":   "Desconto de 100% em C++",
		"content": "Um título com caracteres especiais para a busca literal.",
		"author":  "Prof. Igor",
	})
	s.Require().True(resp.Success, resp.Errors)
	s.insertPost("Prof. Igor", []string{"cpp"}, true, time.Now())

	status, resp := s.doRequest(http.MethodGet, "/api/posts/search?q="+url.QueryEscape("100%"), nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("100%", resp.SearchTerm)

	var page pageResponse
	s.Require().NoError(json.Unmarshal(resp.Data, &page))
	s.Equal(1, page.TotalPosts)

	page = s.getPage("/api/posts/search?q=CPP")
	s.Equal(1, page.TotalPosts)

	status, _ = s.doRequest(http.MethodGet, "/api/posts/search?q=a", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestAuthorTagsAndStats() {
	now := time.Now()
	s.insertPost("Prof. Ana", []string{"go", "concorrencia"}, true, now)
	s.insertPost("Prof. Ana", []string{"sql"}, true, now)
	s.insertPost("Prof. Ana", []string{"go"}, false, now)
	s.insertPost("Prof. Bruno", []string{"redes"}, true, now)

	page := s.getPage("/api/posts/author/" + url.PathEscape("Prof. Ana"))
	s.Equal(2, page.TotalPosts)

	page = s.getPage("/api/posts/tags?tags=go,redes")
	s.Equal(2, page.TotalPosts)

	status, resp := s.doRequest(http.MethodGet, "/api/posts/stats", nil)
	s.Require().Equal(http.StatusOK, status)

	var stats posts.Stats
	s.Require().NoError(json.Unmarshal(resp.Data, &stats))
	s.Equal(posts.Stats{Published: 3, Drafts: 1, Total: 4}, stats)
}

func (s *IntegrationTestSuite) TestUnknownRoute() {
	status, resp := s.doRequest(http.MethodGet, "/api/comments", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("Rota não encontrada", resp.Error)
	s.Equal(fmt.Sprintf("A rota %s não existe", "/api/comments"), resp.Message)
}
