package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/edublog/internal"
	"github.com/2beens/edublog/internal/config"
	"github.com/2beens/edublog/internal/logging"
	"github.com/2beens/edublog/internal/posts"
)

type dropper interface {
	DropAll(ctx context.Context) error
}

var samplePosts = []posts.NewPost{
	{
		Title:   "Introdução ao Go",
		Content: "Go é uma linguagem compilada e concorrente. Neste post vemos variáveis, funções e o famoso go run.",
		Author:  "Prof. Ana Souza",
		Tags:    []string{"go", "programacao", "iniciantes"},
	},
	{
		Title:   "Estruturas de Dados: Pilhas e Filas",
		Content: "Pilhas seguem LIFO e filas seguem FIFO. Vamos implementar as duas e comparar os custos de cada operação.",
		Author:  "Prof. Bruno Lima",
		Tags:    []string{"algoritmos", "estruturas-de-dados"},
	},
	{
		Title:   "Álgebra Linear para Computação Gráfica",
		Content: "Matrizes de transformação, vetores e produtos escalares explicados com exemplos de rotação e escala.",
		Author:  "Prof. Carla Mendes",
		Tags:    []string{"matematica", "graficos"},
	},
	{
		Title:   "Banco de Dados Relacionais: Normalização",
		Content: "Da primeira à terceira forma normal, com exemplos de tabelas de uma escola e suas dependências.",
		Author:  "Prof. Bruno Lima",
		Tags:    []string{"sql", "banco-de-dados"},
	},
	{
		Title:       "Rascunho: Redes de Computadores",
		Content:     "Modelo OSI, TCP/IP e o caminho de um pacote até o servidor. Texto ainda em revisão.",
		Author:      "Prof. Davi Rocha",
		Tags:        []string{"redes"},
		IsPublished: boolPtr(false),
	},
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | test]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	fakeCount := flag.Int("fake", 20, "number of generated posts added next to the samples")
	drop := flag.Bool("drop", false, "remove all existing posts first")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	if cfg.Store == config.StoreMemory {
		log.Fatalln("memory store selected, nothing would be persisted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, _, err := internal.NewPostsStore(ctx, internal.NewPostsStoreParams{
		Config:           cfg,
		SurrealPassword:  os.Getenv("EDUBLOG_SURREAL_PASS"),
		PostgresPassword: os.Getenv("EDUBLOG_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("new posts store: %s", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Errorf("close store: %s", err)
		}
	}()

	if *drop {
		d, ok := store.(dropper)
		if !ok {
			log.Fatalf("store [%s] cannot drop posts", cfg.Store)
		}
		if err := d.DropAll(ctx); err != nil {
			log.Fatalf("drop posts: %s", err)
		}
		log.Warnln("all posts removed")
	}

	service := posts.NewService(store)

	created := 0
	for _, newPost := range append(samplePosts, fakePosts(*fakeCount)...) {
		post, err := service.Create(ctx, newPost)
		if err != nil {
			log.Errorf("create post [%s]: %s", newPost.Title, err)
			continue
		}
		created++
		log.Debugf("created post %s [%s]", post.ID, post.Slug())
	}

	fmt.Printf("seeded %d posts into [%s]\n", created, cfg.Store)
}

func fakePosts(count int) []posts.NewPost {
	tags := []string{"go", "algoritmos", "sql", "redes", "matematica", "fisica", "historia", "iniciantes"}
	authors := make([]string, 5)
	for i := range authors {
		authors[i] = "Prof. " + gofakeit.Name()
	}

	generated := make([]posts.NewPost, 0, count)
	for i := 0; i < count; i++ {
		published := gofakeit.Number(0, 9) > 1
		generated = append(generated, posts.NewPost{
			Title:       strings.TrimSuffix(gofakeit.Sentence(gofakeit.Number(3, 8)), "."),
			Content:     gofakeit.Paragraph(gofakeit.Number(2, 5), gofakeit.Number(3, 6), 15, "\n\n"),
			Author:      authors[gofakeit.Number(0, len(authors)-1)],
			Tags:        pickTags(tags, gofakeit.Number(0, 3)),
			IsPublished: &published,
		})
	}
	return generated
}

func pickTags(tags []string, n int) []string {
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		picked = append(picked, tags[gofakeit.Number(0, len(tags)-1)])
	}
	return picked
}

func boolPtr(b bool) *bool {
	return &b
}
