package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/2beens/edublog/internal/config"
	"github.com/2beens/edublog/internal/middleware"
	"github.com/2beens/edublog/internal/misc"
	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/telemetry/metrics"
	"github.com/2beens/edublog/internal/telemetry/tracing"
	"github.com/2beens/edublog/pkg"
)

const (
	msgRouteNotFound    = "Rota não encontrada"
	msgMethodNotAllowed = "Método não permitido"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	postsStore  posts.Store
	redisClient *redis.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	SurrealPassword         string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	postsStore, storeCollector, err := NewPostsStore(ctx, NewPostsStoreParams{
		Config:           params.Config,
		SurrealPassword:  params.SurrealPassword,
		PostgresPassword: params.PostgresPassword,
		TracingEnabled:   params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new posts store: %w", err)
	}

	promRegistry := metrics.SetupPrometheus(storeCollector)
	metricsManager := metrics.NewManager("edublog", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		// rate limiting lets requests through while redis is away
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "edublog-api", rdb)
	if err != nil {
		_ = postsStore.Close(context.Background())
		_ = rdb.Close()
		return nil, err
	}

	return &Server{
		config:      params.Config,
		postsStore:  postsStore,
		redisClient: rdb,
		versionInfo: params.VersionInfo,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("edublog-router"))

	miscHandler := misc.NewHandler(s.postsStore, s.redisClient, s.versionInfo)
	miscHandler.SetupRoutes(r)

	postsHandler := posts.NewHandler(
		posts.NewService(s.postsStore),
		s.metricsManager,
		posts.HandlerOptions{
			ExposeErrors:         !s.config.IsProduction(),
			DraftsListingEnabled: s.config.DraftsListingEnabled,
		},
	)
	postsHandler.SetupRoutes(r)

	// unmatched requests skip the router middlewares
	r.NotFoundHandler = middleware.SecurityHeaders()(
		middleware.Cors(s.config.CorsAllowedOrigins)(http.HandlerFunc(handleNotFound)),
	)
	r.MethodNotAllowedHandler = middleware.SecurityHeaders()(
		middleware.Cors(s.config.CorsAllowedOrigins)(http.HandlerFunc(handleMethodNotAllowed)),
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"api",
		s.config.RateLimitAllowedPerMin,
		s.metricsManager,
	))
	r.Use(middleware.LimitRequestBody(s.config.MaxBodyBytes))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	log.Tracef("route not found: %s %s", r.Method, r.URL.Path)
	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: false,
		Message: fmt.Sprintf("A rota %s não existe", r.URL.Path),
		Error:   msgRouteNotFound,
	}, http.StatusNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	pkg.WriteEnvelope(w, pkg.Envelope{
		Success: false,
		Message: fmt.Sprintf("O método %s não é suportado em %s", r.Method, r.URL.Path),
		Error:   msgMethodNotAllowed,
	}, http.StatusMethodNotAllowed)
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// GracefulShutdown stops accepting requests first, then releases the store and redis.
func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	if s.postsStore != nil {
		log.Debugln("closing posts store ...")
		if closeErr := s.postsStore.Close(ctx); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close posts store: %w", closeErr))
		}
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeOpenConnections.Add(-1)
	default:
		// do nothing
	}
}
