package misc

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/edublog/internal/telemetry/tracing"
	"github.com/2beens/edublog/pkg"
)

const (
	healthStatusOK       = "OK"
	healthStatusDegraded = "DEGRADED"
	healthMessage        = "API de Blogging funcionando corretamente"
	pingTimeout          = 2 * time.Second
)

type storePinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks"`
}

type Handler struct {
	store       storePinger
	redisClient redisPinger
	versionInfo string
	now         func() time.Time
}

// NewHandler takes an optional redis client, a nil one is not checked.
func NewHandler(store storePinger, redisClient redisPinger, versionInfo string) *Handler {
	return &Handler{
		store:       store,
		redisClient: redisClient,
		versionInfo: versionInfo,
		now:         time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET", "HEAD").Name("health")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
}

// handleHealth answers 503 only when the store is unreachable, redis just limits request rates.
func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    healthStatusOK,
		Message:   healthMessage,
		Timestamp: handler.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:   handler.versionInfo,
		Checks:    map[string]string{},
	}
	statusCode := http.StatusOK

	if err := handler.store.Ping(ctx); err != nil {
		log.Errorf("health: store ping: %s", err)
		resp.Status = healthStatusDegraded
		resp.Checks["store"] = "down"
		statusCode = http.StatusServiceUnavailable
	} else {
		resp.Checks["store"] = "ok"
	}

	if handler.redisClient != nil {
		if err := handler.redisClient.Ping(ctx).Err(); err != nil {
			log.Warnf("health: redis ping: %s", err)
			resp.Checks["redis"] = "down"
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	pkg.WriteJSON(w, resp, statusCode)
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
