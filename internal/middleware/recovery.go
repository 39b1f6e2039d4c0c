package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/edublog/internal/telemetry/metrics"
	"github.com/2beens/edublog/pkg"
)

const msgInternalServerError = "Erro interno do servidor"

// PanicRecovery answers a panicking handler with the generic 500 envelope.
// http.ErrAbortHandler is panicked again, the server relies on it to abort the response.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(recovered)
				}

				log.WithFields(log.Fields{
					"request_id": r.Header.Get(RequestIDHeader),
					"method":     r.Method,
					"path":       r.URL.Path,
				}).Errorf("recovered from panic: %v\n%s", recovered, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				pkg.WriteEnvelope(w, pkg.Envelope{
					Success: false,
					Message: msgInternalServerError,
				}, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
