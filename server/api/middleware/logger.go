package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DeploymentIDHeader is set by handlers that record a deployment attempt, so the
// access log line can be joined with the deployment history.
const DeploymentIDHeader = "X-Deployment-ID"

// statusRecorder captures what the handler wrote for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Logger writes one access log line per request. Deploys hold the connection for
// minutes, so anything slower than slow is logged with a slow flag.
func Logger(log zerolog.Logger, slow time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)
			latency := time.Since(start)

			var evt *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				evt = log.Error()
			case rec.status >= http.StatusBadRequest:
				evt = log.Warn()
			default:
				evt = log.Info()
			}

			if id := rec.Header().Get(DeploymentIDHeader); id != "" {
				evt = evt.Str("deployment_id", id)
			}
			if slow > 0 && latency > slow {
				evt = evt.Bool("slow", true)
			}

			evt.
				Str("request_id", RequestIDFrom(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", rec.status).
				Int64("bytes", rec.size).
				Dur("latency", latency).
				Msg("http_request")
		})
	}
}
