package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "auth0_db_gateway_http_duration_seconds",
		Help: "Duration of gateway requests to the Auth0 database endpoints, by route, method and response status.",
	}, []string{"path", "method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// unmatched requests never reach route middleware, so the route is always set
		path, _ := mux.CurrentRoute(r).GetPathTemplate()

		startTime := time.Now()

		rec := &statusRecorder{w, 200}
		next.ServeHTTP(rec, r)

		httpDuration.WithLabelValues(path, r.Method, fmt.Sprint(rec.status)).Observe(time.Since(startTime).Seconds())
	})
}
