package authentication

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "auth0_database_request_duration_seconds",
		Help: "Duration of requests to the authentication API.",
	}, []string{"path", "status"})
)
