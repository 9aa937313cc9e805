package http

import (
	"net/http"

	"github.com/scrimhub/siegequeue/internal/config"
	"github.com/scrimhub/siegequeue/internal/engine"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/notifier"
)

type Server struct {
	Engine         *engine.Engine
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
}
