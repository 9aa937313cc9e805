package engine

import (
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/pubsub"
	"github.com/scrimhub/siegequeue/internal/registry"
)

// Engine coordinates the lobby lifecycle: registry checks on entry, lobby
// transitions, match settlement, and the notifications and events that follow
// each of them.
type Engine struct {
	lobbies  *lobby.Manager
	players  registry.PlayerStore
	settler  Settler
	notifier Notifier
	metrics  metrics.Metrics
	pubsub   pubsub.PubSubClient
}
