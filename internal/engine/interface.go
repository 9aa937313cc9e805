package engine

import (
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/notifier"
	"github.com/scrimhub/siegequeue/internal/settlement"
)

// Settler defines the settlement operations required by the engine.
type Settler interface {
	Settle(setup lobby.MatchSetup, raw settlement.RawResult) (*settlement.MatchRecord, error)
	GetMatch(matchID string) (*settlement.MatchRecord, error)
	ListMatches(limit int) ([]*settlement.MatchRecord, error)
}

// Notifier defines the notification operations required by the engine.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
