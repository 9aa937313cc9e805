package notifier

import (
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For player registration
	SendWelcome(player *registry.Player, dryRun bool) error
	// For lobby roster changes
	SendLobbyState(view lobby.View, dryRun bool) error
	// For draft turns, auto-bans and draft completion
	SendDraftUpdate(view lobby.DraftView, dryRun bool) error
	// For settled matches. names maps player IDs to display names.
	SendMatchSettled(record *settlement.MatchRecord, names map[string]string, dryRun bool) error
	// For settlement and session failures
	SendEngineError(scope string, cause error, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(stats []registry.PlayerStats) (any, error)
	FormatPlayerStatsResponse(stats *registry.PlayerStats, query string) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
	FormatLobbyStateResponse(view lobby.View) (any, error)
}
