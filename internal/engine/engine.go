package engine

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/pubsub"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
)

// New creates a new Engine.
func New(lobbies *lobby.Manager, players registry.PlayerStore, settler Settler, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Engine {
	return &Engine{
		lobbies:  lobbies,
		players:  players,
		settler:  settler,
		notifier: notifier,
		metrics:  metrics,
		pubsub:   pubsub,
	}
}

// RegisterPlayer adds a player to the registry and sends the welcome message.
func (e *Engine) RegisterPlayer(playerID, displayName string, dryRun bool) (*registry.Player, error) {
	player, err := e.players.Register(playerID, displayName)
	if err != nil {
		return nil, err
	}
	if err := e.notifier.SendWelcome(player, dryRun); err != nil {
		log.Error("Failed to send welcome message", "playerID", playerID, "error", err)
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventPlayerRegistered), player)
	}
	return player, nil
}

// SetNickname sets a player's permanent nickname.
func (e *Engine) SetNickname(playerID, nickname string) error {
	return e.players.SetNickname(playerID, nickname)
}

// SetRank records a player's self-selected rank tier.
func (e *Engine) SetRank(playerID string, rank registry.Rank) error {
	return e.players.SetRank(playerID, rank)
}

// JoinLobby adds a registered player to a lobby slot. Filling the last seat
// starts the map ban draft.
func (e *Engine) JoinLobby(lobbyID, playerID string, dryRun bool) (lobby.View, error) {
	if !e.players.IsKnownPlayer(playerID) {
		return lobby.View{}, registry.ErrNotFound
	}

	view, err := e.lobbies.Join(lobbyID, playerID)
	if err != nil {
		return lobby.View{}, err
	}
	e.metrics.IncLobbyJoins()

	if view.Draft != nil {
		e.metrics.IncDraftsStarted()
		if err := e.notifier.SendDraftUpdate(*view.Draft, dryRun); err != nil {
			log.Error("Failed to send draft update", "lobbyID", lobbyID, "error", err)
		}
	} else {
		if err := e.notifier.SendLobbyState(view, dryRun); err != nil {
			log.Error("Failed to send lobby state", "lobbyID", lobbyID, "error", err)
		}
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventLobbyStateChanged), view)
	}
	return view, nil
}

// LeaveLobby removes a player from a lobby that has not yet locked its roster.
func (e *Engine) LeaveLobby(lobbyID, playerID string, dryRun bool) (lobby.View, error) {
	view, err := e.lobbies.Leave(lobbyID, playerID)
	if err != nil {
		return lobby.View{}, err
	}
	e.metrics.IncLobbyLeaves()

	if err := e.notifier.SendLobbyState(view, dryRun); err != nil {
		log.Error("Failed to send lobby state", "lobbyID", lobbyID, "error", err)
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventLobbyStateChanged), view)
	}
	return view, nil
}

// SubmitBan applies a captain's ban on their turn. Banning down to one map
// completes the draft and starts the match session.
func (e *Engine) SubmitBan(lobbyID, captainID, mapName string, dryRun bool) (lobby.DraftView, error) {
	view, err := e.lobbies.SubmitBan(lobbyID, captainID, mapName)
	if err != nil {
		return lobby.DraftView{}, err
	}
	if view.ChosenMap != "" {
		e.metrics.IncDraftsCompleted()
	}

	if err := e.notifier.SendDraftUpdate(view, dryRun); err != nil {
		log.Error("Failed to send draft update", "lobbyID", lobbyID, "error", err)
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventDraftUpdated), view)
	}
	return view, nil
}

// HandleAutoBan reacts to a timed-out ban turn. It is invoked by the lobby
// manager outside the lobby lock, after the random ban has been applied.
func (e *Engine) HandleAutoBan(view lobby.DraftView, captainID, mapName string) {
	e.metrics.IncDraftAutoBans()
	if view.ChosenMap != "" {
		e.metrics.IncDraftsCompleted()
	}

	if err := e.notifier.SendDraftUpdate(view, false); err != nil {
		log.Error("Failed to send draft update after auto-ban", "lobbyID", view.LobbyID, "error", err)
	}
	e.pubsub.SendMessage(string(pubsub.EventDraftUpdated), view)
}

// FinalizeMatch settles the in-progress match of a lobby with the supplied raw
// result. Settlement and the lobby reset happen under the lobby lock, so a
// commit failure leaves both the ladder and the lobby untouched.
func (e *Engine) FinalizeMatch(lobbyID string, raw settlement.RawResult, dryRun bool) (*settlement.MatchRecord, error) {
	startTime := time.Now()

	var record *settlement.MatchRecord
	err := e.lobbies.Finalize(lobbyID, func(setup lobby.MatchSetup) error {
		settled, err := e.settler.Settle(setup, raw)
		if err != nil {
			return err
		}
		record = settled
		return nil
	})
	if err != nil {
		var failed *settlement.SettlementFailedError
		if errors.As(err, &failed) {
			e.metrics.IncSettlementFailures()
			if notifErr := e.notifier.SendEngineError("Match settlement", err, dryRun); notifErr != nil {
				log.Error("Failed to send settlement failure notice", "lobbyID", lobbyID, "error", notifErr)
			}
		}
		return nil, err
	}

	e.metrics.IncMatchesSettled()
	e.metrics.ObserveSettlementDuration(float64(time.Since(startTime).Milliseconds()))

	if err := e.notifier.SendMatchSettled(record, e.playerNames(record), dryRun); err != nil {
		log.Error("Failed to send match summary", "lobbyID", lobbyID, "error", err)
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventMatchSettled), record)
	}
	return record, nil
}

// AbortLobby administratively resets a slot and releases its members.
func (e *Engine) AbortLobby(lobbyID string, dryRun bool) (lobby.View, error) {
	if current, err := e.lobbies.Get(lobbyID); err == nil && current.Status == lobby.StatusInProgress.String() {
		if expired, _ := e.lobbies.SessionExpired(lobbyID); !expired {
			log.Warn("Aborting an in-progress match before its session deadline", "lobbyID", lobbyID)
		}
	}

	view, err := e.lobbies.Abort(lobbyID)
	if err != nil {
		return lobby.View{}, err
	}

	if err := e.notifier.SendLobbyState(view, dryRun); err != nil {
		log.Error("Failed to send lobby state", "lobbyID", lobbyID, "error", err)
	}
	if !dryRun {
		e.pubsub.SendMessage(string(pubsub.EventLobbyStateChanged), view)
	}
	return view, nil
}

// GetLobby returns a snapshot of one lobby slot.
func (e *Engine) GetLobby(lobbyID string) (lobby.View, error) {
	return e.lobbies.Get(lobbyID)
}

// Lobbies returns snapshots of every slot in configured order.
func (e *Engine) Lobbies() []lobby.View {
	slots := e.lobbies.Slots()
	views := make([]lobby.View, 0, len(slots))
	for _, id := range slots {
		view, err := e.lobbies.Get(id)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views
}

// GetPlayer looks up one registered player.
func (e *Engine) GetPlayer(playerID string) (*registry.Player, error) {
	return e.players.Lookup(playerID)
}

// Players returns every registered player.
func (e *Engine) Players() ([]registry.Player, error) {
	return e.players.GetAllPlayers()
}

// GetPlayerStats resolves a player by name fragment and returns their derived
// ladder stats.
func (e *Engine) GetPlayerStats(query string) (*registry.PlayerStats, error) {
	return e.players.GetPlayerStatsByName(query)
}

// GetLeaderboard returns the ladder standings.
func (e *Engine) GetLeaderboard(limit int) ([]registry.PlayerStats, error) {
	return e.players.GetLeaderboard(limit)
}

// GetMatch returns one settled match.
func (e *Engine) GetMatch(matchID string) (*settlement.MatchRecord, error) {
	return e.settler.GetMatch(matchID)
}

// ListMatches returns recently settled matches, newest first.
func (e *Engine) ListMatches(limit int) ([]*settlement.MatchRecord, error) {
	return e.settler.ListMatches(limit)
}

// playerNames resolves display names for every line item, preferring
// nicknames. Unresolvable IDs fall back to the raw ID in the summary.
func (e *Engine) playerNames(record *settlement.MatchRecord) map[string]string {
	names := make(map[string]string, len(record.Lines))
	for _, line := range record.Lines {
		player, err := e.players.Lookup(line.PlayerID)
		if err != nil {
			continue
		}
		if player.Nickname != "" {
			names[line.PlayerID] = player.Nickname
		} else {
			names[line.PlayerID] = player.DisplayName
		}
	}
	return names
}
