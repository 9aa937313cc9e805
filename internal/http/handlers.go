package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
	"github.com/slack-go/slack"
)

// statusForError maps domain errors onto HTTP status codes: 404 for unknown
// entities, 409 for lifecycle precondition violations, 502 for a settlement
// commit failure, 400 for malformed input.
func statusForError(err error) int {
	var failed *settlement.SettlementFailedError
	switch {
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, lobby.ErrLobbyNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrAlreadyRegistered),
		errors.Is(err, lobby.ErrLobbyNotJoinable),
		errors.Is(err, lobby.ErrAlreadyInLobby),
		errors.Is(err, lobby.ErrLobbyFull),
		errors.Is(err, lobby.ErrNotAMember),
		errors.Is(err, lobby.ErrLobbyBusy),
		errors.Is(err, lobby.ErrNoActiveDraft),
		errors.Is(err, lobby.ErrInvalidTurn),
		errors.Is(err, lobby.ErrUnknownMap),
		errors.Is(err, lobby.ErrMapAlreadyBanned),
		errors.Is(err, lobby.ErrMatchNotInProgress):
		return http.StatusConflict
	case errors.As(err, &failed):
		return http.StatusBadGateway
	case errors.Is(err, registry.ErrUnknownRank),
		errors.Is(err, settlement.ErrInvalidWinningSide),
		errors.Is(err, settlement.ErrIncompleteRoster),
		errors.Is(err, settlement.ErrInvalidResult):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) RegisterPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID    string `json:"player_id"`
			DisplayName string `json:"display_name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.PlayerID == "" || req.DisplayName == "" {
			http.Error(w, "player_id and display_name are required", http.StatusBadRequest)
			return
		}

		player, err := s.Engine.RegisterPlayer(req.PlayerID, req.DisplayName, isDryRunFromContext(r))
		if err != nil {
			log.Error("Failed to register player", "playerID", req.PlayerID, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, player)
	}
}

func (s *Server) SetNicknameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
			Nickname string `json:"nickname"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.PlayerID == "" || req.Nickname == "" {
			http.Error(w, "player_id and nickname are required", http.StatusBadRequest)
			return
		}

		if err := s.Engine.SetNickname(req.PlayerID, req.Nickname); err != nil {
			log.Error("Failed to set nickname", "playerID", req.PlayerID, "error", err)
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

func (s *Server) SetRankHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
			Rank     string `json:"rank"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		rank, err := registry.ParseRank(req.Rank)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := s.Engine.SetRank(req.PlayerID, rank); err != nil {
			log.Error("Failed to set rank", "playerID", req.PlayerID, "error", err)
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Engine.Players()
		if err != nil {
			http.Error(w, "Failed to get players", http.StatusInternalServerError)
			log.Error("Failed to get players from registry", "error", err)
			return
		}
		respondJSON(w, players)
	}
}

func (s *Server) PlayerStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		stats, err := s.Engine.GetPlayerStats(query)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, stats)
	}
}

// LeaderboardHandler returns a handler that serves the ladder standings.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err == nil && parsed > 0 {
				limit = parsed
			} else {
				log.Warn("Invalid 'limit' parameter provided. Using default.", "limit_param", limitStr)
			}
		}

		stats, err := s.Engine.GetLeaderboard(limit)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "error", err)
			return
		}
		respondJSON(w, stats)
	}
}

func (s *Server) ListLobbiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, s.Engine.Lobbies())
	}
}

func (s *Server) GetLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := r.URL.Query().Get("lobby_id")
		view, err := s.Engine.GetLobby(lobbyID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func (s *Server) JoinLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LobbyID  string `json:"lobby_id"`
			PlayerID string `json:"player_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := s.Engine.JoinLobby(req.LobbyID, req.PlayerID, isDryRunFromContext(r))
		if err != nil {
			log.Warn("Join rejected", "lobbyID", req.LobbyID, "playerID", req.PlayerID, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func (s *Server) LeaveLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LobbyID  string `json:"lobby_id"`
			PlayerID string `json:"player_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := s.Engine.LeaveLobby(req.LobbyID, req.PlayerID, isDryRunFromContext(r))
		if err != nil {
			log.Warn("Leave rejected", "lobbyID", req.LobbyID, "playerID", req.PlayerID, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func (s *Server) SubmitBanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LobbyID   string `json:"lobby_id"`
			CaptainID string `json:"captain_id"`
			Map       string `json:"map"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := s.Engine.SubmitBan(req.LobbyID, req.CaptainID, req.Map, isDryRunFromContext(r))
		if err != nil {
			log.Warn("Ban rejected", "lobbyID", req.LobbyID, "captainID", req.CaptainID, "map", req.Map, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func (s *Server) FinalizeMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LobbyID string               `json:"lobby_id"`
			Result  settlement.RawResult `json:"result"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		record, err := s.Engine.FinalizeMatch(req.LobbyID, req.Result, isDryRunFromContext(r))
		if err != nil {
			log.Error("Failed to finalize match", "lobbyID", req.LobbyID, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, record)
	}
}

func (s *Server) AbortLobbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LobbyID string `json:"lobby_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := s.Engine.AbortLobby(req.LobbyID, isDryRunFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, view)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err == nil && parsed > 0 {
				limit = parsed
			}
		}
		records, err := s.Engine.ListMatches(limit)
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			log.Error("Failed to get matches", "error", err)
			return
		}
		respondJSON(w, records)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match_id")
		if matchID == "" {
			http.Error(w, "match_id is required", http.StatusBadRequest)
			return
		}
		record, err := s.Engine.GetMatch(matchID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, record)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Engine.GetLeaderboard(0)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(stats)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// PlayerStatsCommandHandler returns a handler for the /player-stats Slack command.
func (s *Server) PlayerStatsCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		playerName := r.FormValue("text")
		if playerName == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received player stats command", "player", playerName)

		stats, err := s.Engine.GetPlayerStats(playerName)
		var msg any
		if err != nil {
			log.Warn("Could not find player stats", "player", playerName, "error", err)
			msg, err = s.Notifier.FormatPlayerNotFoundResponse(playerName)
		} else {
			msg, err = s.Notifier.FormatPlayerStatsResponse(stats, playerName)
		}

		if err != nil {
			http.Error(w, "Failed to format player stats", http.StatusInternalServerError)
			log.Error("Failed to format player stats", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}

// LobbyCommandHandler returns a handler for the /lobby Slack command. The
// command text selects a slot; empty text means the first configured slot.
func (s *Server) LobbyCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		lobbyID := r.FormValue("text")
		if lobbyID == "" {
			if len(s.Cfg.Lobby.Slots) == 0 {
				http.Error(w, "No lobbies configured", http.StatusInternalServerError)
				return
			}
			lobbyID = s.Cfg.Lobby.Slots[0]
		}

		view, err := s.Engine.GetLobby(lobbyID)
		if err != nil {
			respondError(w, err)
			return
		}

		msg, err := s.Notifier.FormatLobbyStateResponse(view)
		if err != nil {
			http.Error(w, "Failed to format lobby state", http.StatusInternalServerError)
			log.Error("Failed to format lobby state", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}
