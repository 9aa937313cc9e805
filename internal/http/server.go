package http

import (
	"net/http"

	"github.com/scrimhub/siegequeue/internal/config"
	"github.com/scrimhub/siegequeue/internal/engine"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/notifier"
)

func NewServer(eng *engine.Engine, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier) *Server {
	server := &Server{
		Engine:         eng,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/players", Chain(s.ListPlayersHandler(), paramsMiddleware))
	s.Router.Handle("/players/register", Chain(s.RegisterPlayerHandler(), paramsMiddleware))
	s.Router.Handle("/players/nickname", Chain(s.SetNicknameHandler(), paramsMiddleware))
	s.Router.Handle("/players/rank", Chain(s.SetRankHandler(), paramsMiddleware))
	s.Router.Handle("/player", Chain(s.PlayerStatsHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/lobbies", Chain(s.ListLobbiesHandler(), paramsMiddleware))
	s.Router.Handle("/lobby", Chain(s.GetLobbyHandler(), paramsMiddleware))
	s.Router.Handle("/lobby/join", Chain(s.JoinLobbyHandler(), paramsMiddleware))
	s.Router.Handle("/lobby/leave", Chain(s.LeaveLobbyHandler(), paramsMiddleware))
	s.Router.Handle("/lobby/ban", Chain(s.SubmitBanHandler(), paramsMiddleware))
	s.Router.Handle("/lobby/finalize", Chain(s.FinalizeMatchHandler(), paramsMiddleware))
	s.Router.Handle("/lobby/abort", Chain(s.AbortLobbyHandler(), paramsMiddleware))
	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("/match", Chain(s.GetMatchHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/player-stats", Chain(s.PlayerStatsCommandHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/lobby", Chain(s.LobbyCommandHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
