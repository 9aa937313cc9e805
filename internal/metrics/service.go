package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		LobbyJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_lobby_joins_total",
			Help: "The total number of successful lobby joins.",
		}),
		LobbyLeaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_lobby_leaves_total",
			Help: "The total number of successful lobby leaves.",
		}),
		DraftsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_drafts_started_total",
			Help: "The total number of drafts started by lobbies filling up.",
		}),
		DraftsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_drafts_completed_total",
			Help: "The total number of drafts that reached a chosen map.",
		}),
		DraftAutoBans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_draft_auto_bans_total",
			Help: "The total number of bans issued on behalf of timed-out captains.",
		}),
		MatchesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_matches_settled_total",
			Help: "The total number of matches settled into player statistics.",
		}),
		SettlementFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_settlement_failures_total",
			Help: "The total number of settlement commits that failed and rolled back.",
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siegequeue_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "siegequeue_settlement_duration_seconds",
			Help:    "The duration of individual settlement commits.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "siegequeue_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.LobbyJoins,
		s.LobbyLeaves,
		s.DraftsStarted,
		s.DraftsCompleted,
		s.DraftAutoBans,
		s.MatchesSettled,
		s.SettlementFailures,
		s.NotifSent,
		s.NotifFailed,
		s.SettlementDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncLobbyJoins() {
	s.LobbyJoins.Inc()
}

func (s *Service) IncLobbyLeaves() {
	s.LobbyLeaves.Inc()
}

func (s *Service) IncDraftsStarted() {
	s.DraftsStarted.Inc()
}

func (s *Service) IncDraftsCompleted() {
	s.DraftsCompleted.Inc()
}

func (s *Service) IncDraftAutoBans() {
	s.DraftAutoBans.Inc()
}

func (s *Service) IncMatchesSettled() {
	s.MatchesSettled.Inc()
}

func (s *Service) IncSettlementFailures() {
	s.SettlementFailures.Inc()
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) ObserveSettlementDuration(duration float64) {
	s.SettlementDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
