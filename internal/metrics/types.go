package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	LobbyJoins         prometheus.Counter
	LobbyLeaves        prometheus.Counter
	DraftsStarted      prometheus.Counter
	DraftsCompleted    prometheus.Counter
	DraftAutoBans      prometheus.Counter
	MatchesSettled     prometheus.Counter
	SettlementFailures prometheus.Counter
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	SettlementDuration prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}
