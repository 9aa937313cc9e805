package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the engine from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncLobbyJoins()
	IncLobbyLeaves()
	IncDraftsStarted()
	IncDraftsCompleted()
	IncDraftAutoBans()
	IncMatchesSettled()
	IncSettlementFailures()
	IncNotifSent()
	IncNotifFailed()
	ObserveSettlementDuration(duration float64)
	SetStartupTime(duration float64)
}
