package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	LobbyJoins          int
	LobbyLeaves         int
	DraftsStarted       int
	DraftsCompleted     int
	DraftAutoBans       int
	MatchesSettled      int
	SettlementFailures  int
	NotifSent           int
	NotifFailed         int
	SettlementDurations []float64
	StartupTime         float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) IncLobbyJoins()         { m.mu.Lock(); defer m.mu.Unlock(); m.LobbyJoins++ }
func (m *Mock) IncLobbyLeaves()        { m.mu.Lock(); defer m.mu.Unlock(); m.LobbyLeaves++ }
func (m *Mock) IncDraftsStarted()      { m.mu.Lock(); defer m.mu.Unlock(); m.DraftsStarted++ }
func (m *Mock) IncDraftsCompleted()    { m.mu.Lock(); defer m.mu.Unlock(); m.DraftsCompleted++ }
func (m *Mock) IncDraftAutoBans()      { m.mu.Lock(); defer m.mu.Unlock(); m.DraftAutoBans++ }
func (m *Mock) IncMatchesSettled()     { m.mu.Lock(); defer m.mu.Unlock(); m.MatchesSettled++ }
func (m *Mock) IncSettlementFailures() { m.mu.Lock(); defer m.mu.Unlock(); m.SettlementFailures++ }

func (m *Mock) IncNotifSent()   { m.mu.Lock(); defer m.mu.Unlock(); m.NotifSent++ }
func (m *Mock) IncNotifFailed() { m.mu.Lock(); defer m.mu.Unlock(); m.NotifFailed++ }

func (m *Mock) ObserveSettlementDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettlementDurations = append(m.SettlementDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartupTime = duration
}
