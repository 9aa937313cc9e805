package notifier

import (
	"sync"

	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendWelcomeCalls      []*registry.Player
	SendLobbyStateCalls   []lobby.View
	SendDraftUpdateCalls  []lobby.DraftView
	SendMatchSettledCalls []struct {
		Record *settlement.MatchRecord
		Names  map[string]string
	}
	SendEngineErrorCalls []struct {
		Scope string
		Cause error
	}

	// Spies for format functions
	FormatLeaderboardResponseFunc    func(stats []registry.PlayerStats) (any, error)
	FormatPlayerStatsResponseFunc    func(stats *registry.PlayerStats, query string) (any, error)
	FormatPlayerNotFoundResponseFunc func(query string) (any, error)
	FormatLobbyStateResponseFunc     func(view lobby.View) (any, error)

	// Call records for format functions
	LastLeaderboardResponse    any
	LastPlayerStatsResponse    any
	LastPlayerNotFoundResponse any
	LastLobbyStateResponse     any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendWelcomeCalls = nil
	m.SendLobbyStateCalls = nil
	m.SendDraftUpdateCalls = nil
	m.SendMatchSettledCalls = nil
	m.SendEngineErrorCalls = nil
	m.LastLeaderboardResponse = nil
	m.LastPlayerStatsResponse = nil
	m.LastPlayerNotFoundResponse = nil
	m.LastLobbyStateResponse = nil
}

func (m *Mock) SendWelcome(player *registry.Player, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendWelcomeCalls = append(m.SendWelcomeCalls, player)
	return nil
}

func (m *Mock) SendLobbyState(view lobby.View, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLobbyStateCalls = append(m.SendLobbyStateCalls, view)
	return nil
}

func (m *Mock) SendDraftUpdate(view lobby.DraftView, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDraftUpdateCalls = append(m.SendDraftUpdateCalls, view)
	return nil
}

func (m *Mock) SendMatchSettled(record *settlement.MatchRecord, names map[string]string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchSettledCalls = append(m.SendMatchSettledCalls, struct {
		Record *settlement.MatchRecord
		Names  map[string]string
	}{record, names})
	return nil
}

func (m *Mock) SendEngineError(scope string, cause error, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendEngineErrorCalls = append(m.SendEngineErrorCalls, struct {
		Scope string
		Cause error
	}{scope, cause})
	return nil
}

func (m *Mock) FormatLeaderboardResponse(stats []registry.PlayerStats) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(stats)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatPlayerStatsResponse(stats *registry.PlayerStats, query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerStatsResponseFunc != nil {
		resp, err := m.FormatPlayerStatsResponseFunc(stats, query)
		m.LastPlayerStatsResponse = resp
		return resp, err
	}
	return "formatted_player_stats", nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatPlayerNotFoundResponseFunc != nil {
		resp, err := m.FormatPlayerNotFoundResponseFunc(query)
		m.LastPlayerNotFoundResponse = resp
		return resp, err
	}
	return "formatted_player_not_found", nil
}

func (m *Mock) FormatLobbyStateResponse(view lobby.View) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLobbyStateResponseFunc != nil {
		resp, err := m.FormatLobbyStateResponseFunc(view)
		m.LastLobbyStateResponse = resp
		return resp, err
	}
	return "formatted_lobby_state", nil
}
