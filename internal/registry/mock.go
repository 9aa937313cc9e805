package registry

import (
	"sort"
	"sync"
	"time"
)

// Mock is an in-memory implementation of PlayerStore for testing.
// It is safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	Players map[string]*Player

	RegisterCalls    []string
	SetNicknameCalls []struct{ PlayerID, Nickname string }
	SetRankCalls     []struct {
		PlayerID string
		Rank     Rank
	}
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{Players: make(map[string]*Player)}
}

func (m *Mock) Lookup(playerID string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Mock) Register(playerID, displayName string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegisterCalls = append(m.RegisterCalls, playerID)
	if p, ok := m.Players[playerID]; ok {
		if p.Nickname != "" {
			return nil, ErrAlreadyRegistered
		}
		p.DisplayName = displayName
		cp := *p
		return &cp, nil
	}
	p := &Player{ID: playerID, DisplayName: displayName, RegisteredAt: time.Now().Unix()}
	m.Players[playerID] = p
	cp := *p
	return &cp, nil
}

func (m *Mock) SetNickname(playerID, nickname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetNicknameCalls = append(m.SetNicknameCalls, struct{ PlayerID, Nickname string }{playerID, nickname})
	p, ok := m.Players[playerID]
	if !ok {
		return ErrNotFound
	}
	if p.Nickname != "" {
		return ErrAlreadyRegistered
	}
	p.Nickname = nickname
	return nil
}

func (m *Mock) SetRank(playerID string, rank Rank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetRankCalls = append(m.SetRankCalls, struct {
		PlayerID string
		Rank     Rank
	}{playerID, rank})
	p, ok := m.Players[playerID]
	if !ok {
		return ErrNotFound
	}
	if p.Rank == "" && p.Elo == 0 || p.Rank != "" && p.Elo == p.Rank.Baseline() {
		p.Elo = rank.Baseline()
	}
	p.Rank = rank
	return nil
}

func (m *Mock) GetLeaderboard(limit int) ([]PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	var stats []PlayerStats
	for _, p := range m.Players {
		if p.Elo > 0 && p.MatchesPlayed > 0 {
			stats = append(stats, toStats(p))
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Elo != stats[j].Elo {
			return stats[i].Elo > stats[j].Elo
		}
		return stats[i].KDRatio > stats[j].KDRatio
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

func (m *Mock) GetPlayerStatsByName(query string) (*PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Players {
		if p.Nickname == query || p.DisplayName == query {
			stats := toStats(p)
			return &stats, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) GetAllPlayers() ([]Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var players []Player
	for _, p := range m.Players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (m *Mock) IsKnownPlayer(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Players[playerID]
	return ok
}
