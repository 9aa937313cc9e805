package registry

import (
	"database/sql"
	"errors"
	"sync"
)

var (
	ErrNotFound          = errors.New("player not found")
	ErrAlreadyRegistered = errors.New("player already registered")
	ErrUnknownRank       = errors.New("unknown rank tier")
)

// Rank is a manually selected ladder label. It is stored independently of
// ELO: the tier baseline seeds a player's ELO on first selection only.
type Rank string

const (
	RankCopper   Rank = "COPPER"
	RankBronze   Rank = "BRONZE"
	RankSilver   Rank = "SILVER"
	RankGold     Rank = "GOLD"
	RankPlatinum Rank = "PLATINUM"
	RankEmerald  Rank = "EMERALD"
	RankDiamond  Rank = "DIAMOND"
	RankChampion Rank = "CHAMPION"
)

// rankTiers lists the tiers in ladder order with their baseline ELO and
// display emoji.
var rankTiers = []struct {
	Rank     Rank
	Baseline int
	Emoji    string
}{
	{RankCopper, 0, "🥉"},
	{RankBronze, 1000, "🔶"},
	{RankSilver, 2000, "🔷"},
	{RankGold, 3000, "🥇"},
	{RankPlatinum, 4000, "💠"},
	{RankEmerald, 5000, "💚"},
	{RankDiamond, 6000, "💎"},
	{RankChampion, 7000, "🏆"},
}

// ParseRank validates a rank label.
func ParseRank(raw string) (Rank, error) {
	for _, t := range rankTiers {
		if string(t.Rank) == raw {
			return t.Rank, nil
		}
	}
	return "", ErrUnknownRank
}

// Baseline returns the tier's floor ELO value.
func (r Rank) Baseline() int {
	for _, t := range rankTiers {
		if t.Rank == r {
			return t.Baseline
		}
	}
	return 0
}

// Emoji returns the tier's display emoji, or an empty string for an unset rank.
func (r Rank) Emoji() string {
	for _, t := range rankTiers {
		if t.Rank == r {
			return t.Emoji
		}
	}
	return ""
}

// Player is a registered competitor and their cumulative ladder statistics.
type Player struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	Nickname      string  `json:"nickname,omitempty"`
	Rank          Rank    `json:"rank,omitempty"`
	Elo           int     `json:"elo"`
	MatchesPlayed int     `json:"matches_played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	KDRatio       float64 `json:"kd_ratio"`
	RegisteredAt  int64   `json:"registered_at"`
}

// PlayerStats is a leaderboard row with derived fields.
type PlayerStats struct {
	PlayerID      string  `json:"player_id"`
	DisplayName   string  `json:"display_name"`
	Nickname      string  `json:"nickname,omitempty"`
	Rank          Rank    `json:"rank,omitempty"`
	Elo           int     `json:"elo"`
	MatchesPlayed int     `json:"matches_played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	KDRatio       float64 `json:"kd_ratio"`
	WinPercentage float64 `json:"win_percentage"`
}

// ResultDelta is one player's share of a settled match. It is only ever
// applied inside the settlement transaction.
type ResultDelta struct {
	EloDelta int
	Kills    int
	Deaths   int
	Won      bool
}

// store handles all database operations for the player registry.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
