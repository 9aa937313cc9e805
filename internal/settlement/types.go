package settlement

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrIncompleteRoster   = errors.New("result player set does not match the match roster")
	ErrInvalidWinningSide = errors.New("winning side must be 1 or 2")
	ErrInvalidResult      = errors.New("kills and deaths must be non-negative")
)

// Fixed ladder deltas. No per-opponent adjustment is applied.
const (
	EloWinDelta  = 25
	EloLossDelta = -10
)

const (
	OutcomeWin  = "WIN"
	OutcomeLoss = "LOSS"
)

// SettlementFailedError reports a commit failure. The match record and every
// player update were rolled back; the lobby stays in progress for a retry.
type SettlementFailedError struct {
	Cause error
}

func (e *SettlementFailedError) Error() string {
	return fmt.Sprintf("settlement failed: %v", e.Cause)
}

func (e *SettlementFailedError) Unwrap() error {
	return e.Cause
}

// RawResult is the validated shape produced by an external result source
// (manual entry, image extraction). The engine never trusts anything beyond
// this shape.
type RawResult struct {
	WinningSide int       `json:"winning_side"`
	Lines       []RawLine `json:"lines"`
}

// RawLine is one roster member's performance in the match.
type RawLine struct {
	PlayerID string `json:"player_id"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
}

// MatchRecord is the immutable, append-only record of a settled match.
type MatchRecord struct {
	ID          string     `json:"id"`
	LobbyID     string     `json:"lobby_id"`
	Map         string     `json:"map"`
	WinningSide int        `json:"winning_side"`
	PlayedAt    int64      `json:"played_at"`
	Lines       []LineItem `json:"lines"`
}

// LineItem is one player's share of a match record.
type LineItem struct {
	PlayerID string `json:"player_id"`
	Side     int    `json:"side"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Outcome  string `json:"outcome"`
}

// Engine settles matches: it validates a raw result, computes ELO deltas and
// derived aggregates, and commits everything in one transaction.
type Engine struct {
	db *sql.DB
	mu sync.Mutex
}
