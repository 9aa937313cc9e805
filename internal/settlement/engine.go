package settlement

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/registry"
)

// New creates a new settlement Engine.
func New(db *sql.DB) *Engine {
	return &Engine{
		db: db,
	}
}

// Settle validates the raw result against the match setup and commits the
// match record, all line items and all player updates as one atomic unit.
// Precondition violations are returned before anything is written; a failure
// mid-commit rolls everything back and surfaces as *SettlementFailedError.
func (e *Engine) Settle(setup lobby.MatchSetup, raw RawResult) (*MatchRecord, error) {
	if raw.WinningSide != 1 && raw.WinningSide != 2 {
		return nil, ErrInvalidWinningSide
	}
	if err := validateRoster(setup, raw); err != nil {
		return nil, err
	}

	record := &MatchRecord{
		ID:          uuid.NewString(),
		LobbyID:     setup.LobbyID,
		Map:         setup.Map,
		WinningSide: raw.WinningSide,
		PlayedAt:    time.Now().Unix(),
		Lines:       make([]LineItem, 0, len(raw.Lines)),
	}
	for _, line := range raw.Lines {
		side := setup.Teams[line.PlayerID]
		outcome := OutcomeLoss
		if side == raw.WinningSide {
			outcome = OutcomeWin
		}
		record.Lines = append(record.Lines, LineItem{
			PlayerID: line.PlayerID,
			Side:     side,
			Kills:    line.Kills,
			Deaths:   line.Deaths,
			Outcome:  outcome,
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.commit(record); err != nil {
		log.Error("Settlement commit failed, rolled back", "lobbyID", setup.LobbyID, "error", err)
		return nil, &SettlementFailedError{Cause: err}
	}

	log.Info("Match settled",
		"matchID", record.ID,
		"lobbyID", record.LobbyID,
		"map", record.Map,
		"winningSide", record.WinningSide,
		"players", len(record.Lines),
	)
	return record, nil
}

func validateRoster(setup lobby.MatchSetup, raw RawResult) error {
	if len(raw.Lines) != len(setup.Roster) {
		return ErrIncompleteRoster
	}
	seen := make(map[string]bool, len(raw.Lines))
	for _, line := range raw.Lines {
		if line.Kills < 0 || line.Deaths < 0 {
			return ErrInvalidResult
		}
		if _, onRoster := setup.Teams[line.PlayerID]; !onRoster {
			return ErrIncompleteRoster
		}
		if seen[line.PlayerID] {
			return ErrIncompleteRoster
		}
		seen[line.PlayerID] = true
	}
	return nil
}

// commit writes the record and applies every player delta inside a single
// transaction. Any error aborts the whole unit.
func (e *Engine) commit(record *MatchRecord) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO matches (id, lobby_id, map, winning_side, played_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.LobbyID, record.Map, record.WinningSide, record.PlayedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for _, line := range record.Lines {
		_, err = tx.Exec(
			"INSERT INTO match_players (match_id, player_id, side, kills, deaths, outcome) VALUES (?, ?, ?, ?, ?, ?)",
			record.ID, line.PlayerID, line.Side, line.Kills, line.Deaths, line.Outcome,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert line item for player %s: %w", line.PlayerID, err)
		}

		delta := registry.ResultDelta{
			Kills:  line.Kills,
			Deaths: line.Deaths,
			Won:    line.Outcome == OutcomeWin,
		}
		if delta.Won {
			delta.EloDelta = EloWinDelta
		} else {
			delta.EloDelta = EloLossDelta
		}
		if err := registry.ApplyResultTx(tx, line.PlayerID, delta); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

// GetMatch returns one settled match with its line items.
func (e *Engine) GetMatch(matchID string) (*MatchRecord, error) {
	row := e.db.QueryRow("SELECT id, lobby_id, map, winning_side, played_at FROM matches WHERE id = ?", matchID)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up match %s: %w", matchID, err)
	}
	if err := e.loadLines(record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListMatches returns the most recently settled matches, newest first.
func (e *Engine) ListMatches(limit int) ([]*MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := e.db.Query("SELECT id, lobby_id, map, winning_side, played_at FROM matches ORDER BY played_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var records []*MatchRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := e.loadLines(record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func scanRecord(scanner interface{ Scan(...any) error }) (*MatchRecord, error) {
	var record MatchRecord
	err := scanner.Scan(&record.ID, &record.LobbyID, &record.Map, &record.WinningSide, &record.PlayedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (e *Engine) loadLines(record *MatchRecord) error {
	rows, err := e.db.Query(
		"SELECT player_id, side, kills, deaths, outcome FROM match_players WHERE match_id = ? ORDER BY side, player_id",
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query line items for match %s: %w", record.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.PlayerID, &line.Side, &line.Kills, &line.Deaths, &line.Outcome); err != nil {
			return err
		}
		record.Lines = append(record.Lines, line)
	}
	return rows.Err()
}
