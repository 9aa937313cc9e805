package registry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new PlayerStore.
func New(db *sql.DB) PlayerStore {
	return &store{
		db: db,
	}
}

const playerColumns = `id, display_name, nickname, rank, elo, matches_played, wins, losses, kills, deaths, kd_ratio, registered_at`

// scanPlayer is a helper function to scan a single player row.
func scanPlayer(scanner interface{ Scan(...any) error }) (*Player, error) {
	var p Player
	var nickname, rank sql.NullString

	err := scanner.Scan(
		&p.ID, &p.DisplayName, &nickname, &rank, &p.Elo,
		&p.MatchesPlayed, &p.Wins, &p.Losses, &p.Kills, &p.Deaths,
		&p.KDRatio, &p.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	p.Nickname = nickname.String
	p.Rank = Rank(rank.String)
	return &p, nil
}

// Lookup returns the player with the given id, or ErrNotFound.
func (s *store) Lookup(playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(playerID)
}

func (s *store) lookup(playerID string) (*Player, error) {
	row := s.db.QueryRow("SELECT "+playerColumns+" FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up player %s: %w", playerID, err)
	}
	return p, nil
}

// Register creates a player on first registration. Re-registering an id whose
// nickname is not yet set only refreshes the display name; once a nickname is
// bound the registration is final.
func (s *store) Register(playerID, displayName string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.lookup(playerID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if existing != nil {
		if existing.Nickname != "" {
			return nil, ErrAlreadyRegistered
		}
		if _, err := s.db.Exec("UPDATE players SET display_name = ? WHERE id = ?", displayName, playerID); err != nil {
			return nil, fmt.Errorf("failed to update display name: %w", err)
		}
		existing.DisplayName = displayName
		return existing, nil
	}

	now := time.Now().Unix()
	_, err = s.db.Exec(
		"INSERT INTO players (id, display_name, registered_at) VALUES (?, ?, ?)",
		playerID, displayName, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register player %s: %w", playerID, err)
	}
	log.Info("Registered player", "playerID", playerID, "name", displayName)
	return &Player{ID: playerID, DisplayName: displayName, RegisteredAt: now}, nil
}

// SetNickname binds the in-game nickname. A nickname can be set once.
func (s *store) SetNickname(playerID, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}
	if p.Nickname != "" {
		return ErrAlreadyRegistered
	}
	if _, err := s.db.Exec("UPDATE players SET nickname = ? WHERE id = ?", nickname, playerID); err != nil {
		return fmt.Errorf("failed to set nickname: %w", err)
	}
	log.Info("Player nickname set", "playerID", playerID, "nickname", nickname)
	return nil
}

// SetRank selects a rank tier. The tier's baseline ELO is assigned only when
// the player has not yet earned anything on the ladder: first selection, or a
// re-selection while still sitting at the old tier's floor. Accumulated ELO
// is never reset.
func (s *store) SetRank(playerID string, rank Rank) error {
	if _, err := ParseRank(string(rank)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	atFloor := p.Rank == "" && p.Elo == 0 || p.Rank != "" && p.Elo == p.Rank.Baseline()
	if atFloor {
		_, err = s.db.Exec("UPDATE players SET rank = ?, elo = ? WHERE id = ?", string(rank), rank.Baseline(), playerID)
	} else {
		_, err = s.db.Exec("UPDATE players SET rank = ? WHERE id = ?", string(rank), playerID)
	}
	if err != nil {
		return fmt.Errorf("failed to set rank: %w", err)
	}
	log.Info("Player rank set", "playerID", playerID, "rank", rank, "baselineApplied", atFloor)
	return nil
}

// GetLeaderboard returns ladder rows ordered by ELO, tie-broken by K/D ratio.
// Players who have not yet played or earned ELO are excluded.
func (s *store) GetLeaderboard(limit int) ([]PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT `+playerColumns+`
		FROM players
		WHERE elo > 0 AND matches_played > 0
		ORDER BY elo DESC, kd_ratio DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan leaderboard row", "error", err)
			continue
		}
		stats = append(stats, toStats(p))
	}
	return stats, rows.Err()
}

// GetPlayerStatsByName finds a player by nickname or display name.
func (s *store) GetPlayerStatsByName(query string) (*PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		"SELECT "+playerColumns+" FROM players WHERE nickname = ? OR display_name = ?",
		query, query,
	)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up player by name %q: %w", query, err)
	}
	stats := toStats(p)
	return &stats, nil
}

// GetAllPlayers returns every registered player.
func (s *store) GetAllPlayers() ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + playerColumns + " FROM players ORDER BY registered_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// IsKnownPlayer reports whether the id belongs to a registered player.
func (s *store) IsKnownPlayer(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow("SELECT 1 FROM players WHERE id = ?", playerID).Scan(&one)
	return err == nil
}

func toStats(p *Player) PlayerStats {
	winPct := 0.0
	if p.MatchesPlayed > 0 {
		winPct = float64(p.Wins) / float64(p.MatchesPlayed) * 100
	}
	return PlayerStats{
		PlayerID:      p.ID,
		DisplayName:   p.DisplayName,
		Nickname:      p.Nickname,
		Rank:          p.Rank,
		Elo:           p.Elo,
		MatchesPlayed: p.MatchesPlayed,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Kills:         p.Kills,
		Deaths:        p.Deaths,
		KDRatio:       p.KDRatio,
		WinPercentage: winPct,
	}
}

// KDRatio recomputes the derived kill/death ratio from cumulative totals.
// A zero denominator yields 0 rather than a division error.
func KDRatio(kills, deaths int) float64 {
	if deaths == 0 {
		return 0
	}
	return float64(kills) / float64(deaths)
}

// ApplyResultTx applies one player's share of a settled match inside the
// caller's transaction: raw counters first, then the derived ratio is
// recomputed from the updated totals. The caller owns commit and rollback.
func ApplyResultTx(tx *sql.Tx, playerID string, d ResultDelta) error {
	wins, losses := 0, 1
	if d.Won {
		wins, losses = 1, 0
	}

	res, err := tx.Exec(`
		UPDATE players
		SET elo = elo + ?,
		    matches_played = matches_played + 1,
		    wins = wins + ?,
		    losses = losses + ?,
		    kills = kills + ?,
		    deaths = deaths + ?
		WHERE id = ?`,
		d.EloDelta, wins, losses, d.Kills, d.Deaths, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update counters for player %s: %w", playerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}

	var kills, deaths int
	if err := tx.QueryRow("SELECT kills, deaths FROM players WHERE id = ?", playerID).Scan(&kills, &deaths); err != nil {
		return fmt.Errorf("failed to read updated totals for player %s: %w", playerID, err)
	}
	if _, err := tx.Exec("UPDATE players SET kd_ratio = ? WHERE id = ?", KDRatio(kills, deaths), playerID); err != nil {
		return fmt.Errorf("failed to update kd ratio for player %s: %w", playerID, err)
	}
	return nil
}
