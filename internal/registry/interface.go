package registry

// PlayerStore defines the interface for interacting with the player registry.
// Stats are mutated only by the settlement transaction (ApplyResultTx) and by
// the explicit rank-selection path.
type PlayerStore interface {
	Lookup(playerID string) (*Player, error)
	Register(playerID, displayName string) (*Player, error)
	SetNickname(playerID, nickname string) error
	SetRank(playerID string, rank Rank) error
	GetLeaderboard(limit int) ([]PlayerStats, error)
	GetPlayerStatsByName(query string) (*PlayerStats, error)
	GetAllPlayers() ([]Player, error)
	IsKnownPlayer(playerID string) bool
}
