package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	Lobby         LobbyConfig
	ProjectID     string
}
type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// LobbyConfig controls the lobby lifecycle engine: how many slots exist,
// how large a roster is, which maps are draftable, and how long a captain
// may sit on a turn before the engine bans on their behalf.
type LobbyConfig struct {
	Slots          []string
	Capacity       int
	MapPool        []string
	TurnTimeout    time.Duration
	SessionTimeout time.Duration
}
