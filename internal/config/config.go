package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// DefaultMapPool is the competitive map rotation used when MAP_POOL is not set.
var DefaultMapPool = []string{
	"BANK", "BORDER", "CHALET", "CLUBHOUSE", "CONSULATE",
	"KAFE DOSTOYEVSKY", "OREGON", "SKYSCRAPER", "VILLA",
	"NIGHTHAVEN LABS", "LAIR", "OUTBACK", "THEME PARK", "EMERALD PLAINS",
}

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	// Optional vars fall back to a default instead of failing.
	getEnvOr := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}

	getEnvInt := func(key string, fallback int) int {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn("Invalid integer env var, using default", "key", key, "value", raw, "default", fallback)
			return fallback
		}
		return v
	}

	mapPool := DefaultMapPool
	if raw := os.Getenv("MAP_POOL"); raw != "" {
		mapPool = nil
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				mapPool = append(mapPool, m)
			}
		}
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: "./migrations",
		Slack: SlackConfig{
			Token:         getEnv("SLACK_BOT_TOKEN"),
			ChannelID:     getEnv("SLACK_CHANNEL_ID"),
			SigningSecret: getEnv("SLACK_SIGNING_SECRET"),
		},
		Port: getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		Lobby: LobbyConfig{
			Slots:          strings.Split(getEnvOr("LOBBY_SLOTS", "lobby-1"), ","),
			Capacity:       getEnvInt("LOBBY_CAPACITY", 10),
			MapPool:        mapPool,
			TurnTimeout:    time.Duration(getEnvInt("DRAFT_TURN_TIMEOUT_SECONDS", 900)) * time.Second,
			SessionTimeout: time.Duration(getEnvInt("MATCH_SESSION_TIMEOUT_SECONDS", 900)) * time.Second,
		},
		ProjectID: getEnv("GCP_PROJECT"),
	}
	return cfg
}
