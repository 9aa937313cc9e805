package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/scrimhub/siegequeue/internal/database"
	"github.com/scrimhub/siegequeue/internal/registry"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":        "siegequeue-seed.db",
		"MIGRATIONS_DIR": "migrations",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	// Optional remote target.
	config["TURSO_PRIMARY_URL"] = os.Getenv("TURSO_PRIMARY_URL")
	config["TURSO_AUTH_TOKEN"] = os.Getenv("TURSO_AUTH_TOKEN")
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"], cfg["MIGRATIONS_DIR"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()
	defer db.Close()

	log.Info("Successfully connected to the database.")

	players := registry.New(db)
	ranks := []registry.Rank{
		registry.RankCopper, registry.RankBronze, registry.RankSilver,
		registry.RankGold, registry.RankPlatinum, registry.RankEmerald,
		registry.RankDiamond, registry.RankChampion,
	}
	nicknames := []string{"Fuze", "Thermite", "Ash", "Sledge", "Bandit", "Jäger", "Mute", "Thatcher", "Twitch", "Montagne"}

	for i := 1; i <= 10; i++ {
		playerID := fmt.Sprintf("seed-player-%d", i)
		displayName := fmt.Sprintf("Seeder Player %d", i)

		player, err := players.Register(playerID, displayName)
		if err != nil {
			log.Warn("Skipping player", "playerID", playerID, "error", err)
			continue
		}
		if err := players.SetNickname(playerID, nicknames[(i-1)%len(nicknames)]); err != nil {
			log.Warn("Failed to set nickname", "playerID", playerID, "error", err)
		}
		rank := ranks[rand.Intn(len(ranks))]
		if err := players.SetRank(playerID, rank); err != nil {
			log.Warn("Failed to set rank", "playerID", playerID, "error", err)
		}
		log.Info("Seeded player", "playerID", player.ID, "rank", rank)
	}

	log.Info("Seeding complete.")
}
