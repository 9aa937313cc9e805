package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var simulateResult bool

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(lobbiesCmd)
	rootCmd.AddCommand(lobbyCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(nicknameCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(banCmd)
	rootCmd.AddCommand(abortCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(metricsCmd)

	finalizeCmd.Flags().BoolVar(&simulateResult, "simulate", false, "Generate a random result for the current roster instead of reading one from stdin")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var lobbiesCmd = &cobra.Command{
	Use:   "lobbies",
	Short: "List every lobby slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/lobbies")
	},
}

var lobbyCmd = &cobra.Command{
	Use:   "lobby <lobby-id>",
	Short: "Show one lobby slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/lobby?lobby_id=" + url.QueryEscape(args[0]))
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the registered players",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the ELO leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recently settled matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <player-id> <display-name>",
	Short: "Register a player",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/players/register", map[string]any{
			"player_id":    args[0],
			"display_name": args[1],
		})
	},
}

var nicknameCmd = &cobra.Command{
	Use:   "nickname <player-id> <nickname>",
	Short: "Set a player's permanent nickname",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/players/nickname", map[string]any{
			"player_id": args[0],
			"nickname":  args[1],
		})
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank <player-id> <rank>",
	Short: "Set a player's rank tier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/players/rank", map[string]any{
			"player_id": args[0],
			"rank":      args[1],
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <lobby-id> <player-id>",
	Short: "Join a lobby",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/lobby/join", map[string]any{
			"lobby_id":  args[0],
			"player_id": args[1],
		})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave <lobby-id> <player-id>",
	Short: "Leave a lobby",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/lobby/leave", map[string]any{
			"lobby_id":  args[0],
			"player_id": args[1],
		})
	},
}

var banCmd = &cobra.Command{
	Use:   "ban <lobby-id> <captain-id> <map>",
	Short: "Ban a map on your draft turn",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/lobby/ban", map[string]any{
			"lobby_id":   args[0],
			"captain_id": args[1],
			"map":        args[2],
		})
	},
}

var abortCmd = &cobra.Command{
	Use:   "abort <lobby-id>",
	Short: "Abort a lobby, releasing its members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/lobby/abort", map[string]any{
			"lobby_id": args[0],
		})
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize <lobby-id>",
	Short: "Settle the in-progress match of a lobby",
	Long: `Settle the in-progress match of a lobby. With --simulate, a random
scoreline is generated for the current roster; otherwise a JSON RawResult
document is read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lobbyID := args[0]

		var result map[string]any
		if simulateResult {
			simulated, err := simulateRawResult(lobbyID)
			if err != nil {
				return err
			}
			result = simulated
		} else {
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&result); err != nil {
				return fmt.Errorf("failed to read result from stdin: %w", err)
			}
		}

		return performPostRequest("/lobby/finalize", map[string]any{
			"lobby_id": lobbyID,
			"result":   result,
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

// simulateRawResult fetches the lobby roster and fabricates a scoreline for it.
func simulateRawResult(lobbyID string) (map[string]any, error) {
	resp, err := http.Get(host + "/lobby?lobby_id=" + url.QueryEscape(lobbyID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lobby: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch lobby: %s", string(body))
	}

	var view struct {
		Members []string `json:"members"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("failed to decode lobby: %w", err)
	}
	if len(view.Members) == 0 {
		return nil, fmt.Errorf("lobby %s has no roster to settle", lobbyID)
	}

	lines := make([]map[string]any, 0, len(view.Members))
	for _, playerID := range view.Members {
		lines = append(lines, map[string]any{
			"player_id": playerID,
			"kills":     rand.Intn(15),
			"deaths":    rand.Intn(15),
		})
	}
	return map[string]any{
		"winning_side": 1 + rand.Intn(2),
		"lines":        lines,
	}, nil
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

func performPostRequest(endpoint string, payload map[string]any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
