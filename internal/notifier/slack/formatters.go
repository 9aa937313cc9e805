package slack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
	"github.com/slack-go/slack"
)

// formatWelcome creates the Slack message for a newly registered player using Block Kit.
func (s *Notifier) formatWelcome(player *registry.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header - The Header block itself provides bolding. No asterisks needed.
	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🎮 Welcome, %s! 🎮", player.DisplayName), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	rankText := "unranked"
	if player.Rank != "" {
		rankText = fmt.Sprintf("%s %s", player.Rank.Emoji(), player.Rank)
	}
	detailsText := fmt.Sprintf("> *Rank*: %s\n> *ELO*: %d", rankText, player.Elo)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", detailsText, false, false), nil, nil))

	// Context - For simpler, single-line info.
	rulesText := fmt.Sprintf("Wins grant +%d ELO, losses cost %d.", settlement.EloWinDelta, -settlement.EloLossDelta)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", rulesText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatLobbyState creates a Slack message for the current roster of a lobby slot.
func (s *Notifier) formatLobbyState(view lobby.View) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🎮 Lobby %s 🎮", view.LobbyID), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Status: %s\nPlayers: %d/%d", view.Status, len(view.Members), view.Capacity)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Roster, in join order
	if len(view.Members) > 0 {
		var names []string
		for _, member := range view.Members {
			names = append(names, fmt.Sprintf("• %s", member))
		}
		rosterText := "Roster:\n" + strings.Join(names, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", rosterText, true, false), nil, nil))
	}

	if view.RoomHandle != "" {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", fmt.Sprintf("Room: %s", view.RoomHandle), true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatDraftUpdate creates a Slack message for a ban turn or a completed draft.
func (s *Notifier) formatDraftUpdate(view lobby.DraftView) slack.Message {
	blocks := make([]slack.Block, 0)

	if view.ChosenMap != "" {
		// Draft finished, announce map and teams.
		headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🗺️ Map locked in: %s", view.ChosenMap), true, false)
		blocks = append(blocks, slack.NewHeaderBlock(headerText))

		teamsText := fmt.Sprintf("⚔️ Side 1: %s\n⚔️ Side 2: %s",
			strings.Join(teamMembers(view.Teams, 1), ", "),
			strings.Join(teamMembers(view.Teams, 2), ", "),
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", teamsText, true, false), nil, nil))

		banCountText := fmt.Sprintf("%d maps banned", len(view.Bans))
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", banCountText, true, false)))

		return slack.NewBlockMessage(blocks...)
	}

	headerText := slack.NewTextBlockObject("plain_text", "🚫 Map ban phase 🚫", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	captainsText := fmt.Sprintf("Captains: %s vs %s", view.Captain1, view.Captain2)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", captainsText, true, false), nil, nil))

	if len(view.Bans) > 0 {
		var bans []string
		for _, ban := range view.Bans {
			bans = append(bans, fmt.Sprintf("• %s (%s)", ban.Map, ban.Captain))
		}
		bansText := "Banned so far:\n" + strings.Join(bans, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", bansText, true, false), nil, nil))
	}

	remainingText := "Remaining maps: " + strings.Join(view.RemainingMaps, ", ")
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", remainingText, true, false), nil, nil))

	if view.TurnCaptain != "" {
		turnText := fmt.Sprintf("⏰ %s is up", view.TurnCaptain)
		if view.TurnDeadline != nil {
			turnText = fmt.Sprintf("⏰ %s is up, ban before %s", view.TurnCaptain, view.TurnDeadline.Format("15:04:05"))
		}
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", turnText, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatMatchSettled creates the Slack message for a settled match using Block Kit.
func (s *Notifier) formatMatchSettled(record *settlement.MatchRecord, names map[string]string) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🏆 Match settled! 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Map: %s\nSide %d takes it", record.Map, record.WinningSide)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	for side := 1; side <= 2; side++ {
		var lines []string
		for _, line := range record.Lines {
			if line.Side != side {
				continue
			}
			delta := settlement.EloLossDelta
			if line.Outcome == settlement.OutcomeWin {
				delta = settlement.EloWinDelta
			}
			lines = append(lines, fmt.Sprintf("• %s: %d/%d (%+d)", playerName(names, line.PlayerID), line.Kills, line.Deaths, delta))
		}
		if len(lines) == 0 {
			continue
		}
		sideText := fmt.Sprintf("Side %d:\n%s", side, strings.Join(lines, "\n"))
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", sideText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatEngineError creates a Slack message for a failed engine operation.
func (s *Notifier) formatEngineError(scope string, cause error) slack.Message {
	text := fmt.Sprintf("⚠️ *%s* failed: %v", scope, cause)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}

// formatLeaderboard creates a Slack message to display the ELO leaderboard.
func (s *Notifier) formatLeaderboard(stats []registry.PlayerStats) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🏆 ELO Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(stats) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No ranked players yet. Go play some matches!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	// Player Ranks
	for i, stat := range stats {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s %s %s\n> *ELO*: %d | *W/L*: %d/%d | *K/D*: %.2f",
			rank,
			medal,
			statName(stat),
			stat.Rank.Emoji(),
			stat.Elo,
			stat.Wins,
			stat.Losses,
			stat.KDRatio,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats creates a Slack message to display a single player's stats.
func (s *Notifier) formatPlayerStats(stat *registry.PlayerStats, query string) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := fmt.Sprintf("🏆 Stats for %s 🏆", statName(*stat))
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	rankText := "unranked"
	if stat.Rank != "" {
		rankText = fmt.Sprintf("%s %s", stat.Rank.Emoji(), stat.Rank)
	}
	playerText := fmt.Sprintf("> *Rank*: %s\n> *ELO*: %d\n> *Win %%*: %.2f%% (%d/%d)\n> *K/D*: %.2f (%d/%d)",
		rankText,
		stat.Elo,
		stat.WinPercentage,
		stat.Wins,
		stat.MatchesPlayed,
		stat.KDRatio,
		stat.Kills,
		stat.Deaths,
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerNotFound creates a Slack message for when a player's stats are not found.
func (s *Notifier) formatPlayerNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}

// teamMembers returns the players assigned to a side, sorted for deterministic output.
func teamMembers(teams map[string]int, side int) []string {
	var members []string
	for playerID, assigned := range teams {
		if assigned == side {
			members = append(members, playerID)
		}
	}
	sort.Strings(members)
	return members
}

func playerName(names map[string]string, playerID string) string {
	if name, ok := names[playerID]; ok && name != "" {
		return name
	}
	return playerID
}

func statName(stat registry.PlayerStats) string {
	if stat.Nickname != "" {
		return stat.Nickname
	}
	return stat.DisplayName
}
