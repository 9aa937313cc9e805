package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.NotifSent)
	assert.Equal(t, 0, metrics.NotifFailed)
}

func TestSendMessage_Failure(t *testing.T) {
	postMessageCalled := false
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 0, metrics.NotifSent)
	assert.Equal(t, 1, metrics.NotifFailed)
}

// Test one of the public methods to ensure it calls the private sender.
func TestSendWelcome_CallsSender(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	player := &registry.Player{
		ID:          "U1",
		DisplayName: "Player A",
		Rank:        registry.RankGold,
		Elo:         3000,
	}

	err := notifier.SendWelcome(player, false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called via SendWelcome")
}

func TestFormatWelcome(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	t.Run("formats a ranked player", func(t *testing.T) {
		player := &registry.Player{
			ID:          "U1",
			DisplayName: "Player A",
			Rank:        registry.RankGold,
			Elo:         3000,
		}
		msg := client.formatWelcome(player)
		require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok, "First block should be a HeaderBlock")
		assert.Equal(t, "🎮 Welcome, Player A! 🎮", header.Text.Text)

		details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok, "Second block should be a SectionBlock")
		assert.Equal(t, "> *Rank*: 🥇 GOLD\n> *ELO*: 3000", details.Text.Text)

		contextBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
		require.True(t, ok, "Third block should be a ContextBlock")
		require.Len(t, contextBlock.ContextElements.Elements, 1)
		rules, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
		require.True(t, ok)
		assert.Equal(t, "Wins grant +25 ELO, losses cost 10.", rules.Text)
	})

	t.Run("formats an unranked player", func(t *testing.T) {
		player := &registry.Player{ID: "U2", DisplayName: "Player B"}
		msg := client.formatWelcome(player)

		details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "> *Rank*: unranked\n> *ELO*: 0", details.Text.Text)
	})
}

func TestFormatLobbyState(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	view := lobby.View{
		LobbyID:  "lobby-1",
		Status:   "FILLING",
		Capacity: 10,
		Members:  []string{"U1", "U2"},
	}
	msg := client.formatLobbyState(view)
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "🎮 Lobby lobby-1 🎮", header.Text.Text)

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Status: FILLING\nPlayers: 2/10", details.Text.Text)

	roster, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Roster:\n• U1\n• U2", roster.Text.Text)
}

func TestFormatDraftUpdate(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	t.Run("formats an in-progress ban phase", func(t *testing.T) {
		deadline := time.Date(2026, 3, 1, 20, 15, 0, 0, time.UTC)
		view := lobby.DraftView{
			LobbyID:       "lobby-1",
			Captain1:      "U1",
			Captain2:      "U2",
			RemainingMaps: []string{"BANK", "OREGON", "VILLA"},
			Bans:          []lobby.BanAction{{Captain: "U1", Map: "CHALET", Order: 0}},
			TurnCaptain:   "U2",
			TurnDeadline:  &deadline,
		}
		msg := client.formatDraftUpdate(view)
		require.Len(t, msg.Blocks.BlockSet, 5, "Expected 5 blocks")

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🚫 Map ban phase 🚫", header.Text.Text)

		captains, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "Captains: U1 vs U2", captains.Text.Text)

		bans, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "Banned so far:\n• CHALET (U1)", bans.Text.Text)

		remaining, ok := msg.Blocks.BlockSet[3].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "Remaining maps: BANK, OREGON, VILLA", remaining.Text.Text)

		contextBlock, ok := msg.Blocks.BlockSet[4].(*slackapi.ContextBlock)
		require.True(t, ok)
		turn, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
		require.True(t, ok)
		assert.Equal(t, "⏰ U2 is up, ban before 20:15:00", turn.Text)
	})

	t.Run("formats a completed draft", func(t *testing.T) {
		view := lobby.DraftView{
			LobbyID:   "lobby-1",
			Captain1:  "U1",
			Captain2:  "U2",
			ChosenMap: "OREGON",
			Bans: []lobby.BanAction{
				{Captain: "U1", Map: "CHALET", Order: 0},
				{Captain: "U2", Map: "BANK", Order: 1},
			},
			Teams: map[string]int{"U1": 1, "U2": 2, "U3": 1, "U4": 2},
		}
		msg := client.formatDraftUpdate(view)
		require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🗺️ Map locked in: OREGON", header.Text.Text)

		teams, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "⚔️ Side 1: U1, U3\n⚔️ Side 2: U2, U4", teams.Text.Text)

		contextBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
		require.True(t, ok)
		banCount, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
		require.True(t, ok)
		assert.Equal(t, "2 maps banned", banCount.Text)
	})
}

func TestFormatMatchSettled(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	record := &settlement.MatchRecord{
		ID:          "m1",
		LobbyID:     "lobby-1",
		Map:         "OREGON",
		WinningSide: 2,
		Lines: []settlement.LineItem{
			{PlayerID: "U1", Side: 1, Kills: 5, Deaths: 7, Outcome: settlement.OutcomeLoss},
			{PlayerID: "U2", Side: 2, Kills: 9, Deaths: 3, Outcome: settlement.OutcomeWin},
		},
	}
	names := map[string]string{"U1": "Player A", "U2": "Player B"}

	msg := client.formatMatchSettled(record, names)
	require.Len(t, msg.Blocks.BlockSet, 4, "Expected 4 blocks")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "🏆 Match settled! 🏆", header.Text.Text)

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Map: OREGON\nSide 2 takes it", details.Text.Text)

	side1, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Side 1:\n• Player A: 5/7 (-10)", side1.Text.Text)

	side2, ok := msg.Blocks.BlockSet[3].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Side 2:\n• Player B: 9/3 (+25)", side2.Text.Text)
}

func TestFormatLeaderboard(t *testing.T) {
	t.Run("displays leaderboard with stats", func(t *testing.T) {
		stats := []registry.PlayerStats{
			{PlayerID: "U1", DisplayName: "Player A", Rank: registry.RankGold, Elo: 3075, Wins: 8, Losses: 2, MatchesPlayed: 10, KDRatio: 1.50, WinPercentage: 80.0},
			{PlayerID: "U2", DisplayName: "Player B", Rank: registry.RankSilver, Elo: 2050, Wins: 6, Losses: 4, MatchesPlayed: 10, KDRatio: 1.10, WinPercentage: 60.0},
			{PlayerID: "U3", Nickname: "Ace", DisplayName: "Player C", Elo: 40, Wins: 4, Losses: 6, MatchesPlayed: 10, KDRatio: 0.90, WinPercentage: 40.0},
		}

		client := &Notifier{channelID: "C123"}
		msg := client.formatLeaderboard(stats)

		require.Len(t, msg.Blocks.BlockSet, 4, "Expected 4 blocks (header + 3 players)")

		// Check header
		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🏆 ELO Leaderboard 🏆", header.Text.Text)

		// Check first player
		player1, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player1.Text.Text, "1. 🥇 Player A 🥇")
		assert.Contains(t, player1.Text.Text, "> *ELO*: 3075 | *W/L*: 8/2 | *K/D*: 1.50")

		// Check second player
		player2, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player2.Text.Text, "2. 🥈 Player B 🔷")

		// Nickname takes precedence over the display name
		player3, ok := msg.Blocks.BlockSet[3].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player3.Text.Text, "3. 🥉 Ace")
	})

	t.Run("displays message when no stats are available", func(t *testing.T) {
		client := &Notifier{channelID: "C123"}
		msg := client.formatLeaderboard([]registry.PlayerStats{})

		require.Len(t, msg.Blocks.BlockSet, 2, "Expected 2 blocks (header + message)")

		message, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "No ranked players yet. Go play some matches!", message.Text.Text)
	})
}

func TestFormatPlayerStats(t *testing.T) {
	client := &Notifier{channelID: "C123"}

	t.Run("formats stats for a found player", func(t *testing.T) {
		stat := &registry.PlayerStats{
			PlayerID:      "U1",
			DisplayName:   "Player A",
			Rank:          registry.RankPlatinum,
			Elo:           4125,
			MatchesPlayed: 10,
			Wins:          8,
			Losses:        2,
			Kills:         60,
			Deaths:        40,
			KDRatio:       1.5,
			WinPercentage: 80.0,
		}

		msg := client.formatPlayerStats(stat, "Player")
		require.Len(t, msg.Blocks.BlockSet, 2)

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🏆 Stats for Player A 🏆", header.Text.Text)

		section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, section.Text.Text, "> *Rank*: 💠 PLATINUM")
		assert.Contains(t, section.Text.Text, "> *ELO*: 4125")
		assert.Contains(t, section.Text.Text, "> *Win %*: 80.00% (8/10)")
		assert.Contains(t, section.Text.Text, "> *K/D*: 1.50 (60/40)")
	})

	t.Run("formats message for a player not found", func(t *testing.T) {
		msg := client.formatPlayerNotFound("Unknown Player")
		require.Len(t, msg.Blocks.BlockSet, 1)

		section, ok := msg.Blocks.BlockSet[0].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "Sorry, I couldn't find a player matching *Unknown Player*. Try a different name.", section.Text.Text)
	})
}
