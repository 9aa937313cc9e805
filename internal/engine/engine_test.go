package engine

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/scrimhub/siegequeue/internal/database"
	"github.com/scrimhub/siegequeue/internal/lobby"
	"github.com/scrimhub/siegequeue/internal/metrics"
	"github.com/scrimhub/siegequeue/internal/notifier"
	"github.com/scrimhub/siegequeue/internal/pubsub"
	"github.com/scrimhub/siegequeue/internal/registry"
	"github.com/scrimhub/siegequeue/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settlerStub lets tests script settlement outcomes without a database.
type settlerStub struct {
	settleFunc func(setup lobby.MatchSetup, raw settlement.RawResult) (*settlement.MatchRecord, error)
}

func (s *settlerStub) Settle(setup lobby.MatchSetup, raw settlement.RawResult) (*settlement.MatchRecord, error) {
	if s.settleFunc != nil {
		return s.settleFunc(setup, raw)
	}
	return &settlement.MatchRecord{ID: "m1", LobbyID: setup.LobbyID, Map: setup.Map}, nil
}

func (s *settlerStub) GetMatch(matchID string) (*settlement.MatchRecord, error) {
	return nil, registry.ErrNotFound
}

func (s *settlerStub) ListMatches(limit int) ([]*settlement.MatchRecord, error) {
	return nil, nil
}

func newTestEngine(players registry.PlayerStore, settler Settler, opts lobby.Options) (*Engine, *notifier.Mock, *metrics.Mock, *pubsub.MockPubSubClient) {
	notif := notifier.NewMock()
	met := metrics.NewMock()
	ps := pubsub.NewMock("test-project")

	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	var eng *Engine
	opts.OnAutoBan = func(view lobby.DraftView, captainID, mapName string) {
		eng.HandleAutoBan(view, captainID, mapName)
	}
	manager := lobby.NewManager([]string{"lobby-1"}, opts)
	eng = New(manager, players, settler, notif, met, ps)
	return eng, notif, met, ps
}

func TestRegisterPlayer(t *testing.T) {
	players := registry.NewMock()
	eng, notif, _, ps := newTestEngine(players, &settlerStub{}, lobby.Options{})

	player, err := eng.RegisterPlayer("U1", "Player A", false)
	require.NoError(t, err)
	assert.Equal(t, "Player A", player.DisplayName)

	require.Len(t, notif.SendWelcomeCalls, 1)
	assert.Equal(t, "U1", notif.SendWelcomeCalls[0].ID)
	require.Len(t, ps.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventPlayerRegistered), ps.SendMessageCalls[0].Topic)

	ps.Close()
	assert.True(t, ps.Closed)
}

func TestJoinLobby_RequiresRegistration(t *testing.T) {
	players := registry.NewMock()
	eng, notif, met, _ := newTestEngine(players, &settlerStub{}, lobby.Options{})

	_, err := eng.JoinLobby("lobby-1", "ghost", false)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.Empty(t, notif.SendLobbyStateCalls)
	assert.Equal(t, 0, met.LobbyJoins)
}

func TestJoinLobby_NotifiesRoster(t *testing.T) {
	players := registry.NewMock()
	players.Register("U1", "Player A")
	eng, notif, met, ps := newTestEngine(players, &settlerStub{}, lobby.Options{Capacity: 4})

	view, err := eng.JoinLobby("lobby-1", "U1", false)
	require.NoError(t, err)
	assert.Equal(t, "FILLING", view.Status)

	assert.Equal(t, 1, met.LobbyJoins)
	require.Len(t, notif.SendLobbyStateCalls, 1)
	require.Len(t, ps.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventLobbyStateChanged), ps.SendMessageCalls[0].Topic)
}

func TestJoinLobby_LastSeatStartsDraft(t *testing.T) {
	players := registry.NewMock()
	players.Register("U1", "Player A")
	players.Register("U2", "Player B")
	eng, notif, met, _ := newTestEngine(players, &settlerStub{}, lobby.Options{
		Capacity: 2,
		MapPool:  []string{"BANK", "OREGON", "VILLA"},
	})

	_, err := eng.JoinLobby("lobby-1", "U1", false)
	require.NoError(t, err)
	view, err := eng.JoinLobby("lobby-1", "U2", false)
	require.NoError(t, err)

	assert.Equal(t, "DRAFTING", view.Status)
	require.NotNil(t, view.Draft)
	assert.Equal(t, 1, met.DraftsStarted)
	// Roster message for the first join, draft prompt for the second.
	assert.Len(t, notif.SendLobbyStateCalls, 1)
	assert.Len(t, notif.SendDraftUpdateCalls, 1)
}

func TestSubmitBan_CompletesDraft(t *testing.T) {
	players := registry.NewMock()
	players.Register("U1", "Player A")
	players.Register("U2", "Player B")
	eng, notif, met, ps := newTestEngine(players, &settlerStub{}, lobby.Options{
		Capacity: 2,
		MapPool:  []string{"BANK", "OREGON", "VILLA"},
	})

	_, err := eng.JoinLobby("lobby-1", "U1", false)
	require.NoError(t, err)
	view, err := eng.JoinLobby("lobby-1", "U2", false)
	require.NoError(t, err)

	draft := view.Draft
	for i := 0; i < 2; i++ {
		dv, err := eng.SubmitBan("lobby-1", draft.TurnCaptain, draft.RemainingMaps[0], false)
		require.NoError(t, err)
		draft = &dv
	}

	assert.NotEmpty(t, draft.ChosenMap)
	assert.Equal(t, 1, met.DraftsCompleted)
	assert.Len(t, notif.SendDraftUpdateCalls, 3)

	lastEvent := ps.SendMessageCalls[len(ps.SendMessageCalls)-1]
	assert.Equal(t, string(pubsub.EventDraftUpdated), lastEvent.Topic)

	lobbyView, err := eng.GetLobby("lobby-1")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", lobbyView.Status)
}

func TestAutoBanNotifies(t *testing.T) {
	players := registry.NewMock()
	players.Register("U1", "Player A")
	players.Register("U2", "Player B")
	eng, notif, met, _ := newTestEngine(players, &settlerStub{}, lobby.Options{
		Capacity:    2,
		MapPool:     []string{"BANK", "OREGON", "VILLA"},
		TurnTimeout: 20 * time.Millisecond,
	})

	_, err := eng.JoinLobby("lobby-1", "U1", false)
	require.NoError(t, err)
	_, err = eng.JoinLobby("lobby-1", "U2", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := eng.GetLobby("lobby-1")
		return err == nil && view.Status == "IN_PROGRESS"
	}, 2*time.Second, 10*time.Millisecond, "draft should complete via auto-bans")

	// The last timeout callback notifies after the status flips.
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 2, met.DraftAutoBans)
	assert.Equal(t, 1, met.DraftsCompleted)
	// Draft start prompt plus one update per auto-ban.
	assert.Len(t, notif.SendDraftUpdateCalls, 3)
}

func TestFinalizeMatch_FailureKeepsLobbyInProgress(t *testing.T) {
	players := registry.NewMock()
	players.Register("U1", "Player A")
	players.Register("U2", "Player B")
	settler := &settlerStub{
		settleFunc: func(setup lobby.MatchSetup, raw settlement.RawResult) (*settlement.MatchRecord, error) {
			return nil, &settlement.SettlementFailedError{Cause: fmt.Errorf("disk full")}
		},
	}
	eng, notif, met, _ := newTestEngine(players, settler, lobby.Options{
		Capacity: 2,
		MapPool:  []string{"BANK", "OREGON", "VILLA"},
	})

	_, err := eng.JoinLobby("lobby-1", "U1", false)
	require.NoError(t, err)
	view, err := eng.JoinLobby("lobby-1", "U2", false)
	require.NoError(t, err)

	draft := view.Draft
	for i := 0; i < 2; i++ {
		dv, err := eng.SubmitBan("lobby-1", draft.TurnCaptain, draft.RemainingMaps[0], false)
		require.NoError(t, err)
		draft = &dv
	}

	raw := settlement.RawResult{
		WinningSide: 1,
		Lines: []settlement.RawLine{
			{PlayerID: "U1", Kills: 5, Deaths: 3},
			{PlayerID: "U2", Kills: 3, Deaths: 5},
		},
	}
	_, err = eng.FinalizeMatch("lobby-1", raw, false)
	require.Error(t, err)

	var failed *settlement.SettlementFailedError
	assert.ErrorAs(t, err, &failed)
	assert.Equal(t, 1, met.SettlementFailures)
	assert.Equal(t, 0, met.MatchesSettled)
	require.Len(t, notif.SendEngineErrorCalls, 1)
	assert.Equal(t, "Match settlement", notif.SendEngineErrorCalls[0].Scope)

	// The slot must stay settleable for a retry.
	lobbyView, err := eng.GetLobby("lobby-1")
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", lobbyView.Status)
}

// TestFullLifecycle walks a ten-player queue through draft, match and
// settlement against a real database.
func TestFullLifecycle(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	players := registry.New(db)
	settler := settlement.New(db)

	mapPool := make([]string, 0, 13)
	for i := 1; i <= 13; i++ {
		mapPool = append(mapPool, fmt.Sprintf("M%02d", i))
	}
	eng, notif, met, _ := newTestEngine(players, settler, lobby.Options{
		Capacity: 10,
		MapPool:  mapPool,
	})

	ids := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("U%d", i)
		ids = append(ids, id)
		_, err := eng.RegisterPlayer(id, fmt.Sprintf("Player %d", i), false)
		require.NoError(t, err)
	}

	var view lobby.View
	for _, id := range ids {
		view, err = eng.JoinLobby("lobby-1", id, false)
		require.NoError(t, err)
	}
	require.Equal(t, "DRAFTING", view.Status)
	require.NotNil(t, view.Draft)

	// Twelve alternating bans leave exactly one map.
	draft := view.Draft
	for i := 0; i < 12; i++ {
		dv, err := eng.SubmitBan("lobby-1", draft.TurnCaptain, draft.RemainingMaps[0], false)
		require.NoError(t, err)
		draft = &dv
	}
	require.NotEmpty(t, draft.ChosenMap)
	require.Len(t, draft.Bans, 12)
	require.Len(t, draft.Teams, 10)

	raw := settlement.RawResult{WinningSide: 1}
	for _, id := range ids {
		raw.Lines = append(raw.Lines, settlement.RawLine{PlayerID: id, Kills: 4, Deaths: 4})
	}
	record, err := eng.FinalizeMatch("lobby-1", raw, false)
	require.NoError(t, err)
	assert.Equal(t, draft.ChosenMap, record.Map)
	assert.Len(t, record.Lines, 10)

	// Winners gained 25, losers lost 10, everyone played one match.
	for _, id := range ids {
		player, err := eng.GetPlayer(id)
		require.NoError(t, err)
		assert.Equal(t, 1, player.MatchesPlayed, "player %s", id)
		if draft.Teams[id] == 1 {
			assert.Equal(t, 25, player.Elo, "player %s", id)
			assert.Equal(t, 1, player.Wins, "player %s", id)
		} else {
			assert.Equal(t, -10, player.Elo, "player %s", id)
			assert.Equal(t, 1, player.Losses, "player %s", id)
		}
	}

	assert.Equal(t, 1, met.MatchesSettled)
	assert.Equal(t, 0, met.SettlementFailures)
	require.Len(t, notif.SendMatchSettledCalls, 1)
	assert.Equal(t, "Player 1", notif.SendMatchSettledCalls[0].Names["U1"])

	// The slot is drained and every member can queue again.
	lobbyView, err := eng.GetLobby("lobby-1")
	require.NoError(t, err)
	assert.Equal(t, "EMPTY", lobbyView.Status)
	_, err = eng.JoinLobby("lobby-1", ids[0], false)
	assert.NoError(t, err)
}
