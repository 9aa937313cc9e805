package lobby

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// startDraftLocked transitions a full lobby to DRAFTING: two captains are
// drawn without replacement from the roster and the first ban turn is armed.
func (m *Manager) startDraftLocked(l *lobby) {
	perm := m.randPerm(len(l.members))
	l.draft = &draftState{
		captain1: l.members[perm[0]].PlayerID,
		captain2: l.members[perm[1]].PlayerID,
		pool:     append([]string(nil), m.mapPool...),
		timedOut: make(map[string]bool),
	}
	l.status = StatusDrafting
	log.Info("Lobby full, draft started",
		"lobbyID", l.id,
		"captain1", l.draft.captain1,
		"captain2", l.draft.captain2,
		"pool", len(l.draft.pool),
	)
	m.armTurnTimerLocked(l)
}

// SubmitBan removes one map from the pool on the acting captain's turn.
// When a single map remains the draft completes and the match session
// starts.
func (m *Manager) SubmitBan(lobbyID, captainID, mapName string) (DraftView, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return DraftView{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status != StatusDrafting || l.draft == nil {
		return DraftView{}, ErrNoActiveDraft
	}
	if captainID != l.currentCaptainLocked() {
		return DraftView{}, ErrInvalidTurn
	}
	if err := m.applyBanLocked(l, captainID, mapName); err != nil {
		return DraftView{}, err
	}
	return l.draftViewLocked(), nil
}

// currentCaptainLocked returns whose turn it is: turns alternate starting
// with captain 1.
func (l *lobby) currentCaptainLocked() string {
	if l.draft.turn%2 == 0 {
		return l.draft.captain1
	}
	return l.draft.captain2
}

// applyBanLocked validates and records a ban, advances the turn, and either
// re-arms the timer or completes the draft. Advancing the turn bumps the
// generation so a pending timeout for the old turn becomes a no-op.
func (m *Manager) applyBanLocked(l *lobby, captainID, mapName string) error {
	d := l.draft

	idx := -1
	for i, name := range d.pool {
		if name == mapName {
			idx = i
			break
		}
	}
	if idx == -1 {
		for _, ban := range d.bans {
			if ban.Map == mapName {
				return ErrMapAlreadyBanned
			}
		}
		return ErrUnknownMap
	}

	d.pool = append(d.pool[:idx], d.pool[idx+1:]...)
	d.bans = append(d.bans, BanAction{Captain: captainID, Map: mapName, Order: len(d.bans)})
	d.turn++
	d.turnGen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	log.Info("Map banned", "lobbyID", l.id, "captain", captainID, "map", mapName, "remaining", len(d.pool))

	if len(d.pool) == 1 {
		m.completeDraftLocked(l)
	} else {
		m.armTurnTimerLocked(l)
	}
	return nil
}

// completeDraftLocked finalizes the chosen map, splits teams and starts the
// match session. Captains take sides 1 and 2; the remaining members alternate
// sides in join order, so team sizes differ by at most one.
func (m *Manager) completeDraftLocked(l *lobby) {
	d := l.draft
	d.chosen = d.pool[0]
	d.deadline = time.Time{}

	l.teams = map[string]int{d.captain1: 1, d.captain2: 2}
	next := 1
	for _, member := range l.members {
		if member.PlayerID == d.captain1 || member.PlayerID == d.captain2 {
			continue
		}
		l.teams[member.PlayerID] = next
		if next == 1 {
			next = 2
		} else {
			next = 1
		}
	}

	now := time.Now()
	l.session = &matchSession{
		roomHandle: "room-" + uuid.NewString(),
		startedAt:  now,
		deadline:   now.Add(m.sessionTimeout),
	}
	l.status = StatusInProgress
	log.Info("Draft complete, match in progress",
		"lobbyID", l.id,
		"map", d.chosen,
		"roomHandle", l.session.roomHandle,
	)
}

// armTurnTimerLocked schedules the auto-ban for the current turn. The timer
// fires exactly once unless an on-time ban advances the generation first, or
// the draft it was armed for is gone.
func (m *Manager) armTurnTimerLocked(l *lobby) {
	d := l.draft
	gen := d.turnGen
	d.deadline = time.Now().Add(m.turnTimeout)
	d.timer = time.AfterFunc(m.turnTimeout, func() {
		m.turnTimedOut(l, d, gen)
	})
}

// turnTimedOut bans a uniformly random remaining map on behalf of the
// inactive captain and records the timeout for telemetry. The draft pointer
// pins the callback to the draft it was armed for: generations restart at
// zero in every new draftState, so a callback that outlived an abort would
// otherwise pass the generation check once the slot refills.
func (m *Manager) turnTimedOut(l *lobby, d *draftState, gen int) {
	l.mu.Lock()

	if l.draft != d || d.turnGen != gen || l.status != StatusDrafting {
		l.mu.Unlock()
		return
	}

	captain := l.currentCaptainLocked()
	mapName := d.pool[m.randIntn(len(d.pool))]
	d.timedOut[captain] = true
	log.Warn("Ban turn timed out, auto-banning", "lobbyID", l.id, "captain", captain, "map", mapName)

	if err := m.applyBanLocked(l, captain, mapName); err != nil {
		// Cannot happen: the map was just drawn from the pool.
		log.Error("Auto-ban failed", "lobbyID", l.id, "error", err)
		l.mu.Unlock()
		return
	}
	view := l.draftViewLocked()
	l.mu.Unlock()

	if m.onAutoBan != nil {
		m.onAutoBan(view, captain, mapName)
	}
}

func (l *lobby) draftViewLocked() DraftView {
	d := l.draft
	dv := DraftView{
		LobbyID:       l.id,
		Captain1:      d.captain1,
		Captain2:      d.captain2,
		RemainingMaps: append([]string(nil), d.pool...),
		Bans:          append([]BanAction(nil), d.bans...),
		ChosenMap:     d.chosen,
	}
	if l.status == StatusDrafting {
		dv.TurnCaptain = l.currentCaptainLocked()
		if !d.deadline.IsZero() {
			deadline := d.deadline
			dv.TurnDeadline = &deadline
		}
	}
	for captain := range d.timedOut {
		dv.TimedOut = append(dv.TimedOut, captain)
	}
	if l.teams != nil {
		dv.Teams = make(map[string]int, len(l.teams))
		for id, side := range l.teams {
			dv.Teams[id] = side
		}
	}
	return dv
}
