package lobby

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures the Manager. The random source is injectable so captain
// selection and auto-bans are reproducible in tests.
type Options struct {
	Capacity       int
	MapPool        []string
	TurnTimeout    time.Duration
	SessionTimeout time.Duration
	Rand           *rand.Rand
	// OnAutoBan is invoked, outside the lobby lock, after a turn timeout
	// banned a map on an inactive captain's behalf.
	OnAutoBan func(view DraftView, captainID, mapName string)
}

// Manager owns the lobby slots. Each slot is an independently locked
// aggregate; distinct slots are processed fully in parallel.
type Manager struct {
	lobbies map[string]*lobby
	order   []string

	indexMu     sync.Mutex
	memberIndex map[string]string // playerID -> lobbyID, enforces single-lobby membership

	mapPool        []string
	turnTimeout    time.Duration
	sessionTimeout time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	onAutoBan func(view DraftView, captainID, mapName string)
}

// NewManager creates the lobby slots. The slot set is fixed at construction.
func NewManager(slots []string, opts Options) *Manager {
	if opts.Capacity <= 0 {
		opts.Capacity = 10
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 900 * time.Second
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 900 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &Manager{
		lobbies:        make(map[string]*lobby, len(slots)),
		order:          append([]string(nil), slots...),
		memberIndex:    make(map[string]string),
		mapPool:        append([]string(nil), opts.MapPool...),
		turnTimeout:    opts.TurnTimeout,
		sessionTimeout: opts.SessionTimeout,
		rng:            opts.Rand,
		onAutoBan:      opts.OnAutoBan,
	}
	for _, id := range slots {
		m.lobbies[id] = &lobby{id: id, capacity: opts.Capacity, status: StatusEmpty}
	}
	return m
}

func (m *Manager) get(lobbyID string) (*lobby, error) {
	// The slot map is never mutated after construction.
	l, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	return l, nil
}

// Slots returns the configured slot ids in order.
func (m *Manager) Slots() []string {
	return append([]string(nil), m.order...)
}

// Join adds a player to a lobby. Reaching capacity immediately starts the
// draft.
func (m *Manager) Join(lobbyID, playerID string) (View, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return View{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status != StatusEmpty && l.status != StatusFilling {
		return View{}, ErrLobbyNotJoinable
	}
	if len(l.members) >= l.capacity {
		return View{}, ErrLobbyFull
	}

	m.indexMu.Lock()
	if _, in := m.memberIndex[playerID]; in {
		m.indexMu.Unlock()
		return View{}, ErrAlreadyInLobby
	}
	m.memberIndex[playerID] = lobbyID
	m.indexMu.Unlock()

	l.members = append(l.members, Member{PlayerID: playerID, JoinedAt: time.Now()})
	l.status = StatusFilling
	log.Info("Player joined lobby", "lobbyID", lobbyID, "playerID", playerID, "members", len(l.members), "capacity", l.capacity)

	if len(l.members) == l.capacity {
		m.startDraftLocked(l)
	}
	return l.viewLocked(), nil
}

// Leave removes a player from a FILLING lobby. Once a draft or match has
// bound captains and teams, only an abort can release members.
func (m *Manager) Leave(lobbyID, playerID string) (View, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return View{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, member := range l.members {
		if member.PlayerID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return View{}, ErrNotAMember
	}
	if l.status == StatusDrafting || l.status == StatusInProgress {
		return View{}, ErrLobbyBusy
	}

	l.members = append(l.members[:idx], l.members[idx+1:]...)
	m.indexMu.Lock()
	delete(m.memberIndex, playerID)
	m.indexMu.Unlock()

	if len(l.members) == 0 {
		l.status = StatusEmpty
	}
	log.Info("Player left lobby", "lobbyID", lobbyID, "playerID", playerID, "members", len(l.members))
	return l.viewLocked(), nil
}

// Abort administratively resets a slot regardless of its status, releasing
// the pending turn timer and any bound match room. Idempotent.
func (m *Manager) Abort(lobbyID string) (View, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return View{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session != nil {
		log.Info("Releasing match room on abort", "lobbyID", lobbyID, "roomHandle", l.session.roomHandle)
	}
	m.resetLocked(l)
	log.Info("Lobby aborted", "lobbyID", lobbyID)
	return l.viewLocked(), nil
}

// Get returns a snapshot of a lobby slot.
func (m *Manager) Get(lobbyID string) (View, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return View{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(), nil
}

// SessionExpired reports whether the active match has outlived its
// inactivity deadline and is eligible for an administrative abort. Expired
// sessions are never settled automatically.
func (m *Manager) SessionExpired(lobbyID string) (bool, error) {
	l, err := m.get(lobbyID)
	if err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session != nil && time.Now().After(l.session.deadline), nil
}

// Finalize runs the settle callback for the in-progress match while holding
// the lobby lock, so settlement cannot interleave with another settlement or
// a queue reset on the same slot. On success the slot resets to EMPTY; on
// failure it stays IN_PROGRESS so the caller can retry.
func (m *Manager) Finalize(lobbyID string, settle func(MatchSetup) error) error {
	l, err := m.get(lobbyID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status != StatusInProgress || l.session == nil {
		return ErrMatchNotInProgress
	}

	roster := make([]string, 0, len(l.members))
	for _, member := range l.members {
		roster = append(roster, member.PlayerID)
	}
	teams := make(map[string]int, len(l.teams))
	for id, side := range l.teams {
		teams[id] = side
	}
	setup := MatchSetup{
		LobbyID:    l.id,
		Map:        l.draft.chosen,
		Roster:     roster,
		Teams:      teams,
		RoomHandle: l.session.roomHandle,
		StartedAt:  l.session.startedAt,
	}

	if err := settle(setup); err != nil {
		return err
	}

	log.Info("Match settled, releasing room and resetting lobby", "lobbyID", lobbyID, "roomHandle", l.session.roomHandle)
	m.resetLocked(l)
	return nil
}

// resetLocked clears membership, draft state and the bound room handle.
func (m *Manager) resetLocked(l *lobby) {
	if l.draft != nil && l.draft.timer != nil {
		l.draft.timer.Stop()
	}
	m.indexMu.Lock()
	for _, member := range l.members {
		delete(m.memberIndex, member.PlayerID)
	}
	m.indexMu.Unlock()

	l.members = nil
	l.draft = nil
	l.session = nil
	l.teams = nil
	l.status = StatusEmpty
}

func (m *Manager) randIntn(n int) int {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(n)
}

func (m *Manager) randPerm(n int) []int {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Perm(n)
}

func (l *lobby) viewLocked() View {
	v := View{
		LobbyID:  l.id,
		Status:   l.status.String(),
		Capacity: l.capacity,
		Members:  make([]string, 0, len(l.members)),
	}
	for _, member := range l.members {
		v.Members = append(v.Members, member.PlayerID)
	}
	if l.session != nil {
		v.RoomHandle = l.session.roomHandle
		deadline := l.session.deadline
		v.SessionDeadline = &deadline
	}
	if l.draft != nil {
		dv := l.draftViewLocked()
		v.Draft = &dv
	}
	return v
}
