package lobby

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrLobbyNotJoinable   = errors.New("lobby is not joinable")
	ErrAlreadyInLobby     = errors.New("player is already in a lobby")
	ErrLobbyFull          = errors.New("lobby is full")
	ErrNotAMember         = errors.New("player is not a member of this lobby")
	ErrLobbyBusy          = errors.New("draft or match in progress, leaving requires an abort")
	ErrNoActiveDraft      = errors.New("no draft in progress")
	ErrInvalidTurn        = errors.New("not this captain's turn")
	ErrUnknownMap         = errors.New("map is not in the pool")
	ErrMapAlreadyBanned   = errors.New("map has already been banned")
	ErrMatchNotInProgress = errors.New("no match in progress")
)

// Status is the lifecycle phase of a lobby slot. Transitions only move
// forward until settlement or abort resets the slot.
type Status int

const (
	StatusEmpty Status = iota
	StatusFilling
	StatusDrafting
	StatusInProgress
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "EMPTY"
	case StatusFilling:
		return "FILLING"
	case StatusDrafting:
		return "DRAFTING"
	case StatusInProgress:
		return "IN_PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// Member is a roster entry, ordered by join time.
type Member struct {
	PlayerID string    `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// BanAction records one completed ban turn.
type BanAction struct {
	Captain string `json:"captain"`
	Map     string `json:"map"`
	Order   int    `json:"order"`
}

// draftState exists only while the lobby is DRAFTING. The timer and turn
// generation implement the cancellable per-turn timeout: a stale callback
// observes a generation bump and does nothing.
type draftState struct {
	captain1 string
	captain2 string
	pool     []string
	bans     []BanAction
	chosen   string
	turn     int
	turnGen  int
	deadline time.Time
	timer    *time.Timer
	timedOut map[string]bool
}

// matchSession tracks the one active match bound to a lobby.
type matchSession struct {
	roomHandle string
	startedAt  time.Time
	deadline   time.Time
}

// lobby is the per-slot aggregate. All mutating operations on a slot are
// serialized through mu; the draft and session are owned exclusively by it.
type lobby struct {
	mu       sync.Mutex
	id       string
	capacity int
	status   Status
	members  []Member
	draft    *draftState
	session  *matchSession
	teams    map[string]int
}

// View is a read-only snapshot of a lobby slot, safe to hand to callers.
type View struct {
	LobbyID         string     `json:"lobby_id"`
	Status          string     `json:"status"`
	Capacity        int        `json:"capacity"`
	Members         []string   `json:"members"`
	RoomHandle      string     `json:"room_handle,omitempty"`
	SessionDeadline *time.Time `json:"session_deadline,omitempty"`
	Draft           *DraftView `json:"draft,omitempty"`
}

// DraftView is a read-only snapshot of an active or completed draft.
type DraftView struct {
	LobbyID       string         `json:"lobby_id"`
	Captain1      string         `json:"captain1"`
	Captain2      string         `json:"captain2"`
	RemainingMaps []string       `json:"remaining_maps"`
	Bans          []BanAction    `json:"bans"`
	ChosenMap     string         `json:"chosen_map,omitempty"`
	TurnCaptain   string         `json:"turn_captain,omitempty"`
	TurnDeadline  *time.Time     `json:"turn_deadline,omitempty"`
	TimedOut      []string       `json:"timed_out,omitempty"`
	Teams         map[string]int `json:"teams,omitempty"`
}

// MatchSetup is the immutable description of an in-progress match handed to
// the settlement engine: roster, sides and the chosen map at draft completion.
type MatchSetup struct {
	LobbyID    string
	Map        string
	Roster     []string
	Teams      map[string]int
	RoomHandle string
	StartedAt  time.Time
}
