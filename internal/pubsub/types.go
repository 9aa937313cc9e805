package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client *pubsub.Client
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventPlayerRegistered  EventType = "player-registered"
	EventLobbyStateChanged EventType = "lobby-state-changed"
	EventDraftUpdated      EventType = "draft-updated"
	EventMatchSettled      EventType = "match-settled"
)
