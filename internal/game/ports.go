package game

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"unotable/internal/models"
)

// ErrSessionNotFound is returned when a session id resolves to nothing.
// Store implementations must return it (possibly wrapped) from Load.
var ErrSessionNotFound = errors.New("session not found")

// Store persists Game records whole; no field-level writes are assumed.
type Store interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*models.Game, error)
	Save(ctx context.Context, g *models.Game) error
	List(ctx context.Context) ([]*models.Game, error)
}

// DeckGenerator supplies fresh shuffled decks and random colors for wild
// resolution during automated play.
type DeckGenerator interface {
	NewDeck() []*models.CardData
	RandomColor() models.CardColor
}

// Profile is the subset of player identity the engine needs.
type Profile struct {
	ID   uuid.UUID
	Name string
}

// PlayerDirectory resolves player ids to profiles.
type PlayerDirectory interface {
	Profile(ctx context.Context, playerID uuid.UUID) (Profile, error)
}

// EventBus is a fire-and-forget broadcast to every subscriber of a
// session. Delivery failures are the bus's problem, not the engine's.
type EventBus interface {
	Publish(sessionID uuid.UUID, event Event, payload ...interface{})
}

// RoundTimerConfig describes one countdown. OnTick fires periodically
// with the remaining whole seconds; OnTimeout fires once on expiry.
// Callbacks run on timer goroutines and must do their own locking.
type RoundTimerConfig struct {
	Seconds   int
	OnTick    func(remainingSeconds int)
	OnTimeout func()
}

// RoundTimer owns at most one live countdown per session. Reset replaces
// any existing countdown for the session.
type RoundTimer interface {
	Reset(sessionID uuid.UUID, cfg RoundTimerConfig)
	Remaining(sessionID uuid.UUID) int
	Cancel(sessionID uuid.UUID)
}

// SideNotifier receives the process-wide side notifications triggered by
// the session-update event set (see sessionUpdateEvents).
type SideNotifier interface {
	HistoryConsolidated(ctx context.Context, sessionID uuid.UUID)
	SessionListUpdated(ctx context.Context)
}
