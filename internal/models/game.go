package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the session lifecycle phase.
type GameStatus string

const (
	GameWaiting GameStatus = "waiting"
	GamePlaying GameStatus = "playing"
	GameEnded   GameStatus = "ended"
)

// Direction is the turn rotation sense. Clockwise advances seat indices
// upward; counterclockwise advances them downward.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	Counterclockwise Direction = "counterclockwise"
)

// CardCombo tracks an in-progress forced-draw chain. AmountToBuy always
// equals the sum of DrawAmount over CardTypes; both are empty/zero when
// no chain is active.
type CardCombo struct {
	CardTypes   []CardType `json:"cardTypes"`
	AmountToBuy int        `json:"amountToBuy"`
}

// Active reports whether a forced-draw chain is open.
func (c CardCombo) Active() bool {
	return len(c.CardTypes) > 0
}

// Head returns the type that opened the chain, or "".
func (c CardCombo) Head() CardType {
	if len(c.CardTypes) == 0 {
		return ""
	}
	return c.CardTypes[0]
}

// Game is the aggregate root for one session. It is owned exclusively by
// the engine while loaded and persisted whole-record between operations.
type Game struct {
	ID     uuid.UUID  `json:"id"`
	ChatID string     `json:"chatId"`
	Status GameStatus `json:"status"`

	MaxPlayers int    `json:"maxPlayers"`
	Title      string `json:"title"`

	Players []*Player `json:"players"`

	// Cards is the full shuffled deck snapshot created at game start.
	// AvailableCards is the draw pile (head is drawn next); UsedCards is
	// the discard pile, most recent first, capped by the engine.
	Cards          []*CardData `json:"cards"`
	AvailableCards []*CardData `json:"availableCards"`
	UsedCards      []*CardData `json:"usedCards"`

	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	NextPlayerIndex    int       `json:"nextPlayerIndex"`
	Direction          Direction `json:"direction"`

	// CurrentGameColor is the active color constraint; empty before the
	// first play of a round.
	CurrentGameColor CardColor `json:"currentGameColor,omitempty"`

	CurrentCardCombo CardCombo `json:"currentCardCombo"`

	Round                     int       `json:"round"`
	MaxRoundDurationInSeconds int       `json:"maxRoundDurationInSeconds"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// Player returns the seated player with the given id, or nil.
func (g *Game) Player(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the seat index for the given id, or -1.
func (g *Game) PlayerIndex(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player at CurrentPlayerIndex, or nil when the
// index is out of range.
func (g *Game) CurrentPlayer() *Player {
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// TopDiscard returns the most recently discarded card, or nil.
func (g *Game) TopDiscard() *CardData {
	if len(g.UsedCards) == 0 {
		return nil
	}
	return g.UsedCards[0]
}

// CirculatingCards counts every card in the draw pile, the discard pile
// and all hands. While a game is playing it must stay equal to the size
// of the deck snapshot the round started with.
func (g *Game) CirculatingCards() int {
	n := len(g.AvailableCards) + len(g.UsedCards)
	for _, p := range g.Players {
		n += len(p.HandCards)
	}
	return n
}
