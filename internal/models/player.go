package models

import "github.com/google/uuid"

// PlayerStatus tracks a player's presence within a session.
type PlayerStatus string

const (
	PlayerOnline  PlayerStatus = "online"
	PlayerOffline PlayerStatus = "offline"
	PlayerAFK     PlayerStatus = "afk"
)

// Player is one seat in a game. Seat order defines turn order and is
// never silently reordered; disconnecting mid-game only changes Status.
type Player struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	HandCards []*CardData  `json:"handCards"`
	Status    PlayerStatus `json:"status"`

	// Ready is only meaningful while the game is waiting.
	Ready bool `json:"ready"`

	// Derived per round: exactly one player holds IsCurrentRoundPlayer
	// while the game is playing, and CanBuyCard is true iff none of that
	// player's hand cards is currently usable.
	IsCurrentRoundPlayer bool `json:"isCurrentRoundPlayer"`
	CanBuyCard           bool `json:"canBuyCard"`
}

// HasUsableCard reports whether any hand card is currently playable.
func (p *Player) HasUsableCard() bool {
	for _, c := range p.HandCards {
		if c.CanBeUsed {
			return true
		}
	}
	return false
}

// CardByID returns the hand card with the given id, or nil.
func (p *Player) CardByID(id uuid.UUID) *CardData {
	for _, c := range p.HandCards {
		if c.ID == id {
			return c
		}
	}
	return nil
}
