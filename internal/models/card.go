package models

import "github.com/google/uuid"

// CardColor is the printed color of a card. Black marks a wild card whose
// effective color is resolved at play time via SelectedColor.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
	ColorYellow CardColor = "yellow"
	ColorBlack  CardColor = "black"
)

// CardType identifies the card's behavior when played.
type CardType string

const (
	CardNumber      CardType = "number"
	CardReverse     CardType = "reverse"
	CardBlock       CardType = "block"
	CardBuy2        CardType = "buy-2"
	CardBuy4        CardType = "buy-4"
	CardChangeColor CardType = "change-color"
)

// DrawAmount is how many cards this type forces the affected player to
// draw when it takes part in a combo chain.
func (t CardType) DrawAmount() int {
	switch t {
	case CardBuy2:
		return 2
	case CardBuy4:
		return 4
	default:
		return 0
	}
}

// IsBuy reports whether the type can open or extend a forced-draw chain.
func (t CardType) IsBuy() bool {
	return t == CardBuy2 || t == CardBuy4
}

// CardData is a single physical card. Cards are only ever moved between
// the deck snapshot, the draw pile, the discard pile and player hands;
// they are never created or destroyed while a game is running.
type CardData struct {
	ID    uuid.UUID `json:"id"`
	Type  CardType  `json:"type"`
	Value int       `json:"value,omitempty"` // face value, number cards only
	Color CardColor `json:"color"`

	// Src is the rendering source currently shown for this card.
	// PossibleColors maps each resolvable color to its rendering source
	// and is only populated for wild cards.
	Src            string               `json:"src,omitempty"`
	PossibleColors map[CardColor]string `json:"possibleColors,omitempty"`

	// SelectedColor is set once a wild card is resolved and cleared again
	// when the card recycles from the discard pile into the draw pile.
	SelectedColor CardColor `json:"selectedColor,omitempty"`

	// Derived flags, recomputed on every state-affecting action.
	CanBeUsed   bool `json:"canBeUsed"`
	CanBeCombed bool `json:"canBeCombed"`
}

// IsWild reports whether the card resolves its color at play time.
func (c *CardData) IsWild() bool {
	return c.Color == ColorBlack
}

// ResetWild clears a resolved wild card back to its unresolved state.
func (c *CardData) ResetWild() {
	if !c.IsWild() {
		return
	}
	c.SelectedColor = ""
	if src, ok := c.PossibleColors[ColorBlack]; ok {
		c.Src = src
	}
}
