// Package deck generates shuffled card decks with a fixed 108-card
// composition: per color one 0, two of each 1-9, two reverses, two
// blocks and two buy-2s, plus four change-colors and four buy-4s.
package deck

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"unotable/internal/models"
)

var playableColors = []models.CardColor{
	models.ColorRed,
	models.ColorBlue,
	models.ColorGreen,
	models.ColorYellow,
}

// Generator builds shuffled decks and picks random colors. Safe for
// concurrent use by multiple sessions.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a time-seeded Generator.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed, for reproducible
// deck orders in tests.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewDeck returns a freshly shuffled full deck.
func (g *Generator) NewDeck() []*models.CardData {
	cards := make([]*models.CardData, 0, 108)

	for _, color := range playableColors {
		cards = append(cards, numberCard(color, 0))
		for value := 1; value <= 9; value++ {
			cards = append(cards, numberCard(color, value), numberCard(color, value))
		}
		for i := 0; i < 2; i++ {
			cards = append(cards,
				actionCard(models.CardReverse, color),
				actionCard(models.CardBlock, color),
				actionCard(models.CardBuy2, color),
			)
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, wildCard(models.CardChangeColor), wildCard(models.CardBuy4))
	}

	g.mu.Lock()
	g.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	g.mu.Unlock()

	return cards
}

// RandomColor returns one of the four playable (non-black) colors.
func (g *Generator) RandomColor() models.CardColor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return playableColors[g.rng.Intn(len(playableColors))]
}

func numberCard(color models.CardColor, value int) *models.CardData {
	return &models.CardData{
		ID:    uuid.New(),
		Type:  models.CardNumber,
		Value: value,
		Color: color,
		Src:   fmt.Sprintf("/assets/cards/%s/%d.png", color, value),
	}
}

func actionCard(t models.CardType, color models.CardColor) *models.CardData {
	return &models.CardData{
		ID:    uuid.New(),
		Type:  t,
		Color: color,
		Src:   fmt.Sprintf("/assets/cards/%s/%s.png", color, t),
	}
}

func wildCard(t models.CardType) *models.CardData {
	possible := make(map[models.CardColor]string, len(playableColors)+1)
	possible[models.ColorBlack] = fmt.Sprintf("/assets/cards/black/%s.png", t)
	for _, color := range playableColors {
		possible[color] = fmt.Sprintf("/assets/cards/black/%s-%s.png", t, color)
	}
	return &models.CardData{
		ID:             uuid.New(),
		Type:           t,
		Color:          models.ColorBlack,
		Src:            possible[models.ColorBlack],
		PossibleColors: possible,
	}
}
