package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unotable/internal/models"
)

func TestNewDeckComposition(t *testing.T) {
	cards := New().NewDeck()
	require.Len(t, cards, 108)

	byType := make(map[models.CardType]int)
	byColor := make(map[models.CardColor]int)
	values := make(map[int]int)
	ids := make(map[string]bool)
	for _, c := range cards {
		byType[c.Type]++
		byColor[c.Color]++
		if c.Type == models.CardNumber {
			values[c.Value]++
		}
		ids[c.ID.String()] = true
	}

	assert.Equal(t, 76, byType[models.CardNumber])
	assert.Equal(t, 8, byType[models.CardReverse])
	assert.Equal(t, 8, byType[models.CardBlock])
	assert.Equal(t, 8, byType[models.CardBuy2])
	assert.Equal(t, 4, byType[models.CardBuy4])
	assert.Equal(t, 4, byType[models.CardChangeColor])

	for _, color := range playableColors {
		assert.Equal(t, 25, byColor[color])
	}
	assert.Equal(t, 8, byColor[models.ColorBlack])

	// One zero and two of each 1-9 per color.
	assert.Equal(t, 4, values[0])
	for v := 1; v <= 9; v++ {
		assert.Equal(t, 8, values[v], "value %d", v)
	}

	assert.Len(t, ids, 108, "every card gets a distinct id")
}

func TestNewDeckWildsCarryPossibleColors(t *testing.T) {
	cards := New().NewDeck()
	for _, c := range cards {
		if c.Color != models.ColorBlack {
			assert.Empty(t, c.PossibleColors)
			continue
		}
		require.Len(t, c.PossibleColors, 5)
		assert.Equal(t, c.PossibleColors[models.ColorBlack], c.Src)
	}
}

func TestNewWithSeedIsReproducible(t *testing.T) {
	a := NewWithSeed(7).NewDeck()
	b := NewWithSeed(7).NewDeck()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Type, b[i].Type, "index %d", i)
		assert.Equal(t, a[i].Color, b[i].Color, "index %d", i)
		assert.Equal(t, a[i].Value, b[i].Value, "index %d", i)
	}
}

func TestRandomColorNeverBlack(t *testing.T) {
	g := New()
	for i := 0; i < 100; i++ {
		assert.NotEqual(t, models.ColorBlack, g.RandomColor())
	}
}
