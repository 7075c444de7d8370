package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unotable/internal/models"
)

func TestNormalizeIndex(t *testing.T) {
	tests := []struct {
		v, n, want int
	}{
		{0, 3, 0},
		{1, 3, 1},
		{3, 3, 0},
		{4, 3, 1},
		{-1, 3, 2},
		{-4, 3, 2},
		{5, 0, 0},
		{5, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeIndex(tt.v, tt.n), "normalizeIndex(%d, %d)", tt.v, tt.n)
	}
}

func TestCurrentPlayerInfo(t *testing.T) {
	f := newFixture(t)
	g, ids := f.playingSession(
		[]*models.CardData{number(models.ColorRed, 5)},
		[]*models.CardData{number(models.ColorBlue, 1), number(models.ColorBlue, 2)},
	)

	info := currentPlayerInfo(g)
	assert.Equal(t, ids[0], info.ID)
	assert.Equal(t, StatusUno, info.GameStatus)

	g.Players[0].HandCards = nil
	assert.Equal(t, StatusWinner, currentPlayerInfo(g).GameStatus)

	g.Players[0].HandCards = []*models.CardData{number(models.ColorRed, 1), number(models.ColorRed, 2)}
	assert.Empty(t, currentPlayerInfo(g).GameStatus)
}

func TestNextRoundEmitsUno(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	played := number(models.ColorRed, 5)
	g, ids := f.playingSession(
		[]*models.CardData{played, number(models.ColorBlue, 1)},
		[]*models.CardData{number(models.ColorRed, 1), number(models.ColorRed, 2)},
	)
	g.UsedCards = []*models.CardData{number(models.ColorRed, 7)}

	require.NoError(t, f.engine.PutCard(ctx, g.ID, ids[0], []uuid.UUID{played.ID}, ""))

	ev, ok := f.bus.last(EventPlayerUno)
	require.True(t, ok)
	assert.Equal(t, ids[0], ev.payload[0])
	assert.Equal(t, models.GamePlaying, g.Status, "uno does not end the game")
	assert.Equal(t, 1, g.CurrentPlayerIndex)
}

func TestNextRoundWinnerEndsGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	last := number(models.ColorRed, 5)
	g, ids := f.playingSession(
		[]*models.CardData{last},
		[]*models.CardData{number(models.ColorRed, 1), number(models.ColorRed, 2)},
		[]*models.CardData{number(models.ColorRed, 3)},
	)
	g.UsedCards = []*models.CardData{number(models.ColorRed, 7)}

	require.NoError(t, f.engine.PutCard(ctx, g.ID, ids[0], []uuid.UUID{last.ID}, ""))

	won, ok := f.bus.last(EventPlayerWon)
	require.True(t, ok)
	assert.Equal(t, ids[0], won.payload[0])
	assert.Equal(t, "player-0", won.payload[1])
	assert.Equal(t, 1, f.bus.count(EventGameEnded))

	assert.Equal(t, models.GameEnded, g.Status)
	assert.Equal(t, 0, g.Round)
	assert.Equal(t, 0, g.CurrentPlayerIndex, "the winner keeps the opening seat")
	assert.Equal(t, 1, g.NextPlayerIndex)
	assert.Empty(t, g.AvailableCards)
	assert.Empty(t, g.UsedCards)
	assert.False(t, g.CurrentCardCombo.Active())
	assert.Len(t, g.Cards, 108, "a fresh deck is staged for the next round")
	for _, p := range g.Players {
		assert.Empty(t, p.HandCards)
		assert.False(t, p.Ready)
		assert.Equal(t, models.PlayerOnline, p.Status)
	}
	assert.Equal(t, 1, f.timers.cancels)
}

func TestNextRoundWrapsAroundTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	played := number(models.ColorRed, 5)
	g, ids := f.playingSession(
		[]*models.CardData{number(models.ColorRed, 1), number(models.ColorRed, 2)},
		[]*models.CardData{played, number(models.ColorBlue, 1), number(models.ColorGreen, 2)},
	)
	g.UsedCards = []*models.CardData{number(models.ColorRed, 7)}
	g.CurrentPlayerIndex = 1
	g.NextPlayerIndex = 2
	require.NoError(t, f.store.Save(ctx, g))

	require.NoError(t, f.engine.PutCard(ctx, g.ID, ids[1], []uuid.UUID{played.ID}, ""))

	assert.Equal(t, 0, g.CurrentPlayerIndex, "the turn wraps to the first seat")
	assert.Equal(t, 1, g.NextPlayerIndex)
}
