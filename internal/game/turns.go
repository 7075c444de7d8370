package game

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unotable/internal/models"
)

// CurrentPlayerGameStatus derives from the current player's hand size:
// winner on an empty hand, uno on exactly one card, otherwise empty.
type CurrentPlayerGameStatus string

const (
	StatusWinner CurrentPlayerGameStatus = "winner"
	StatusUno    CurrentPlayerGameStatus = "uno"
)

// CurrentPlayerInfo is a derived snapshot of whoever holds the turn.
type CurrentPlayerInfo struct {
	ID           uuid.UUID               `json:"id"`
	Name         string                  `json:"name"`
	PlayerStatus models.PlayerStatus     `json:"playerStatus"`
	GameStatus   CurrentPlayerGameStatus `json:"gameStatus,omitempty"`
}

// CurrentPlayerInfo returns the snapshot for a session.
func (e *Engine) CurrentPlayerInfo(ctx context.Context, sessionID uuid.UUID) (CurrentPlayerInfo, error) {
	g, err := e.load(ctx, sessionID)
	if err != nil {
		return CurrentPlayerInfo{}, err
	}
	return currentPlayerInfo(g), nil
}

func currentPlayerInfo(g *models.Game) CurrentPlayerInfo {
	p := g.CurrentPlayer()
	if p == nil {
		return CurrentPlayerInfo{}
	}
	info := CurrentPlayerInfo{
		ID:           p.ID,
		Name:         p.Name,
		PlayerStatus: p.Status,
	}
	switch len(p.HandCards) {
	case 0:
		info.GameStatus = StatusWinner
	case 1:
		info.GameStatus = StatusUno
	}
	return info
}

// normalizeIndex maps any integer onto [0, n) with modular wraparound;
// negative values wrap to the end.
func normalizeIndex(v, n int) int {
	if n <= 0 {
		return 0
	}
	return ((v % n) + n) % n
}

// nextRound runs after a play resolved: it detects a win (ending the
// game) or an uno, hands the turn to the player at the normalized
// NextPlayerIndex, recomputes hand playability, bumps the round counter,
// persists and rearms the round timer. When the new current player is
// already afk an automated move is scheduled on their behalf. Lock held
// by caller.
func (e *Engine) nextRound(ctx context.Context, g *models.Game) error {
	info := currentPlayerInfo(g)

	if info.GameStatus == StatusWinner {
		e.emit(ctx, g.ID, EventPlayerWon, info.ID, info.Name)
		return e.endGame(ctx, g)
	}
	if info.GameStatus == StatusUno {
		e.emit(ctx, g.ID, EventPlayerUno, info.ID)
	}

	idx := normalizeIndex(g.NextPlayerIndex, len(g.Players))
	if g.Direction == models.Clockwise {
		g.NextPlayerIndex = idx + 1
	} else {
		g.NextPlayerIndex = idx - 1
	}

	next := g.Players[idx]
	applyCardUsability(g, next.ID)
	g.Round++
	g.CurrentPlayerIndex = idx

	if err := e.persist(ctx, g); err != nil {
		return err
	}
	e.resetRoundTimer(g)

	e.log.WithFields(logrus.Fields{
		"session": g.ID,
		"round":   g.Round,
		"player":  next.ID,
	}).Debug("round advanced")

	if next.Status == models.PlayerAFK {
		e.scheduleAutoPlay(g.ID, next.ID, g.Round)
	}
	return nil
}
