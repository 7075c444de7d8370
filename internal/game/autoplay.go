package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unotable/internal/models"
)

// handleRoundTimeout is the round timer's expiry callback: the current
// player failed to act within the round budget, so they are marked afk
// and a legal move is made on their behalf. The round captured when the
// timer was armed guards against an expiry that raced a legal play and
// only got the session lock after the turn advanced.
func (e *Engine) handleRoundTimeout(sessionID uuid.UUID, round int) {
	ctx := context.Background()
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		e.log.WithError(err).WithField("session", sessionID).Warn("round timeout on unloadable session")
		return
	}
	if g.Status != models.GamePlaying || g.Round != round {
		return
	}
	info := currentPlayerInfo(g)
	player := g.Player(info.ID)
	if player == nil {
		return
	}

	player.Status = models.PlayerAFK
	if err := e.persist(ctx, g); err != nil {
		e.log.WithError(err).WithField("session", sessionID).Error("persist afk state")
		return
	}

	if err := e.autoPlayLocked(ctx, g, info.ID); err != nil {
		e.log.WithError(err).WithField("session", sessionID).Error("automated play after timeout")
		return
	}
	e.emit(ctx, sessionID, EventPlayerGotAwayFromKeyboard, info.ID)
}

// scheduleAutoPlay arranges an automated move for an afk player whose
// turn just started, after a short delay so the turn broadcast lands
// first. The round counter captured here guards against stale firings.
func (e *Engine) scheduleAutoPlay(sessionID, playerID uuid.UUID, round int) {
	time.AfterFunc(e.cfg.AutoPlayDelay, func() {
		ctx := context.Background()
		unlock := e.lockSession(sessionID)
		defer unlock()

		g, err := e.load(ctx, sessionID)
		if err != nil {
			e.log.WithError(err).WithField("session", sessionID).Warn("scheduled auto play on unloadable session")
			return
		}
		if g.Status != models.GamePlaying || g.Round != round {
			return
		}
		current := g.CurrentPlayer()
		if current == nil || current.ID != playerID || current.Status != models.PlayerAFK {
			return
		}
		if err := e.autoPlayLocked(ctx, g, playerID); err != nil {
			e.log.WithError(err).WithField("session", sessionID).Error("scheduled automated play")
		}
	})
}

// autoPlayLocked performs one legal move for a player who is not online:
// play the first usable card (resolving wilds with a random color), or
// keep drawing until one appears. The loop is bounded by the combined
// pile sizes; if both run dry with nothing playable the round ends as a
// deadlock. Lock held by caller.
func (e *Engine) autoPlayLocked(ctx context.Context, g *models.Game, playerID uuid.UUID) error {
	player := g.Player(playerID)
	if player == nil || player.Status == models.PlayerOnline {
		return nil
	}

	for {
		var usable *models.CardData
		for _, c := range player.HandCards {
			if c.CanBeUsed {
				usable = c
				break
			}
		}
		if usable != nil {
			e.log.WithFields(logrus.Fields{
				"session": g.ID,
				"player":  playerID,
				"card":    usable.ID,
			}).Debug("automated play")
			return e.putCardLocked(ctx, g, playerID, []uuid.UUID{usable.ID}, e.decks.RandomColor())
		}

		if len(g.AvailableCards) == 0 && len(g.UsedCards) <= 1 {
			e.log.WithField("session", g.ID).Warn("automated play deadlocked with exhausted piles, ending round")
			return e.endGame(ctx, g)
		}
		if err := e.buyCardLocked(ctx, g, playerID); err != nil {
			return err
		}
		if g.Status != models.GamePlaying {
			return nil
		}
	}
}
