package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unotable/internal/models"
)

// cardCanBeBuyCombed decides whether a card may extend the active
// forced-draw chain: a buy-2 extends a buy-2-headed chain, a buy-2
// extends a buy-4-headed chain only when its color matches the table
// color, and a buy-4 extends anything.
func cardCanBeBuyCombed(g *models.Game, card *models.CardData) bool {
	head := g.CurrentCardCombo.Head()
	switch {
	case card.Type == models.CardBuy2 && head == models.CardBuy4:
		return card.Color == g.CurrentGameColor
	case card.Type == models.CardBuy2 && head == models.CardBuy2:
		return true
	case card.Type == models.CardBuy4:
		return true
	default:
		return false
	}
}

// matchesTopDiscard reports whether the card is playable against the top
// of the discard pile outside of a combo chain. Number cards only match
// number cards of the same face value.
func matchesTopDiscard(top, card *models.CardData) bool {
	if top == nil {
		return false
	}
	if top.Color == card.Color {
		return true
	}
	if top.Type != card.Type {
		return false
	}
	return card.Type != models.CardNumber || top.Value == card.Value
}

// applyCardUsability recomputes every derived flag for the acting player
// and forces them off for everyone else. It must run synchronously on
// every state-affecting action before the state is persisted.
func applyCardUsability(g *models.Game, currentPlayerID uuid.UUID) {
	top := g.TopDiscard()
	comboActive := g.CurrentCardCombo.Active()

	for _, p := range g.Players {
		if p.ID != currentPlayerID {
			for _, c := range p.HandCards {
				c.CanBeUsed = false
				c.CanBeCombed = false
			}
			p.IsCurrentRoundPlayer = false
			p.CanBuyCard = false
			continue
		}

		for _, c := range p.HandCards {
			if comboActive {
				c.CanBeUsed = cardCanBeBuyCombed(g, c)
			} else {
				c.CanBeUsed = matchesTopDiscard(top, c) ||
					c.Type == models.CardChangeColor ||
					c.Type == models.CardBuy4 ||
					(g.CurrentGameColor != "" && c.Color == g.CurrentGameColor)
			}
			c.CanBeCombed = comboContains(g.CurrentCardCombo, c.Type)
		}
		p.IsCurrentRoundPlayer = true
		p.CanBuyCard = !p.HasUsableCard()
	}
}

func comboContains(combo models.CardCombo, t models.CardType) bool {
	for _, ct := range combo.CardTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// BuyCard moves the head of the draw pile into the current player's hand.
// It is legal only for the current player and only while none of their
// cards is usable; anything else is silently ignored. Drawing never
// advances the turn, but the fresh card may become immediately playable.
func (e *Engine) BuyCard(ctx context.Context, sessionID, playerID uuid.UUID) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.buyCardLocked(ctx, g, playerID)
}

func (e *Engine) buyCardLocked(ctx context.Context, g *models.Game, playerID uuid.UUID) error {
	if g.Status != models.GamePlaying {
		return nil
	}
	info := currentPlayerInfo(g)
	if info.ID != playerID {
		return nil
	}
	player := g.Player(playerID)
	if player == nil || player.HasUsableCard() {
		return nil
	}

	card := e.drawOne(g)
	if card == nil {
		// Draw and discard piles are both exhausted with nothing
		// playable: terminal deadlock, end the round.
		e.log.WithField("session", g.ID).Warn("piles exhausted on draw, ending round")
		return e.endGame(ctx, g)
	}
	card.CanBeUsed = false
	card.CanBeCombed = false
	player.HandCards = append([]*models.CardData{card}, player.HandCards...)

	applyCardUsability(g, playerID)
	return e.persist(ctx, g)
}

// drawOne pops the head of the draw pile, recycling the discard overflow
// first when the pile is empty. Returns nil when nothing is left to
// draw anywhere.
func (e *Engine) drawOne(g *models.Game) *models.CardData {
	if len(g.AvailableCards) == 0 {
		e.recycleDiscard(g)
	}
	if len(g.AvailableCards) == 0 {
		return nil
	}
	card := g.AvailableCards[0]
	g.AvailableCards = g.AvailableCards[1:]
	return card
}

// recycleDiscard moves every discard except the top card back into the
// draw pile, with wild colors reset and the batch shuffled.
func (e *Engine) recycleDiscard(g *models.Game) {
	if len(g.UsedCards) <= 1 {
		return
	}
	overflow := g.UsedCards[1:]
	g.UsedCards = g.UsedCards[:1]
	recycleCards(overflow)
	g.AvailableCards = append(g.AvailableCards, overflow...)
}

func recycleCards(cards []*models.CardData) {
	for _, c := range cards {
		c.ResetWild()
		c.CanBeUsed = false
		c.CanBeCombed = false
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// PutCard plays one or more same-type cards from the current player's
// hand: the cards move to the front of the discard pile (overflow beyond
// the cap recycles into the draw pile), the table color follows the first
// card, the group's effect resolves and the turn advances. Actions from
// non-current players are silently ignored; callers are responsible for
// only submitting card ids the player owns.
func (e *Engine) PutCard(ctx context.Context, sessionID, playerID uuid.UUID, cardIDs []uuid.UUID, chosenColor models.CardColor) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.putCardLocked(ctx, g, playerID, cardIDs, chosenColor)
}

func (e *Engine) putCardLocked(ctx context.Context, g *models.Game, playerID uuid.UUID, cardIDs []uuid.UUID, chosenColor models.CardColor) error {
	if g.Status != models.GamePlaying {
		return nil
	}
	info := currentPlayerInfo(g)
	if info.ID != playerID {
		return nil
	}
	player := g.Player(playerID)
	if player == nil {
		return nil
	}

	played := make([]*models.CardData, 0, len(cardIDs))
	for _, id := range cardIDs {
		if c := player.CardByID(id); c != nil {
			played = append(played, c)
		}
	}
	if len(played) == 0 {
		return nil
	}

	removeFromHand(player, played)
	e.restackDiscard(g, played)
	g.CurrentGameColor = played[0].Color

	e.applyCardEffects(ctx, g, played, chosenColor)

	return e.nextRound(ctx, g)
}

func removeFromHand(p *models.Player, cards []*models.CardData) {
	drop := make(map[uuid.UUID]bool, len(cards))
	for _, c := range cards {
		drop[c.ID] = true
	}
	kept := p.HandCards[:0]
	for _, c := range p.HandCards {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	p.HandCards = kept
}

// restackDiscard prepends the played cards to the discard pile and keeps
// the pile within the cap by recycling the tail into the draw pile. This
// keeps cards flowing back to the stack so long games never starve.
func (e *Engine) restackDiscard(g *models.Game, played []*models.CardData) {
	used := make([]*models.CardData, 0, len(played)+len(g.UsedCards))
	used = append(used, played...)
	used = append(used, g.UsedCards...)

	pileCap := e.cfg.DiscardPileCap
	if len(used) > pileCap {
		overflow := used[pileCap:]
		used = used[:pileCap]
		recycleCards(overflow)
		g.AvailableCards = append(g.AvailableCards, overflow...)
	}
	g.UsedCards = used
}

// groupType classifies a multi-card play. Mixed-type submissions are a
// caller error and resolve no effect.
func groupType(cards []*models.CardData) (models.CardType, bool) {
	t := cards[0].Type
	for _, c := range cards[1:] {
		if c.Type != t {
			return "", false
		}
	}
	return t, true
}

// applyCardEffects resolves the played group against the game state.
// Lock held by caller.
func (e *Engine) applyCardEffects(ctx context.Context, g *models.Game, played []*models.CardData, chosenColor models.CardColor) {
	t, uniform := groupType(played)
	if !uniform {
		return
	}

	switch t {
	case models.CardChangeColor, models.CardBuy4:
		e.resolveWildColor(g, played, chosenColor)
	case models.CardReverse:
		applyReverse(g, len(played))
	case models.CardBlock:
		e.applyBlocks(ctx, g, len(played))
	}

	if t.IsBuy() {
		e.applyBuyChain(ctx, g, played)
	}
}

// resolveWildColor pins the table color to the chosen one and rewrites
// the matching discard entries so they render as resolved wilds.
func (e *Engine) resolveWildColor(g *models.Game, played []*models.CardData, chosenColor models.CardColor) {
	if chosenColor == "" || chosenColor == models.ColorBlack {
		chosenColor = e.decks.RandomColor()
	}
	g.CurrentGameColor = chosenColor

	playedIDs := make(map[uuid.UUID]bool, len(played))
	for _, c := range played {
		playedIDs[c.ID] = true
	}
	for _, c := range g.UsedCards {
		if !playedIDs[c.ID] {
			continue
		}
		c.SelectedColor = chosenColor
		if src, ok := c.PossibleColors[chosenColor]; ok {
			c.Src = src
		}
	}
}

// applyReverse flips the rotation for an odd-sized group; an even group
// cancels itself out and hands the turn straight back.
func applyReverse(g *models.Game, count int) {
	if count%2 == 0 {
		g.NextPlayerIndex = g.CurrentPlayerIndex
		return
	}
	if g.Direction == models.Clockwise {
		g.Direction = models.Counterclockwise
		g.NextPlayerIndex = g.CurrentPlayerIndex - 1
	} else {
		g.Direction = models.Clockwise
		g.NextPlayerIndex = g.CurrentPlayerIndex + 1
	}
}

// applyBlocks skips one player per card, broadcasting each skipped id.
func (e *Engine) applyBlocks(ctx context.Context, g *models.Game, count int) {
	for i := 0; i < count; i++ {
		idx := normalizeIndex(g.NextPlayerIndex, len(g.Players))
		blocked := g.Players[idx]
		if g.Direction == models.Clockwise {
			g.NextPlayerIndex++
		} else {
			g.NextPlayerIndex--
		}
		e.emit(ctx, g.ID, EventPlayerBlocked, blocked.ID)
	}
}

// applyBuyChain appends the played forced-draw types to the combo chain.
// If the player up next cannot extend the chain they immediately draw
// the whole accumulated amount, the combo resets and the turn skips past
// them; otherwise the chain stays open and the draw is deferred.
func (e *Engine) applyBuyChain(ctx context.Context, g *models.Game, played []*models.CardData) {
	for _, c := range played {
		g.CurrentCardCombo.CardTypes = append(g.CurrentCardCombo.CardTypes, c.Type)
	}

	amount := 0
	for _, t := range g.CurrentCardCombo.CardTypes {
		amount += t.DrawAmount()
	}
	g.CurrentCardCombo.AmountToBuy = amount

	idx := normalizeIndex(g.NextPlayerIndex, len(g.Players))
	affected := g.Players[idx]
	for _, c := range affected.HandCards {
		if cardCanBeBuyCombed(g, c) {
			return // chain stays open, the draw is someone else's problem
		}
	}

	e.emit(ctx, g.ID, EventPlayerBuyCards, affected.ID, amount)

	drawn := make([]*models.CardData, 0, amount)
	for i := 0; i < amount; i++ {
		card := e.drawOne(g)
		if card == nil {
			e.log.WithFields(logrus.Fields{
				"session": g.ID,
				"short":   amount - len(drawn),
			}).Warn("piles exhausted during forced draw")
			break
		}
		card.CanBeUsed = false
		card.CanBeCombed = false
		drawn = append(drawn, card)
	}
	affected.HandCards = append(drawn, affected.HandCards...)

	g.CurrentCardCombo = models.CardCombo{CardTypes: []models.CardType{}}

	if g.Direction == models.Clockwise {
		g.NextPlayerIndex++
	} else {
		g.NextPlayerIndex--
	}
}
