// Package game is the rules engine and turn-state machine for UNO-like
// sessions: it owns session lifecycle, turn advancement, card effect
// resolution and the idle-player fallback. All mutation of a Game record
// happens under a per-session lock; collaborators (storage, deck
// generation, identity, event delivery, round timers) are injected ports.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"unotable/internal/models"
)

// Config carries the engine's tunables.
type Config struct {
	MaxPlayers           int
	HandSize             int
	RoundDurationSeconds int

	// DiscardPileCap bounds the discard pile; overflow recycles into the
	// draw pile.
	DiscardPileCap int

	// AutoPlayDelay is how long the engine waits before acting for an
	// afk player whose turn just started, so the turn broadcast lands
	// before the automated move does.
	AutoPlayDelay time.Duration
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:           6,
		HandSize:             7,
		RoundDurationSeconds: 30,
		DiscardPileCap:       10,
		AutoPlayDelay:        time.Second,
	}
}

// Engine coordinates every operation on game sessions. Operations on the
// same session are serialized through a per-session mutex; different
// sessions proceed fully independently.
type Engine struct {
	cfg      Config
	log      *logrus.Logger
	store    Store
	decks    DeckGenerator
	players  PlayerDirectory
	bus      EventBus
	timers   RoundTimer
	notifier SideNotifier // optional

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewEngine wires an Engine. notifier may be nil.
func NewEngine(cfg Config, log *logrus.Logger, store Store, decks DeckGenerator, players PlayerDirectory, bus EventBus, timers RoundTimer, notifier SideNotifier) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		store:    store,
		decks:    decks,
		players:  players,
		bus:      bus,
		timers:   timers,
		notifier: notifier,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockSession acquires the session's mutex and returns its unlock func.
// Timer callbacks and player actions both go through here, so every
// read-modify-write of a Game record is serialized.
func (e *Engine) lockSession(sessionID uuid.UUID) func() {
	e.mu.Lock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[sessionID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// emit publishes an event and dispatches the process-wide side
// notifications for the session-update event set.
func (e *Engine) emit(ctx context.Context, sessionID uuid.UUID, ev Event, payload ...interface{}) {
	e.bus.Publish(sessionID, ev, payload...)
	if sessionUpdateEvents[ev] && e.notifier != nil {
		e.notifier.HistoryConsolidated(ctx, sessionID)
		e.notifier.SessionListUpdated(ctx)
	}
}

// persist saves the game and then broadcasts the new state. Saving comes
// strictly first so subscribers never observe state that was lost.
func (e *Engine) persist(ctx context.Context, g *models.Game) error {
	if err := e.store.Save(ctx, g); err != nil {
		return fmt.Errorf("save session %s: %w", g.ID, err)
	}
	e.emit(ctx, g.ID, EventGameStateChanged, g)
	return nil
}

func (e *Engine) load(ctx context.Context, sessionID uuid.UUID) (*models.Game, error) {
	g, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return g, nil
}

// CreateSession builds a fresh waiting game seated with its creator and
// a newly generated deck, persists it and broadcasts GameCreated.
func (e *Engine) CreateSession(ctx context.Context, creatorID, sessionID uuid.UUID, chatID string) (*models.Game, error) {
	unlock := e.lockSession(sessionID)
	defer unlock()

	profile, err := e.players.Profile(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("resolve creator %s: %w", creatorID, err)
	}

	g := &models.Game{
		ID:         sessionID,
		ChatID:     chatID,
		Status:     models.GameWaiting,
		MaxPlayers: e.cfg.MaxPlayers,
		Title:      profile.Name,
		Players: []*models.Player{{
			ID:        creatorID,
			Name:      profile.Name,
			HandCards: []*models.CardData{},
			Status:    models.PlayerOnline,
		}},
		Cards:                     e.decks.NewDeck(),
		AvailableCards:            []*models.CardData{},
		UsedCards:                 []*models.CardData{},
		CurrentPlayerIndex:        0,
		NextPlayerIndex:           1,
		Direction:                 models.Clockwise,
		CurrentCardCombo:          models.CardCombo{CardTypes: []models.CardType{}},
		MaxRoundDurationInSeconds: e.cfg.RoundDurationSeconds,
		CreatedAt:                 time.Now(),
	}

	if err := e.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}
	e.log.WithFields(logrus.Fields{"session": sessionID, "creator": creatorID}).Info("session created")
	e.emit(ctx, sessionID, EventGameCreated, g)
	return g, nil
}

// FindOpenSession returns the first waiting game whose title matches the
// player's display name, or nil if none does. Titles are compared
// case- and accent-insensitively since they originate from chat clients.
func (e *Engine) FindOpenSession(ctx context.Context, playerID uuid.UUID) (*models.Game, error) {
	profile, err := e.players.Profile(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("resolve player %s: %w", playerID, err)
	}
	games, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	want := normalizeTitle(profile.Name)
	for _, g := range games {
		if g.Status == models.GameWaiting && normalizeTitle(g.Title) == want {
			return g, nil
		}
	}
	return nil, nil
}

// SessionExists reports whether the session id resolves to a game.
func (e *Engine) SessionExists(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	_, err := e.store.Load(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return true, nil
}

// GetSession returns the current game record.
func (e *Engine) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Game, error) {
	return e.load(ctx, sessionID)
}

// ListSessions returns every persisted game.
func (e *Engine) ListSessions(ctx context.Context) ([]*models.Game, error) {
	return e.store.List(ctx)
}

// ChatID returns the chat reference the session was created from.
func (e *Engine) ChatID(ctx context.Context, sessionID uuid.UUID) (string, error) {
	g, err := e.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return g.ChatID, nil
}

// Join admits the player when the game is still waiting, has room and
// does not already seat them; otherwise it is treated as a reconnect and
// only flips the player back online. Either way the remaining round time
// and a PlayerJoined event are broadcast.
func (e *Engine) Join(ctx context.Context, sessionID, playerID uuid.UUID) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}

	seated := g.Player(playerID)
	switch {
	case seated == nil && g.Status == models.GameWaiting && len(g.Players) < g.MaxPlayers:
		profile, err := e.players.Profile(ctx, playerID)
		if err != nil {
			return fmt.Errorf("resolve player %s: %w", playerID, err)
		}
		g.Players = append(g.Players, &models.Player{
			ID:        playerID,
			Name:      profile.Name,
			HandCards: []*models.CardData{},
			Status:    models.PlayerOnline,
		})
		e.log.WithFields(logrus.Fields{"session": sessionID, "player": playerID}).Info("player joined")
	case seated != nil:
		seated.Status = models.PlayerOnline
		e.log.WithFields(logrus.Fields{"session": sessionID, "player": playerID}).Info("player reconnected")
	default:
		// Full or already started and the player is unknown; no state
		// change, the broadcasts below still answer the caller.
	}

	if err := e.persist(ctx, g); err != nil {
		return err
	}
	e.bus.Publish(sessionID, EventGameRoundRemainingTimeChanged, e.timers.Remaining(sessionID))
	e.emit(ctx, sessionID, EventPlayerJoined, g)
	return nil
}

// LeaveAll removes or disconnects the player from every session seating
// them: waiting games drop the seat outright, playing games only mark
// the player offline. One PlayerLeft event is broadcast per affected game.
func (e *Engine) LeaveAll(ctx context.Context, playerID uuid.UUID) error {
	games, err := e.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, stale := range games {
		if stale.Player(playerID) == nil {
			continue
		}
		if err := e.leaveOne(ctx, stale.ID, playerID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) leaveOne(ctx context.Context, sessionID, playerID uuid.UUID) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	idx := g.PlayerIndex(playerID)
	if idx < 0 {
		return nil
	}

	switch g.Status {
	case models.GameWaiting:
		g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	case models.GamePlaying:
		g.Players[idx].Status = models.PlayerOffline
	}

	if err := e.persist(ctx, g); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"session": sessionID, "player": playerID}).Info("player left")
	e.emit(ctx, sessionID, EventPlayerLeft, g)
	return nil
}

// ToggleReady flips the player's ready flag; once every seated player is
// ready the game starts.
func (e *Engine) ToggleReady(ctx context.Context, sessionID, playerID uuid.UUID) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	g, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}
	p := g.Player(playerID)
	if p == nil || g.Status != models.GameWaiting {
		return nil
	}
	p.Ready = !p.Ready

	if err := e.persist(ctx, g); err != nil {
		return err
	}

	for _, pl := range g.Players {
		if !pl.Ready {
			return nil
		}
	}
	return e.startGame(ctx, g)
}

// startGame transitions waiting -> playing: deals HandSize cards to each
// player in seat order from the deck snapshot, marks the current player's
// whole hand playable, moves the remainder into the draw pile, starts the
// round timer and broadcasts GameStarted. Lock held by caller.
func (e *Engine) startGame(ctx context.Context, g *models.Game) error {
	remaining := make([]*models.CardData, len(g.Cards))
	copy(remaining, g.Cards)

	current := g.CurrentPlayer()
	if current == nil {
		return fmt.Errorf("session %s: current player index %d out of range", g.ID, g.CurrentPlayerIndex)
	}
	g.Status = models.GamePlaying

	for _, p := range g.Players {
		hand := make([]*models.CardData, 0, e.cfg.HandSize)
		for i := 0; i < e.cfg.HandSize && len(remaining) > 0; i++ {
			card := remaining[0]
			remaining = remaining[1:]
			card.CanBeUsed = p.ID == current.ID
			card.CanBeCombed = false
			hand = append(hand, card)
		}
		p.HandCards = hand
		p.IsCurrentRoundPlayer = p.ID == current.ID
		p.CanBuyCard = false
	}
	g.AvailableCards = remaining

	if err := e.persist(ctx, g); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"session": g.ID, "players": len(g.Players)}).Info("game started")
	e.emit(ctx, g.ID, EventGameStarted, g)
	e.resetRoundTimer(g)
	return nil
}

// endGame resets the session in place for a new round: ended status,
// cleared hands and piles, a regenerated deck, the winner seated first.
// The winner's identity was already broadcast by the caller, so the
// GameEnded event carries no payload. Lock held by caller.
func (e *Engine) endGame(ctx context.Context, g *models.Game) error {
	winnerIndex := g.CurrentPlayerIndex
	if winnerIndex < 0 || winnerIndex >= len(g.Players) {
		winnerIndex = 0
	}

	g.Status = models.GameEnded
	g.Round = 0
	g.CurrentPlayerIndex = winnerIndex
	g.NextPlayerIndex = normalizeIndex(winnerIndex+1, len(g.Players))
	g.AvailableCards = []*models.CardData{}
	g.UsedCards = []*models.CardData{}
	g.CurrentCardCombo = models.CardCombo{CardTypes: []models.CardType{}}
	g.Cards = e.decks.NewDeck()

	for _, p := range g.Players {
		p.HandCards = []*models.CardData{}
		p.Status = models.PlayerOnline
		p.Ready = false
		p.IsCurrentRoundPlayer = false
		p.CanBuyCard = false
	}

	if err := e.persist(ctx, g); err != nil {
		return err
	}
	e.timers.Cancel(g.ID)
	e.log.WithField("session", g.ID).Info("game ended")
	e.emit(ctx, g.ID, EventGameEnded)
	return nil
}

// resetRoundTimer replaces the session's countdown and broadcasts the
// full budget so clients see it at turn start rather than after the
// first tick. Ticks broadcast the remaining time; expiry re-enters the
// engine through the idle fallback, carrying the round it was armed for
// so a stale expiry cannot act on a turn that already advanced.
func (e *Engine) resetRoundTimer(g *models.Game) {
	sessionID := g.ID
	round := g.Round
	e.timers.Reset(sessionID, RoundTimerConfig{
		Seconds: g.MaxRoundDurationInSeconds,
		OnTick: func(remainingSeconds int) {
			e.bus.Publish(sessionID, EventGameRoundRemainingTimeChanged, remainingSeconds)
		},
		OnTimeout: func() {
			e.handleRoundTimeout(sessionID, round)
		},
	})
	e.bus.Publish(sessionID, EventGameRoundRemainingTimeChanged, g.MaxRoundDurationInSeconds)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// normalizeTitle lowercases, trims and strips combining marks so titles
// typed with inconsistent accents still match.
func normalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
