// Package timer owns the per-session round countdowns. Each session has
// at most one live countdown; resetting replaces it. Ticks report the
// remaining whole seconds once per second and the timeout action fires
// exactly once on expiry.
package timer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"unotable/internal/game"
)

type countdown struct {
	deadline time.Time
	timer    *time.Timer
	ticker   *time.Ticker
	done     chan struct{}
}

// Manager implements game.RoundTimer.
type Manager struct {
	mu         sync.Mutex
	countdowns map[uuid.UUID]*countdown
}

func NewManager() *Manager {
	return &Manager{countdowns: make(map[uuid.UUID]*countdown)}
}

// Reset cancels any live countdown for the session and starts a new one.
func (m *Manager) Reset(sessionID uuid.UUID, cfg game.RoundTimerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(sessionID)

	d := time.Duration(cfg.Seconds) * time.Second
	c := &countdown{
		deadline: time.Now().Add(d),
		done:     make(chan struct{}),
	}
	c.timer = time.AfterFunc(d, func() {
		m.stopIfCurrent(sessionID, c)
		if cfg.OnTimeout != nil {
			cfg.OnTimeout()
		}
	})
	if cfg.OnTick != nil {
		c.ticker = time.NewTicker(time.Second)
		go func(c *countdown, onTick func(int)) {
			for {
				select {
				case <-c.done:
					return
				case <-c.ticker.C:
					onTick(remainingSeconds(c.deadline))
				}
			}
		}(c, cfg.OnTick)
	}
	m.countdowns[sessionID] = c
}

// Remaining returns the countdown's remaining whole seconds, or 0 when
// the session has no live countdown.
func (m *Manager) Remaining(sessionID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.countdowns[sessionID]
	if !ok {
		return 0
	}
	return remainingSeconds(c.deadline)
}

// Cancel stops and removes the session's countdown, if any.
func (m *Manager) Cancel(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(sessionID)
}

// stopIfCurrent removes the countdown only while it is still the
// session's live one. An expiry that raced a Reset must not tear down
// the replacement countdown.
func (m *Manager) stopIfCurrent(sessionID uuid.UUID, c *countdown) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countdowns[sessionID] != c {
		return
	}
	m.stopLocked(sessionID)
}

func (m *Manager) stopLocked(sessionID uuid.UUID) {
	c, ok := m.countdowns[sessionID]
	if !ok {
		return
	}
	delete(m.countdowns, sessionID)
	c.timer.Stop()
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.done)
}

func remainingSeconds(deadline time.Time) int {
	r := int(time.Until(deadline).Round(time.Second) / time.Second)
	if r < 0 {
		return 0
	}
	return r
}
