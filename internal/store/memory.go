// Package store provides the Game storage implementations: an in-memory
// map for tests and single-node runs, and a Redis-backed whole-record
// JSON store for anything that needs to survive a process.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"unotable/internal/game"
	"unotable/internal/models"
)

// Memory keeps games in a mutex-guarded map. Loads hand back the stored
// pointer; the engine's per-session locking makes that safe in-process.
type Memory struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*models.Game
}

func NewMemory() *Memory {
	return &Memory{games: make(map[uuid.UUID]*models.Game)}
}

func (m *Memory) Load(ctx context.Context, sessionID uuid.UUID) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[sessionID]
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	return g, nil
}

func (m *Memory) Save(ctx context.Context, g *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

func (m *Memory) List(ctx context.Context) ([]*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, sessionID)
	return nil
}
