package players

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"unotable/internal/game"
)

// MemoryDirectory is an in-memory game.PlayerDirectory for tests and
// single-node runs without Postgres.
type MemoryDirectory struct {
	mu    sync.RWMutex
	names map[uuid.UUID]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{names: make(map[uuid.UUID]string)}
}

// Put registers or renames a player.
func (m *MemoryDirectory) Put(playerID uuid.UUID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[playerID] = name
}

func (m *MemoryDirectory) Profile(ctx context.Context, playerID uuid.UUID) (game.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[playerID]
	if !ok {
		return game.Profile{}, ErrPlayerNotFound
	}
	return game.Profile{ID: playerID, Name: name}, nil
}
