// Package players is the player directory: it resolves player ids to
// profiles and manages registered and guest accounts in Postgres.
//
// Expected schema:
//
//	CREATE TABLE players (
//	    id UUID PRIMARY KEY,
//	    name TEXT NOT NULL,
//	    password_hash TEXT,
//	    is_guest BOOLEAN NOT NULL DEFAULT TRUE,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unotable/internal/auth"
	"unotable/internal/game"
)

var (
	// ErrPlayerNotFound is returned when a player id resolves to nothing.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrBadCredentials is returned on a failed Authenticate.
	ErrBadCredentials = errors.New("bad credentials")
)

// Directory implements game.PlayerDirectory on a pgx pool.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Profile resolves a player id to a profile.
func (d *Directory) Profile(ctx context.Context, playerID uuid.UUID) (game.Profile, error) {
	var name string
	err := d.pool.QueryRow(ctx, `SELECT name FROM players WHERE id = $1`, playerID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return game.Profile{}, ErrPlayerNotFound
		}
		return game.Profile{}, fmt.Errorf("query player %s: %w", playerID, err)
	}
	return game.Profile{ID: playerID, Name: name}, nil
}

// EnsureGuest creates a guest account with the given display name and
// returns its profile. Guests have no credentials; the session token
// issued alongside is the only way to act as them.
func (d *Directory) EnsureGuest(ctx context.Context, name string) (game.Profile, error) {
	id := uuid.New()
	_, err := d.pool.Exec(ctx,
		`INSERT INTO players (id, name, is_guest) VALUES ($1, $2, TRUE)`,
		id, name)
	if err != nil {
		return game.Profile{}, fmt.Errorf("insert guest: %w", err)
	}
	return game.Profile{ID: id, Name: name}, nil
}

// Register creates a named account with an argon2id password hash.
func (d *Directory) Register(ctx context.Context, name, password string) (game.Profile, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return game.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	id := uuid.New()
	_, err = d.pool.Exec(ctx,
		`INSERT INTO players (id, name, password_hash, is_guest) VALUES ($1, $2, $3, FALSE)`,
		id, name, hash)
	if err != nil {
		return game.Profile{}, fmt.Errorf("insert player: %w", err)
	}
	return game.Profile{ID: id, Name: name}, nil
}

// Authenticate verifies a registered player's credentials.
func (d *Directory) Authenticate(ctx context.Context, name, password string) (game.Profile, error) {
	var (
		id   uuid.UUID
		hash *string
	)
	err := d.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM players WHERE name = $1 AND is_guest = FALSE`,
		name).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return game.Profile{}, ErrBadCredentials
		}
		return game.Profile{}, fmt.Errorf("query player by name: %w", err)
	}
	if hash == nil {
		return game.Profile{}, ErrBadCredentials
	}
	ok, err := auth.VerifyPassword(password, *hash)
	if err != nil {
		return game.Profile{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return game.Profile{}, ErrBadCredentials
	}
	return game.Profile{ID: id, Name: name}, nil
}
