package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"unotable/internal/game"
	"unotable/internal/models"
)

const (
	gameKeyPrefix = "unotable:game:"
	gameIndexKey  = "unotable:games"
)

// Redis stores each Game as one JSON value plus a set of known session
// ids for listing. Whole-record semantics only.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func gameKey(sessionID uuid.UUID) string {
	return gameKeyPrefix + sessionID.String()
}

func (r *Redis) Load(ctx context.Context, sessionID uuid.UUID) (*models.Game, error) {
	data, err := r.client.Get(ctx, gameKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, game.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", sessionID, err)
	}
	var g models.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", sessionID, err)
	}
	return &g, nil
}

func (r *Redis) Save(ctx context.Context, g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, gameKey(g.ID), data, 0)
	pipe.SAdd(ctx, gameIndexKey, g.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %s: %w", g.ID, err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]*models.Game, error) {
	ids, err := r.client.SMembers(ctx, gameIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list ids: %w", err)
	}
	games := make([]*models.Game, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		g, err := r.Load(ctx, id)
		if err != nil {
			if errors.Is(err, game.ErrSessionNotFound) {
				// Stale index entry; drop it and move on.
				r.client.SRem(ctx, gameIndexKey, raw)
				continue
			}
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (r *Redis) Delete(ctx context.Context, sessionID uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, gameKey(sessionID))
	pipe.SRem(ctx, gameIndexKey, sessionID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", sessionID, err)
	}
	return nil
}
