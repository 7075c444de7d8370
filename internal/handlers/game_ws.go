package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unotable/internal/game"
	"unotable/internal/models"
)

// GuestDirectory creates guest accounts for clients arriving without a
// session token.
type GuestDirectory interface {
	EnsureGuest(ctx context.Context, name string) (game.Profile, error)
}

// TokenVerifier checks a session token and returns its player id.
type TokenVerifier interface {
	Issue(playerID uuid.UUID) (string, error)
	Verify(token string) (uuid.UUID, error)
}

// clientMessage is the wire shape of every incoming game action.
type clientMessage struct {
	Type  string      `json:"type"`
	Cards []uuid.UUID `json:"cards,omitempty"`
	Color string      `json:"color,omitempty"`
}

// GameWSHandler upgrades to websocket on /game/ws/{session_id},
// identifies the player (token or fresh guest), joins them to the
// session (creating it when the id is unknown) and routes their actions
// into the engine until the connection drops.
func GameWSHandler(logger *logrus.Logger, engine *game.Engine, hub *Hub, guests GuestDirectory, tokens TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/game/ws/")
		idStr = strings.TrimSuffix(idStr, "/")
		sessionID, err := uuid.Parse(idStr)
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("websocket accept for session %s: %v", sessionID, err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "handler exit")

		ctx := r.Context()
		playerID, issuedToken, err := identify(ctx, r, guests, tokens)
		if err != nil {
			logger.Warnf("identify client for session %s: %v", sessionID, err)
			conn.Close(websocket.StatusPolicyViolation, "authentication failed")
			return
		}

		client := newWSClient(playerID, conn)
		hub.join(sessionID, client)
		defer hub.leave(sessionID, client)
		go client.writePump(context.Background())

		if issuedToken != "" {
			welcome, _ := json.Marshal(envelope{Type: "SessionToken", Payload: []interface{}{issuedToken, playerID}})
			client.send(welcome)
		}

		exists, err := engine.SessionExists(ctx, sessionID)
		if err != nil {
			logger.Errorf("check session %s: %v", sessionID, err)
			conn.Close(websocket.StatusInternalError, "storage unavailable")
			return
		}
		if !exists {
			if _, err := engine.CreateSession(ctx, playerID, sessionID, r.URL.Query().Get("chat")); err != nil {
				logger.Errorf("create session %s: %v", sessionID, err)
				conn.Close(websocket.StatusInternalError, "session create failed")
				return
			}
		}
		if err := engine.Join(ctx, sessionID, playerID); err != nil {
			logger.Errorf("join session %s: %v", sessionID, err)
			conn.Close(websocket.StatusInternalError, "join failed")
			return
		}
		defer func() {
			if err := engine.LeaveAll(context.Background(), playerID); err != nil {
				logger.Warnf("leave sessions for player %s: %v", playerID, err)
			}
		}()

		readLoop(ctx, logger, engine, conn, sessionID, playerID)
	}
}

// identify resolves the acting player: a valid token wins, otherwise a
// guest account is created from the name query parameter and a token is
// issued for it.
func identify(ctx context.Context, r *http.Request, guests GuestDirectory, tokens TokenVerifier) (uuid.UUID, string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		playerID, err := tokens.Verify(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return playerID, "", nil
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		return uuid.Nil, "", errors.New("missing token and name")
	}
	profile, err := guests.EnsureGuest(ctx, name)
	if err != nil {
		return uuid.Nil, "", err
	}
	token, err := tokens.Issue(profile.ID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return profile.ID, token, nil
}

func readLoop(ctx context.Context, logger *logrus.Logger, engine *game.Engine, conn *websocket.Conn, sessionID, playerID uuid.UUID) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debugf("read loop for player %s ended: %v", playerID, err)
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debugf("malformed message from player %s: %v", playerID, err)
			continue
		}

		switch msg.Type {
		case "ready":
			err = engine.ToggleReady(ctx, sessionID, playerID)
		case "buy":
			err = engine.BuyCard(ctx, sessionID, playerID)
		case "put":
			err = engine.PutCard(ctx, sessionID, playerID, msg.Cards, models.CardColor(msg.Color))
		default:
			logger.Debugf("unknown message type %q from player %s", msg.Type, playerID)
		}
		if err != nil {
			logger.Errorf("action %q from player %s on session %s: %v", msg.Type, playerID, sessionID, err)
		}
	}
}
