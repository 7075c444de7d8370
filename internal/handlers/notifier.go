package handlers

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"unotable/internal/history"
)

// SideChannels implements game.SideNotifier: history consolidation goes
// to the Redis queue, the session-list refresh goes to every connected
// client. Both are best-effort.
type SideChannels struct {
	History *history.Publisher // optional
	Hub     *Hub
}

func (s *SideChannels) HistoryConsolidated(ctx context.Context, sessionID uuid.UUID) {
	if s.History == nil {
		return
	}
	if err := s.History.Publish(ctx, sessionID); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("publish history record")
	}
}

func (s *SideChannels) SessionListUpdated(ctx context.Context) {
	if s.Hub != nil {
		s.Hub.BroadcastSessionList()
	}
}
