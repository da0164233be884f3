package session

import (
	"go.uber.org/zap"

	"codecollab/internal/models"
)

// Broadcaster fans frames out to every connection bound to a session.
type Broadcaster struct {
	registry *Registry
	log      *zap.Logger
}

func NewBroadcaster(registry *Registry, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{registry: registry, log: log}
}

// BroadcastToSession delivers frame to every connection in sessionID except
// those bound to excludeParticipantID (pass "" to reach everyone). Delivery
// is best effort; it returns how many connections accepted the frame.
func (b *Broadcaster) BroadcastToSession(sessionID string, frame models.ServerFrame, excludeParticipantID string) int {
	delivered := 0
	for _, binding := range b.registry.SessionBindings(sessionID) {
		if excludeParticipantID != "" && binding.ParticipantID == excludeParticipantID {
			continue
		}
		if binding.Client.Send(frame) {
			delivered++
			continue
		}
		b.log.Debug("dropped frame",
			zap.String("session_id", sessionID),
			zap.String("connection_id", binding.ConnectionID),
			zap.String("type", frame.Type))
	}
	return delivered
}
