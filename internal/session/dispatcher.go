package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecollab/internal/events"
	"codecollab/internal/metrics"
	"codecollab/internal/models"
)

// Dispatcher turns inbound frames into session operations. Every handler that
// reads or writes a session does so inside that session's Room, and issues
// its broadcast before returning, so no other frame for the session can be
// observed in between.
type Dispatcher struct {
	hub       *Hub
	registry  *Registry
	broadcast *Broadcaster
	events    events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewDispatcher(hub *Hub, registry *Registry, publisher events.Publisher, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Dispatcher{
		hub:       hub,
		registry:  registry,
		broadcast: NewBroadcaster(registry, log),
		events:    publisher,
		log:       log,
		now:       time.Now,
	}
}

// HandleFrame processes one raw frame from c. It never returns an error: bad
// input is answered with an error frame to c alone.
func (d *Dispatcher) HandleFrame(c *Client, raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		d.reject(c, err)
		return
	}

	switch m := msg.(type) {
	case CreateSession:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.createSession(c, m)
	case JoinSession:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.joinSession(c, m)
	case CodeChange:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.codeChange(c, m)
	case CursorUpdate:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.cursorUpdate(c, m)
	case VoiceAnnotation:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.voiceAnnotation(c, m)
	case PresenceSignal:
		metrics.FramesReceived.WithLabelValues(m.Type()).Inc()
		d.presenceSignal(c, m)
	case Unknown:
		metrics.FramesReceived.WithLabelValues("unknown").Inc()
		d.log.Info("ignoring unknown message type",
			zap.String("connection_id", c.ID),
			zap.String("type", m.Kind))
	default:
		d.log.Error("unhandled message variant", zap.String("type", msg.Type()))
	}
}

// Disconnect tears down c's binding, if any. Safe to call more than once.
func (d *Dispatcher) Disconnect(c *Client) {
	d.leave(c)
}

func (d *Dispatcher) reject(c *Client, err error) {
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		pe = &ProtocolError{Reason: ReasonInvalidMessage, Message: err.Error()}
	}
	metrics.ProtocolErrors.WithLabelValues(pe.Reason).Inc()
	d.log.Debug("protocol error",
		zap.String("connection_id", c.ID),
		zap.String("reason", pe.Reason),
		zap.String("message", pe.Message))
	c.Send(errorFrame(pe))
}

func (d *Dispatcher) createSession(c *Client, m CreateSession) {
	d.leave(c)

	room, creator := d.hub.CreateSession(m.SessionName, m.Language, m.Code, m.ParticipantName)
	err := room.Do(func(s *models.CollaborationSession) {
		if err := d.registry.Bind(c, s.ID, creator.ID); err != nil {
			d.log.Warn("bind failed", zap.Error(err), zap.String("connection_id", c.ID))
			Deactivate(s, creator.ID, d.now())
			d.reject(c, protoErr(ReasonSessionNotFound, "session %s is gone", s.ID))
			return
		}
		snapshot := s.Clone()
		p := creator
		c.Send(models.ServerFrame{Type: TypeSessionCreated, Session: &snapshot, Participant: &p})
	})
	if err != nil {
		d.reject(c, protoErr(ReasonSessionNotFound, "session %s is gone", room.ID))
		return
	}
	d.events.Publish(events.Event{Type: events.SessionCreated, SessionID: room.ID, ParticipantID: creator.ID})
}

func (d *Dispatcher) joinSession(c *Client, m JoinSession) {
	d.leave(c)

	room, ok := d.hub.Get(m.SessionID)
	if !ok {
		d.reject(c, protoErr(ReasonSessionNotFound, "session %s not found", m.SessionID))
		return
	}

	var joined models.Participant
	var bindErr error
	err := room.Do(func(s *models.CollaborationSession) {
		if !d.hub.Exists(s.ID) {
			bindErr = ErrSessionNotFound
			return
		}
		now := d.now()
		joined = Join(s, m.ParticipantName, d.hub.colors, now)
		if bindErr = d.registry.Bind(c, s.ID, joined.ID); bindErr != nil {
			Deactivate(s, joined.ID, now)
			return
		}
		snapshot := s.Clone()
		self := joined
		c.Send(models.ServerFrame{Type: TypeSessionJoined, Session: &snapshot, Participant: &self})

		other := joined
		d.broadcast.BroadcastToSession(s.ID, models.ServerFrame{
			Type:        TypeParticipantJoined,
			Participant: &other,
		}, joined.ID)
	})
	if err != nil || bindErr != nil {
		d.reject(c, protoErr(ReasonSessionNotFound, "session %s not found", m.SessionID))
		return
	}

	d.log.Info("participant joined",
		zap.String("session_id", m.SessionID),
		zap.String("participant_id", joined.ID),
		zap.String("connection_id", c.ID))
	d.events.Publish(events.Event{Type: events.ParticipantJoined, SessionID: m.SessionID, ParticipantID: joined.ID})
}

// bound resolves c's binding and room, replying not_in_session when either
// is missing.
func (d *Dispatcher) bound(c *Client, msgType string) (Binding, *Room, bool) {
	b, ok := d.registry.Resolve(c.ID)
	if !ok {
		d.reject(c, protoErr(ReasonNotInSession, "%s requires joining a session first", msgType))
		return Binding{}, nil, false
	}
	room, ok := d.hub.Get(b.SessionID)
	if !ok {
		d.reject(c, protoErr(ReasonNotInSession, "session %s no longer exists", b.SessionID))
		return Binding{}, nil, false
	}
	return b, room, true
}

// activeParticipant returns the sender's record, or nil for a participant
// that has left or was never in s.
func activeParticipant(s *models.CollaborationSession, participantID string) *models.Participant {
	i := FindParticipant(s, participantID)
	if i < 0 || !s.Participants[i].IsActive {
		return nil
	}
	return &s.Participants[i]
}

func (d *Dispatcher) codeChange(c *Client, m CodeChange) {
	b, room, ok := d.bound(c, TypeCodeChange)
	if !ok {
		return
	}

	applied := false
	err := room.Do(func(s *models.CollaborationSession) {
		sender := activeParticipant(s, b.ParticipantID)
		if sender == nil {
			d.log.Debug("code_change from inactive participant ignored",
				zap.String("session_id", s.ID),
				zap.String("participant_id", b.ParticipantID))
			return
		}
		now := d.now()
		change := models.CodeChange{
			ID:            uuid.NewString(),
			SessionID:     s.ID,
			ParticipantID: b.ParticipantID,
			Type:          m.ChangeType,
			Position:      m.Position,
			Content:       m.Content,
			Timestamp:     now,
		}
		next, ok := ApplyChange(s.Code, change)
		if !ok {
			d.log.Debug("code_change out of range, nothing applied",
				zap.String("session_id", s.ID),
				zap.String("participant_id", b.ParticipantID),
				zap.Int("line", m.Position.Line))
			return
		}
		s.Code = next
		s.LastActivity = now
		sender.LastSeen = now
		applied = true

		code := next
		d.broadcast.BroadcastToSession(s.ID, models.ServerFrame{
			Type:          TypeCodeChanged,
			Code:          &code,
			Change:        &change,
			ParticipantID: b.ParticipantID,
		}, b.ParticipantID)
	})
	if err != nil {
		d.reject(c, protoErr(ReasonNotInSession, "session %s no longer exists", b.SessionID))
		return
	}
	if applied {
		d.events.Publish(events.Event{Type: events.CodeChanged, SessionID: b.SessionID, ParticipantID: b.ParticipantID})
	}
}

func (d *Dispatcher) cursorUpdate(c *Client, m CursorUpdate) {
	b, room, ok := d.bound(c, TypeCursorUpdate)
	if !ok {
		return
	}

	err := room.Do(func(s *models.CollaborationSession) {
		if activeParticipant(s, b.ParticipantID) == nil {
			return
		}
		if !UpdatePresence(s, b.ParticipantID, m.Cursor, m.Selection, d.now()) {
			return
		}
		cursor := m.Cursor
		d.broadcast.BroadcastToSession(s.ID, models.ServerFrame{
			Type:          TypeCursorUpdated,
			ParticipantID: b.ParticipantID,
			Cursor:        &cursor,
			Selection:     m.Selection,
		}, b.ParticipantID)
	})
	if err != nil {
		d.reject(c, protoErr(ReasonNotInSession, "session %s no longer exists", b.SessionID))
	}
}

func (d *Dispatcher) voiceAnnotation(c *Client, m VoiceAnnotation) {
	d.relay(c, TypeVoiceAnnotation, func(frame *models.ServerFrame) {
		frame.AudioURL = m.AudioURL
		frame.Position = m.Position
	})
}

func (d *Dispatcher) presenceSignal(c *Client, m PresenceSignal) {
	d.relay(c, m.Kind, func(frame *models.ServerFrame) {
		frame.AudioConfig = m.AudioConfig
		frame.ScreenConfig = m.ScreenConfig
		frame.GlobalAccess = m.GlobalAccess
		frame.Permissions = m.Permissions
	})
}

// relay echoes a stateless signal to the rest of the session, stamped with
// the sender's name and the server time. Session state is only read.
func (d *Dispatcher) relay(c *Client, msgType string, fill func(*models.ServerFrame)) {
	b, room, ok := d.bound(c, msgType)
	if !ok {
		return
	}

	err := room.Do(func(s *models.CollaborationSession) {
		sender := activeParticipant(s, b.ParticipantID)
		if sender == nil {
			return
		}
		ts := d.now()
		frame := models.ServerFrame{
			Type:            msgType,
			ParticipantID:   sender.ID,
			ParticipantName: sender.Name,
			Timestamp:       &ts,
		}
		fill(&frame)
		d.broadcast.BroadcastToSession(s.ID, frame, b.ParticipantID)
	})
	if err != nil {
		d.reject(c, protoErr(ReasonNotInSession, "session %s no longer exists", b.SessionID))
	}
}

// leave unbinds c, marks its participant inactive and tells the rest of the
// session. The unbind happens inside the room so only one caller can win it
// and participant_left goes out exactly once.
func (d *Dispatcher) leave(c *Client) {
	b, ok := d.registry.Resolve(c.ID)
	if !ok {
		return
	}
	room, ok := d.hub.Get(b.SessionID)
	if !ok {
		d.registry.Unbind(c.ID)
		return
	}

	left := false
	err := room.Do(func(s *models.CollaborationSession) {
		if _, ok := d.registry.Unbind(c.ID); !ok {
			return
		}
		now := d.now()
		name := ""
		if i := FindParticipant(s, b.ParticipantID); i >= 0 {
			name = s.Participants[i].Name
		}
		if !Deactivate(s, b.ParticipantID, now) {
			return
		}
		left = true
		d.broadcast.BroadcastToSession(s.ID, models.ServerFrame{
			Type:            TypeParticipantLeft,
			ParticipantID:   b.ParticipantID,
			ParticipantName: name,
		}, b.ParticipantID)
	})
	if err != nil {
		d.registry.Unbind(c.ID)
		return
	}
	if left {
		d.log.Info("participant left",
			zap.String("session_id", b.SessionID),
			zap.String("participant_id", b.ParticipantID),
			zap.String("connection_id", c.ID))
		d.events.Publish(events.Event{Type: events.ParticipantLeft, SessionID: b.SessionID, ParticipantID: b.ParticipantID})
	}
}
