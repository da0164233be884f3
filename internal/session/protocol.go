package session

import (
	"encoding/json"
	"fmt"

	"codecollab/internal/models"
)

// Inbound message types.
const (
	TypeCreateSession      = "create_session"
	TypeJoinSession        = "join_session"
	TypeCodeChange         = "code_change"
	TypeCursorUpdate       = "cursor_update"
	TypeVoiceAnnotation    = "voice_annotation"
	TypeVideoChatStart     = "video_chat_start"
	TypeVideoChatEnd       = "video_chat_end"
	TypeVoiceChatStart     = "voice_chat_start"
	TypeVoiceChatEnd       = "voice_chat_end"
	TypeScreenShareStart   = "screen_share_start"
	TypeScreenShareEnd     = "screen_share_end"
	TypeGlobalAccessToggle = "global_access_toggle"
)

// Outbound message types.
const (
	TypeSessionCreated    = "session_created"
	TypeSessionJoined     = "session_joined"
	TypeParticipantJoined = "participant_joined"
	TypeParticipantLeft   = "participant_left"
	TypeCodeChanged       = "code_changed"
	TypeCursorUpdated     = "cursor_updated"
	TypeError             = "error"
)

// Protocol error reasons sent back in error frames.
const (
	ReasonInvalidMessage   = "invalid_message"
	ReasonMissingSessionID = "missing_session_id"
	ReasonSessionNotFound  = "session_not_found"
	ReasonNotInSession     = "not_in_session"
	ReasonInvalidChange    = "invalid_change"
	ReasonInvalidCursor    = "invalid_cursor"
)

const (
	DefaultParticipantName = "Anonymous"
	DefaultSessionName     = "Untitled Session"
	DefaultLanguage        = "javascript"
)

// ProtocolError is a client mistake. It is reported to the sender and never
// closes the connection.
type ProtocolError struct {
	Reason  string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func protoErr(reason, format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Message is one decoded inbound frame. The set of implementations is closed.
type Message interface {
	Type() string
	message()
}

type CreateSession struct {
	SessionName     string
	Language        string
	Code            string
	ParticipantName string
}

type JoinSession struct {
	SessionID       string
	ParticipantName string
}

type CodeChange struct {
	ChangeType models.ChangeType
	Position   models.Position
	Content    string
}

type CursorUpdate struct {
	Cursor    models.Position
	Selection *models.Selection
}

type VoiceAnnotation struct {
	AudioURL string
	Position *models.Position
}

// PresenceSignal covers the media toggles that are relayed to the rest of
// the session without touching its state.
type PresenceSignal struct {
	Kind         string
	AudioConfig  json.RawMessage
	ScreenConfig json.RawMessage
	GlobalAccess *bool
	Permissions  json.RawMessage
}

// Unknown is any frame whose type the hub does not handle.
type Unknown struct {
	Kind string
}

func (CreateSession) Type() string { return TypeCreateSession }
func (JoinSession) Type() string { return TypeJoinSession }
func (CodeChange) Type() string { return TypeCodeChange }
func (CursorUpdate) Type() string { return TypeCursorUpdate }
func (VoiceAnnotation) Type() string { return TypeVoiceAnnotation }
func (m PresenceSignal) Type() string { return m.Kind }
func (m Unknown) Type() string { return m.Kind }

func (CreateSession) message() {}
func (JoinSession) message() {}
func (CodeChange) message() {}
func (CursorUpdate) message() {}
func (VoiceAnnotation) message() {}
func (PresenceSignal) message() {}
func (Unknown) message() {}

func isPresence(t string) bool {
	switch t {
	case TypeVideoChatStart, TypeVideoChatEnd,
		TypeVoiceChatStart, TypeVoiceChatEnd,
		TypeScreenShareStart, TypeScreenShareEnd,
		TypeGlobalAccessToggle:
		return true
	}
	return false
}

// Decode parses one raw frame into its message variant. Shape problems come
// back as *ProtocolError.
func Decode(raw []byte) (Message, error) {
	var f models.ClientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, protoErr(ReasonInvalidMessage, "malformed frame: %v", err)
	}
	if f.Type == "" {
		return nil, protoErr(ReasonInvalidMessage, "frame has no type")
	}

	switch f.Type {
	case TypeCreateSession:
		return CreateSession{
			SessionName:     orDefault(f.SessionName, DefaultSessionName),
			Language:        orDefault(f.Language, DefaultLanguage),
			Code:            f.Code,
			ParticipantName: orDefault(f.ParticipantName, DefaultParticipantName),
		}, nil
	case TypeJoinSession:
		if f.SessionID == "" {
			return nil, protoErr(ReasonMissingSessionID, "join_session requires sessionId")
		}
		return JoinSession{
			SessionID:       f.SessionID,
			ParticipantName: orDefault(f.ParticipantName, DefaultParticipantName),
		}, nil
	case TypeCodeChange:
		if !f.ChangeType.Valid() {
			return nil, protoErr(ReasonInvalidChange, "unsupported changeType %q", f.ChangeType)
		}
		if f.Position == nil {
			return nil, protoErr(ReasonInvalidChange, "code_change requires position")
		}
		return CodeChange{ChangeType: f.ChangeType, Position: *f.Position, Content: f.Content}, nil
	case TypeCursorUpdate:
		if f.Cursor == nil {
			return nil, protoErr(ReasonInvalidCursor, "cursor_update requires cursor")
		}
		return CursorUpdate{Cursor: *f.Cursor, Selection: f.Selection}, nil
	case TypeVoiceAnnotation:
		return VoiceAnnotation{AudioURL: f.AudioURL, Position: f.Position}, nil
	}

	if isPresence(f.Type) {
		return PresenceSignal{
			Kind:         f.Type,
			AudioConfig:  f.AudioConfig,
			ScreenConfig: f.ScreenConfig,
			GlobalAccess: f.GlobalAccess,
			Permissions:  f.Permissions,
		}, nil
	}
	return Unknown{Kind: f.Type}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func errorFrame(e *ProtocolError) models.ServerFrame {
	return models.ServerFrame{Type: TypeError, Reason: e.Reason, Message: e.Message}
}
