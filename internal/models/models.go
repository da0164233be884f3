package models

import (
	"encoding/json"
	"time"
)

type ChangeType string

const (
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
	ChangeReplace ChangeType = "replace"
)

func (t ChangeType) Valid() bool {
	switch t {
	case ChangeInsert, ChangeDelete, ChangeReplace:
		return true
	}
	return false
}

// Position is a 1-based line and a 0-based character column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Selection struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

/*** Collaboration session state ***/
type Participant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Cursor    Position   `json:"cursor"`
	Selection *Selection `json:"selection"`
	IsActive  bool       `json:"isActive"`
	JoinedAt  time.Time  `json:"joinedAt"`
	LastSeen  time.Time  `json:"lastSeen"`
}

type CollaborationSession struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Language     string        `json:"language"`
	Code         string        `json:"code"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActivity time.Time     `json:"lastActivity"`
}

// Clone returns a deep copy that is safe to hand outside the owning room.
func (s *CollaborationSession) Clone() CollaborationSession {
	out := *s
	out.Participants = make([]Participant, len(s.Participants))
	for i, p := range s.Participants {
		if p.Selection != nil {
			sel := *p.Selection
			p.Selection = &sel
		}
		out.Participants[i] = p
	}
	return out
}

// ActiveCount reports how many participants are currently connected.
func (s *CollaborationSession) ActiveCount() int {
	n := 0
	for _, p := range s.Participants {
		if p.IsActive {
			n++
		}
	}
	return n
}

type CodeChange struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"sessionId"`
	ParticipantID string     `json:"participantId"`
	Type          ChangeType `json:"type"`
	Position      Position   `json:"position"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
}

/*** Wire frames ***/

// ClientFrame is the flat JSON object a browser sends over the socket.
// The type field selects which of the remaining fields are meaningful.
type ClientFrame struct {
	Type            string          `json:"type"`
	SessionID       string          `json:"sessionId,omitempty"`
	ParticipantName string          `json:"participantName,omitempty"`
	SessionName     string          `json:"sessionName,omitempty"`
	Language        string          `json:"language,omitempty"`
	Code            string          `json:"code,omitempty"`
	Position        *Position       `json:"position,omitempty"`
	Content         string          `json:"content,omitempty"`
	ChangeType      ChangeType      `json:"changeType,omitempty"`
	Cursor          *Position       `json:"cursor,omitempty"`
	Selection       *Selection      `json:"selection,omitempty"`
	AudioURL        string          `json:"audioUrl,omitempty"`
	AudioConfig     json.RawMessage `json:"audioConfig,omitempty"`
	ScreenConfig    json.RawMessage `json:"screenConfig,omitempty"`
	GlobalAccess    *bool           `json:"globalAccess,omitempty"`
	Permissions     json.RawMessage `json:"permissions,omitempty"`
	Timestamp       json.RawMessage `json:"timestamp,omitempty"`
}

// ServerFrame is everything the hub sends back. Only the fields relevant to
// Type are populated.
type ServerFrame struct {
	Type            string                `json:"type"`
	Session         *CollaborationSession `json:"session,omitempty"`
	Participant     *Participant          `json:"participant,omitempty"`
	ParticipantID   string                `json:"participantId,omitempty"`
	ParticipantName string                `json:"participantName,omitempty"`
	Code            *string               `json:"code,omitempty"`
	Change          *CodeChange           `json:"change,omitempty"`
	Cursor          *Position             `json:"cursor,omitempty"`
	Selection       *Selection            `json:"selection,omitempty"`
	Position        *Position             `json:"position,omitempty"`
	AudioURL        string                `json:"audioUrl,omitempty"`
	AudioConfig     json.RawMessage       `json:"audioConfig,omitempty"`
	ScreenConfig    json.RawMessage       `json:"screenConfig,omitempty"`
	GlobalAccess    *bool                 `json:"globalAccess,omitempty"`
	Permissions     json.RawMessage       `json:"permissions,omitempty"`
	Reason          string                `json:"reason,omitempty"`
	Message         string                `json:"message,omitempty"`
	Timestamp       *time.Time            `json:"timestamp,omitempty"`
}

// WebRTCConfig is served to clients before they start video/voice/screen sharing.
type WebRTCConfig struct {
	ICEServers []ICEServer `json:"iceServers"`
}

type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}
