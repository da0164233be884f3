package session

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"codecollab/internal/models"
)

// Palette is the fixed set of display colors handed out at join time.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// ColorPicker chooses a color for a participant about to join. existing is
// the roster at the time of the join.
type ColorPicker func(existing []models.Participant) string

// RandomColor picks any palette entry; two participants may share a color.
func RandomColor(_ []models.Participant) string {
	return Palette[rand.Intn(len(Palette))]
}

// DistinctColor returns the first palette entry no active participant uses,
// falling back to RandomColor once the palette is exhausted.
func DistinctColor(existing []models.Participant) string {
	used := make(map[string]bool, len(existing))
	for _, p := range existing {
		if p.IsActive {
			used[p.Color] = true
		}
	}
	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}
	return RandomColor(existing)
}

// Join appends a new active participant to s and returns a copy of it.
func Join(s *models.CollaborationSession, name string, pick ColorPicker, now time.Time) models.Participant {
	if pick == nil {
		pick = RandomColor
	}
	p := models.Participant{
		ID:       uuid.NewString(),
		Name:     name,
		Color:    pick(s.Participants),
		Cursor:   models.Position{Line: 1, Column: 0},
		IsActive: true,
		JoinedAt: now,
		LastSeen: now,
	}
	s.Participants = append(s.Participants, p)
	s.LastActivity = now
	return p
}

// FindParticipant returns the index of participantID in s, or -1.
func FindParticipant(s *models.CollaborationSession, participantID string) int {
	for i := range s.Participants {
		if s.Participants[i].ID == participantID {
			return i
		}
	}
	return -1
}

// UpdatePresence records a cursor and selection. Unknown ids are ignored and
// reported as false.
func UpdatePresence(s *models.CollaborationSession, participantID string, cursor models.Position, sel *models.Selection, now time.Time) bool {
	i := FindParticipant(s, participantID)
	if i < 0 {
		return false
	}
	p := &s.Participants[i]
	p.Cursor = cursor
	if sel != nil {
		cp := *sel
		p.Selection = &cp
	} else {
		p.Selection = nil
	}
	p.LastSeen = now
	s.LastActivity = now
	return true
}

// Deactivate marks the participant inactive but keeps the record.
func Deactivate(s *models.CollaborationSession, participantID string, now time.Time) bool {
	i := FindParticipant(s, participantID)
	if i < 0 || !s.Participants[i].IsActive {
		return false
	}
	s.Participants[i].IsActive = false
	s.Participants[i].LastSeen = now
	s.LastActivity = now
	return true
}
