package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecollab/internal/metrics"
	"codecollab/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Hub is the in-memory session store. Sessions live for the life of the
// process unless EvictIdle is scheduled.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	log    *zap.Logger
	colors ColorPicker
	now    func() time.Time
}

func NewHub(log *zap.Logger, colors ColorPicker) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if colors == nil {
		colors = RandomColor
	}
	return &Hub{
		rooms:  make(map[string]*Room),
		log:    log,
		colors: colors,
		now:    time.Now,
	}
}

// CreateSession allocates a session with a fresh id and its first participant.
func (h *Hub) CreateSession(name, language, code, creatorName string) (*Room, models.Participant) {
	now := h.now()
	state := models.CollaborationSession{
		ID:           uuid.NewString(),
		Name:         name,
		Language:     language,
		Code:         code,
		Participants: []models.Participant{},
		CreatedAt:    now,
		LastActivity: now,
	}
	creator := Join(&state, creatorName, h.colors, now)
	room := newRoom(state, h.log)

	h.mu.Lock()
	h.rooms[state.ID] = room
	count := len(h.rooms)
	h.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	h.log.Info("session created",
		zap.String("session_id", state.ID),
		zap.String("name", name),
		zap.String("language", language),
		zap.String("participant_id", creator.ID))
	return room, creator
}

func (h *Hub) Get(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

func (h *Hub) Exists(id string) bool {
	_, ok := h.Get(id)
	return ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) snapshotRooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

// List returns a copy of every session, oldest first.
func (h *Hub) List() []models.CollaborationSession {
	rooms := h.snapshotRooms()
	out := make([]models.CollaborationSession, 0, len(rooms))
	for _, r := range rooms {
		s, err := r.Snapshot()
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Session returns a copy of one session.
func (h *Hub) Session(id string) (models.CollaborationSession, error) {
	r, ok := h.Get(id)
	if !ok {
		return models.CollaborationSession{}, ErrSessionNotFound
	}
	s, err := r.Snapshot()
	if errors.Is(err, ErrRoomClosed) {
		return models.CollaborationSession{}, ErrSessionNotFound
	}
	return s, err
}

// EvictIdle removes sessions with no active participant whose last activity
// is older than ttl. It returns the evicted ids.
func (h *Hub) EvictIdle(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}
	cutoff := h.now().Add(-ttl)
	var evicted []string
	for _, r := range h.snapshotRooms() {
		room := r
		// The staleness check and the removal run on the room goroutine so a
		// join queued behind this operation finds the room closed.
		_ = room.Do(func(s *models.CollaborationSession) {
			if s.ActiveCount() > 0 || !s.LastActivity.Before(cutoff) {
				return
			}
			h.mu.Lock()
			if cur, ok := h.rooms[room.ID]; ok && cur == room {
				delete(h.rooms, room.ID)
				evicted = append(evicted, room.ID)
			}
			h.mu.Unlock()
			room.stop()
		})
		room.waitIfStopped()
	}
	if len(evicted) == 0 {
		return nil
	}
	metrics.ActiveSessions.Set(float64(h.Count()))
	h.log.Info("evicted idle sessions", zap.Strings("session_ids", evicted), zap.Duration("ttl", ttl))
	return evicted
}

// Shutdown stops every room goroutine.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()
	for _, r := range rooms {
		r.Close()
	}
	metrics.ActiveSessions.Set(0)
}
