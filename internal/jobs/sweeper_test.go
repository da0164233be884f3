package jobs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codecollab/internal/events"
	"codecollab/internal/models"
	"codecollab/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) list() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// abandon marks the creator gone and backdates the session.
func abandon(t *testing.T, room *session.Room, participantID string) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, room.Do(func(s *models.CollaborationSession) {
		session.Deactivate(s, participantID, past)
		s.LastActivity = past
	}))
}

func TestRunSweep_EvictsIdleSessions(t *testing.T) {
	hub := session.NewHub(zap.NewNop(), nil)
	t.Cleanup(hub.Shutdown)

	idle, creator := hub.CreateSession("Idle", "go", "", "Alice")
	abandon(t, idle, creator.ID)
	busy, _ := hub.CreateSession("Busy", "go", "", "Bob")

	pub := &recordingPublisher{}
	sweeper := NewSessionSweeper(hub, pub, SweeperConfig{Schedule: "@every 1m", IdleTTL: time.Minute}, zap.NewNop())

	evicted := sweeper.RunSweep()
	assert.Equal(t, []string{idle.ID}, evicted)
	assert.False(t, hub.Exists(idle.ID))
	assert.True(t, hub.Exists(busy.ID))

	got := pub.list()
	require.Len(t, got, 1)
	assert.Equal(t, events.SessionEvicted, got[0].Type)
	assert.Equal(t, idle.ID, got[0].SessionID)
}

func TestStart_DisabledWithoutTTL(t *testing.T) {
	hub := session.NewHub(zap.NewNop(), nil)
	t.Cleanup(hub.Shutdown)

	room, creator := hub.CreateSession("Kept", "go", "", "Alice")
	abandon(t, room, creator.ID)

	sweeper := NewSessionSweeper(hub, nil, SweeperConfig{Schedule: "@every 1s"}, zap.NewNop())
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Empty(t, sweeper.RunSweep())
	assert.True(t, hub.Exists(room.ID))
}

func TestStart_InvalidSchedule(t *testing.T) {
	hub := session.NewHub(zap.NewNop(), nil)
	t.Cleanup(hub.Shutdown)

	sweeper := NewSessionSweeper(hub, nil, SweeperConfig{Schedule: "not a schedule", IdleTTL: time.Minute}, zap.NewNop())
	assert.Error(t, sweeper.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	hub := session.NewHub(zap.NewNop(), nil)
	t.Cleanup(hub.Shutdown)

	room, creator := hub.CreateSession("Idle", "go", "", "Alice")
	abandon(t, room, creator.ID)

	sweeper := NewSessionSweeper(hub, nil, SweeperConfig{Schedule: "@every 1s", IdleTTL: time.Minute}, zap.NewNop())
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return !hub.Exists(room.ID) }, 3*time.Second, 50*time.Millisecond)
}
