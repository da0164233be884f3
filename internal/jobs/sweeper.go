package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"codecollab/internal/events"
	"codecollab/internal/session"
)

// SweeperConfig controls idle session eviction.
type SweeperConfig struct {
	Schedule string        // cron spec, e.g. "@every 5m"
	IdleTTL  time.Duration // zero disables the sweeper
}

// SessionSweeper periodically evicts sessions nobody is connected to.
type SessionSweeper struct {
	hub       *session.Hub
	publisher events.Publisher
	config    SweeperConfig
	cron      *cron.Cron
	log       *zap.Logger
}

func NewSessionSweeper(hub *session.Hub, publisher events.Publisher, config SweeperConfig, log *zap.Logger) *SessionSweeper {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SessionSweeper{
		hub:       hub,
		publisher: publisher,
		config:    config,
		cron:      cron.New(),
		log:       log,
	}
}

// Start schedules the sweep. With no idle TTL it does nothing and sessions
// live for the life of the process.
func (s *SessionSweeper) Start() error {
	if s.config.IdleTTL <= 0 {
		s.log.Info("session sweeper disabled, sessions are kept until shutdown")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.RunSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info("session sweeper started",
		zap.String("schedule", s.config.Schedule),
		zap.Duration("idle_ttl", s.config.IdleTTL))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunSweep performs a single eviction pass and returns the evicted ids.
func (s *SessionSweeper) RunSweep() []string {
	evicted := s.hub.EvictIdle(s.config.IdleTTL)
	for _, id := range evicted {
		s.publisher.Publish(events.Event{Type: events.SessionEvicted, SessionID: id})
	}
	return evicted
}
