package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Session lifecycle event types.
const (
	SessionCreated    = "session_created"
	SessionEvicted    = "session_evicted"
	ParticipantJoined = "participant_joined"
	ParticipantLeft   = "participant_left"
	CodeChanged       = "code_changed"
)

// Event is what other instances and dashboards see of the hub. It carries
// ids only, never document text.
type Event struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId,omitempty"`
	InstanceID    string    `json:"instanceId"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher fans lifecycle events out. Publish must not block the caller.
type Publisher interface {
	Publish(e Event)
	Close() error
}

// NopPublisher discards everything. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
func (NopPublisher) Close() error { return nil }

const defaultQueueSize = 256

// RedisPublisher publishes events as JSON on a Redis pub/sub channel from a
// background goroutine.
type RedisPublisher struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	log        *zap.Logger

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

func NewRedisPublisher(rdb *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &RedisPublisher{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString(),
		log:        log,
		queue:      make(chan Event, defaultQueueSize),
		done:       make(chan struct{}),
	}
	go p.loop()
	log.Info("redis event publisher started",
		zap.String("channel", channel),
		zap.String("instance_id", p.instanceID))
	return p
}

func (p *RedisPublisher) InstanceID() string {
	return p.instanceID
}

// Publish stamps e and queues it. When the queue is full the event is
// dropped and logged.
func (p *RedisPublisher) Publish(e Event) {
	e.InstanceID = p.instanceID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	defer func() {
		// publishing after Close
		if recover() != nil {
			p.log.Debug("event dropped after close", zap.String("type", e.Type))
		}
	}()
	select {
	case p.queue <- e:
	default:
		p.log.Warn("event queue full, dropping event",
			zap.String("type", e.Type),
			zap.String("session_id", e.SessionID))
	}
}

func (p *RedisPublisher) loop() {
	defer close(p.done)
	for e := range p.queue {
		if err := p.send(e); err != nil {
			p.log.Warn("failed to publish event", zap.Error(err), zap.String("type", e.Type))
		}
	}
}

func (p *RedisPublisher) send(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// Close flushes queued events and stops the publisher. It does not close the
// Redis client.
func (p *RedisPublisher) Close() error {
	p.once.Do(func() { close(p.queue) })
	<-p.done
	return nil
}
