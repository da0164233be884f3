package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"codecollab/internal/models"
)

var ErrRoomClosed = errors.New("room closed")

// Room owns one collaboration session. Its state is only ever touched by the
// room's own goroutine, so every operation submitted through Do observes the
// effects of all operations submitted before it and none after.
type Room struct {
	ID   string
	log  *zap.Logger
	ops  chan func(*models.CollaborationSession)
	quit chan struct{}
	done chan struct{}
	once sync.Once

	state models.CollaborationSession
}

func newRoom(state models.CollaborationSession, log *zap.Logger) *Room {
	r := &Room{
		ID:    state.ID,
		log:   log.With(zap.String("session_id", state.ID)),
		ops:   make(chan func(*models.CollaborationSession)),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		state: state,
	}
	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		default:
		}
		select {
		case op := <-r.ops:
			r.exec(op)
		case <-r.quit:
			return
		}
	}
}

func (r *Room) exec(op func(*models.CollaborationSession)) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("room operation panicked", zap.Any("panic", v))
		}
	}()
	op(&r.state)
}

// Do runs fn on the room goroutine and waits for it to return. fn must not
// call Do on the same room.
func (r *Room) Do(fn func(s *models.CollaborationSession)) error {
	finished := make(chan struct{})
	op := func(s *models.CollaborationSession) {
		defer close(finished)
		fn(s)
	}
	select {
	case r.ops <- op:
	case <-r.quit:
		return ErrRoomClosed
	}
	<-finished
	return nil
}

// Snapshot returns a deep copy of the current session state.
func (r *Room) Snapshot() (models.CollaborationSession, error) {
	var out models.CollaborationSession
	err := r.Do(func(s *models.CollaborationSession) { out = s.Clone() })
	return out, err
}

// stop asks the room goroutine to exit after the current operation. It is
// safe to call from inside an operation.
func (r *Room) stop() {
	r.once.Do(func() { close(r.quit) })
}

// Close stops the room goroutine and waits for it. Pending and future Do
// calls fail with ErrRoomClosed.
func (r *Room) Close() {
	r.stop()
	<-r.done
}

func (r *Room) waitIfStopped() {
	select {
	case <-r.quit:
		<-r.done
	default:
	}
}
