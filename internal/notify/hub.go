package notify

import (
	"context" // Join authorization
	"errors"  // Sentinel errors
	"sync"    // Session set guard
	"time"    // Join deadlines

	"github.com/google/uuid"     // Session ids
	"github.com/sirupsen/logrus" // Logging
)

// sendQueueSize bounds how far a slow admin may lag before it is dropped
const sendQueueSize = 64

// ErrSessionClosed is returned when joining a session that already left
var ErrSessionClosed = errors.New("session closed")

// Authorizer resolves a join token to an active admin id
type Authorizer func(ctx context.Context, token string) (uint, error)

// State is the lifecycle position of a session
type State int

const (
	StateConnecting State = iota
	StateJoined
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Session is one admin connection. Its fields are guarded by the owning hub's lock.
type Session struct {
	ID          string
	state       State
	adminID     uint
	connectedAt time.Time
	send        chan []byte
}

// Outbound delivers the frames queued for the session; it is closed when the session leaves
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// Stats counts live sessions
type Stats struct {
	Connected int `json:"connected"` // Every open session, joined or not
	Joined    int `json:"joined"`
}

// Hub tracks admin sessions and fans events out to the joined ones
type Hub struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	authorize Authorizer
	origins   []string
	now       func() time.Time
}

// NewHub returns a Hub that admits sessions whose join token passes authorize.
// origins lists the accepted websocket Origin headers, "*" accepts any.
func NewHub(authorize Authorizer, origins []string) *Hub {
	return &Hub{
		sessions:  map[string]*Session{},
		authorize: authorize,
		origins:   origins,
		now:       time.Now,
	}
}

// Connect registers a new session in the Connecting state
func (h *Hub) Connect() *Session {
	s := &Session{
		ID:          uuid.NewString(),
		state:       StateConnecting,
		connectedAt: h.now(),
		send:        make(chan []byte, sendQueueSize),
	}
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	logrus.WithField("session_id", s.ID).Debug("admin socket connected")
	return s
}

// Join authorizes token and moves s to Joined. A rejected token leaves s Connecting
// and queues an error frame.
func (h *Hub) Join(ctx context.Context, s *Session, token string) error {
	adminID, authErr := h.authorize(ctx, token)

	h.mu.Lock()
	defer h.mu.Unlock()
	if s.state == StateDisconnected {
		return ErrSessionClosed
	}
	if authErr != nil {
		h.enqueueLocked(s, mustFrame(EventError, map[string]string{"message": "Invalid or inactive admin token"}))
		logrus.WithFields(logrus.Fields{"session_id": s.ID, "error": authErr}).Warn("admin join rejected")
		return authErr
	}
	s.state = StateJoined
	s.adminID = adminID
	h.enqueueLocked(s, mustFrame(EventJoined, nil))
	logrus.WithFields(logrus.Fields{"session_id": s.ID, "admin_id": adminID}).Info("admin joined")
	return nil
}

// Leave removes s and closes its outbound queue. Repeated calls are no-ops.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s)
}

func (h *Hub) leaveLocked(s *Session) {
	if s.state == StateDisconnected {
		return
	}
	s.state = StateDisconnected
	delete(h.sessions, s.ID)
	close(s.send)
	logrus.WithFields(logrus.Fields{"session_id": s.ID, "admin_id": s.adminID}).Debug("admin socket left")
}

// enqueueLocked queues msg without blocking; a full queue drops the session.
// It must run with the write lock held.
func (h *Hub) enqueueLocked(s *Session, msg []byte) {
	select {
	case s.send <- msg:
	default:
		h.leaveLocked(s)
	}
}

// Broadcast sends event to every joined session and returns how many received it.
// Sessions whose queue is full are disconnected.
func (h *Hub) Broadcast(event string, payload any) (int, error) {
	msg, err := encodeFrame(event, payload)
	if err != nil {
		return 0, err
	}

	var slow []*Session
	delivered := 0
	h.mu.RLock()
	for _, s := range h.sessions {
		if s.state != StateJoined {
			continue
		}
		select {
		case s.send <- msg:
			delivered++
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, s := range slow {
			h.leaveLocked(s)
		}
		h.mu.Unlock()
		logrus.WithFields(logrus.Fields{"event": event, "dropped": len(slow)}).Warn("dropped slow admin sessions")
	}
	logrus.WithFields(logrus.Fields{"event": event, "delivered": delivered}).Debug("broadcast")
	return delivered, nil
}

// SweepIdle disconnects sessions that have not joined within maxAge and returns how many
func (h *Hub) SweepIdle(maxAge time.Duration) int {
	cutoff := h.now().Add(-maxAge)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.sessions {
		if s.state == StateConnecting && s.connectedAt.Before(cutoff) {
			h.leaveLocked(s)
			n++
		}
	}
	return n
}

// Close disconnects every session
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		h.leaveLocked(s)
	}
}

// Stats reports the current session counts
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := Stats{Connected: len(h.sessions)}
	for _, s := range h.sessions {
		if s.state == StateJoined {
			st.Joined++
		}
	}
	return st
}

// State returns the session's current state
func (h *Hub) State(s *Session) State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return s.state
}

// mustFrame encodes hub control frames whose payloads always marshal
func mustFrame(event string, payload any) []byte {
	b, err := encodeFrame(event, payload)
	if err != nil {
		panic(err)
	}
	return b
}
