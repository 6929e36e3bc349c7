package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBadToken = errors.New("bad token")

func stubAuthorizer(_ context.Context, token string) (uint, error) {
	if token == "good" {
		return 7, nil
	}
	return 0, errBadToken
}

// drain returns every frame currently queued for s
func drain(t *testing.T, s *Session) []Frame {
	t.Helper()
	var out []Frame
	for {
		select {
		case msg, ok := <-s.Outbound():
			if !ok {
				return out
			}
			f, err := decodeFrame(msg)
			require.NoError(t, err)
			out = append(out, f)
		default:
			return out
		}
	}
}

func events(frames []Frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Event
	}
	return out
}

func TestJoinLifecycle(t *testing.T) {
	h := NewHub(stubAuthorizer, []string{"*"})
	s := h.Connect()
	assert.Equal(t, StateConnecting, h.State(s))

	err := h.Join(context.Background(), s, "nope")
	assert.ErrorIs(t, err, errBadToken)
	assert.Equal(t, StateConnecting, h.State(s))
	assert.Equal(t, []string{EventError}, events(drain(t, s)))

	require.NoError(t, h.Join(context.Background(), s, "good"))
	assert.Equal(t, StateJoined, h.State(s))
	assert.Equal(t, []string{EventJoined}, events(drain(t, s)))
	assert.Equal(t, Stats{Connected: 1, Joined: 1}, h.Stats())

	h.Leave(s)
	h.Leave(s)
	assert.Equal(t, StateDisconnected, h.State(s))
	assert.Equal(t, Stats{}, h.Stats())
	assert.ErrorIs(t, h.Join(context.Background(), s, "good"), ErrSessionClosed)
}

func TestBroadcastReachesOnlyJoinedSessions(t *testing.T) {
	h := NewHub(stubAuthorizer, nil)
	joined := []*Session{h.Connect(), h.Connect(), h.Connect()}
	for _, s := range joined {
		require.NoError(t, h.Join(context.Background(), s, "good"))
		drain(t, s)
	}
	waiting := h.Connect()
	gone := h.Connect()
	require.NoError(t, h.Join(context.Background(), gone, "good"))
	h.Leave(gone)

	n, err := h.Broadcast(EventTransactionAdded, map[string]any{"transaction": map[string]int{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, s := range joined {
		frames := drain(t, s)
		require.Len(t, frames, 1)
		assert.Equal(t, EventTransactionAdded, frames[0].Event)
		var data struct {
			Transaction struct {
				ID int `json:"id"`
			} `json:"transaction"`
		}
		require.NoError(t, json.Unmarshal(frames[0].Data, &data))
		assert.Equal(t, 1, data.Transaction.ID)
	}
	assert.Empty(t, drain(t, waiting))
}

func TestBroadcastKeepsCallOrder(t *testing.T) {
	h := NewHub(stubAuthorizer, nil)
	s := h.Connect()
	require.NoError(t, h.Join(context.Background(), s, "good"))
	drain(t, s)

	for _, ev := range []string{EventTransactionAdded, EventTransactionUpdated, EventTransactionDeleted} {
		_, err := h.Broadcast(ev, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{EventTransactionAdded, EventTransactionUpdated, EventTransactionDeleted}, events(drain(t, s)))
}

func TestSlowSessionIsDropped(t *testing.T) {
	h := NewHub(stubAuthorizer, nil)
	slow := h.Connect()
	fast := h.Connect()
	require.NoError(t, h.Join(context.Background(), slow, "good"))
	require.NoError(t, h.Join(context.Background(), fast, "good"))

	// the joined ack takes one slot, so the last broadcast overflows slow's queue
	for i := 0; i < sendQueueSize; i++ {
		drain(t, fast)
		_, err := h.Broadcast(EventTransactionAdded, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, StateDisconnected, h.State(slow))
	assert.Equal(t, StateJoined, h.State(fast))
	assert.Len(t, drain(t, slow), sendQueueSize, "the ack and every broadcast that fit stay readable")
	assert.Equal(t, Stats{Connected: 1, Joined: 1}, h.Stats())
}

func TestSweepIdle(t *testing.T) {
	h := NewHub(stubAuthorizer, nil)
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return start }
	idle := h.Connect()
	joined := h.Connect()
	require.NoError(t, h.Join(context.Background(), joined, "good"))

	h.now = func() time.Time { return start.Add(10 * time.Second) }
	fresh := h.Connect()

	h.now = func() time.Time { return start.Add(31 * time.Second) }
	assert.Equal(t, 1, h.SweepIdle(30*time.Second))
	assert.Equal(t, StateDisconnected, h.State(idle))
	assert.Equal(t, StateJoined, h.State(joined))
	assert.Equal(t, StateConnecting, h.State(fresh))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "joined", StateJoined.String())
	assert.Equal(t, "disconnected", StateDisconnected.String())
}

func TestCloseDisconnectsEverySession(t *testing.T) {
	h := NewHub(stubAuthorizer, nil)
	a := h.Connect()
	b := h.Connect()
	require.NoError(t, h.Join(context.Background(), b, "good"))
	h.Close()
	assert.Equal(t, Stats{}, h.Stats())
	assert.Equal(t, StateDisconnected, h.State(a))
	assert.Equal(t, StateDisconnected, h.State(b))
}
