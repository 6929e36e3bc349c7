// Package notify pushes transaction events to connected admins over websockets.
package notify

import "github.com/goccy/go-json" // Frame encoding

// Event names carried on the admin channel
const (
	EventJoinAdmin          = "join-admin"
	EventJoined             = "joined"
	EventError              = "error"
	EventTransactionAdded   = "transaction-added"
	EventTransactionUpdated = "transaction-updated"
	EventTransactionDeleted = "transaction-deleted"
)

// Frame is one websocket message in either direction
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Token string          `json:"token,omitempty"` // Only sent by clients on join-admin
}

// encodeFrame marshals payload once so a broadcast can share the bytes across sessions
func encodeFrame(event string, payload any) ([]byte, error) {
	f := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		f.Data = data
	}
	return json.Marshal(f)
}

func decodeFrame(b []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(b, &f)
	return f, err
}
