package notify

import (
	"context"  // Join authorization deadline
	"errors"   // Session close detection
	"net/http" // Upgrade requests
	"time"     // Keepalive deadlines

	"github.com/gorilla/websocket" // Websocket transport
	"github.com/sirupsen/logrus"   // Logging
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 4096
)

// upgrader returns a websocket upgrader honouring the hub's allowed origins
func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Non-browser clients
	}
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and runs the session until either side closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s := h.Connect()
	go h.writePump(conn, s)
	h.readPump(conn, s)
}

// readPump handles inbound frames; only join-admin is meaningful
func (h *Hub) readPump(conn *websocket.Conn, s *Session) {
	defer func() {
		h.Leave(s)
		conn.Close()
	}()
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("session_id", s.ID).Debug("admin socket read failed")
			}
			return
		}
		f, err := decodeFrame(msg)
		if err != nil {
			continue
		}
		if f.Event == EventJoinAdmin {
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := h.Join(ctx, s, f.Token)
			cancel()
			if errors.Is(err, ErrSessionClosed) {
				return
			}
		}
	}
}

// writePump drains the session queue and keeps the connection alive with pings
func (h *Hub) writePump(conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-s.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the session
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
