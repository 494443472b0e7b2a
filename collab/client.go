package collab

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/picshed/picshed/internal/slogging"
)

// readPump pumps frames from the websocket into the ingestion pipeline. One
// per session; runs until the transport errors or closes. The deferred
// disconnect event uses SubmitWait so cleanup is never lost to backpressure.
func (s *Session) readPump(h *Hub) {
	defer func() {
		h.pipeline.SubmitWait(&EditEvent{Kind: EventDisconnect, Session: s})
		s.close()
	}()

	s.conn.SetReadLimit(h.cfg.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slogging.Get().Warn("WebSocket read error - session: %s: %v", s.ID, err)
			}
			return
		}

		var msg RequestMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slogging.Get().Warn("Discarding malformed frame - session: %s, user: %d: %v",
				s.ID, s.User.ID, err)
			continue
		}

		h.pipeline.Submit(&EditEvent{Kind: EventMessage, Msg: msg, Session: s})
	}
}

// writePump drains the session's send channel to the websocket and keeps the
// connection alive with periodic pings. One per session; a write error ends
// the session via the read pump's deadline.
func (s *Session) writePump(h *Hub) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
