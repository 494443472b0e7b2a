package collab

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/picshed/picshed/storage"
)

// Session is one live websocket connection editing one picture. It carries
// exactly one identity and one picture id for its whole lifetime. The
// registry owns it from connect to disconnect; other components hold only
// borrowed references during fan-out.
type Session struct {
	ID        string
	User      *storage.User
	PictureID int64

	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newSession(user *storage.User, pictureID int64, conn *websocket.Conn, sendBuffer int) *Session {
	return &Session{
		ID:        uuid.New().String(),
		User:      user,
		PictureID: pictureID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

// close tears the transport down. Safe to call from any goroutine any number
// of times; only the first call has effect.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// deliver queues an outbound frame without blocking. Returns false when the
// session's buffer is full or the session is closed; the caller decides what
// to do about the failure.
func (s *Session) deliver(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}
