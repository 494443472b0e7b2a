package collab

import (
	"fmt"

	"github.com/picshed/picshed/internal/slogging"
)

// handlerFunc processes one edit event on a pipeline worker
type handlerFunc func(*EditEvent)

// route dispatches a pipeline event to its handler. Unknown message types
// are logged and dropped; the connection stays open.
func (h *Hub) route(event *EditEvent) {
	if event.Kind == EventDisconnect {
		h.handleDisconnect(event)
		return
	}

	handler, ok := h.handlers[event.Msg.Type]
	if !ok {
		slogging.Get().Warn("Unsupported message type %q - session: %s, user: %d",
			event.Msg.Type, event.Session.ID, event.Session.User.ID)
		return
	}
	handler(event)
}

// handleEnterEdit lets the sender start editing iff nobody holds the
// picture's lock. A losing attempt is silently ignored: clients learn the
// editing state from broadcasts, not from denials.
func (h *Hub) handleEnterEdit(event *EditEvent) {
	s := event.Session
	if !h.locks.TryAcquire(s.PictureID, s.User.ID) {
		slogging.Get().Debug("Ignoring enterEdit while picture %d is locked - user: %d",
			s.PictureID, s.User.ID)
		return
	}

	h.broadcast(s.PictureID, &ResponseMessage{
		Type:    MessageTypeEnterEdit,
		Message: fmt.Sprintf("User %s started editing the picture", s.User.Name),
		User:    s.User.View(),
	}, nil)
}

// handleEditAction relays an edit action to everyone but the sender. Valid
// only when the sender holds the lock and the action tag is recognized; the
// sender already applied the action locally, so echoing it back would double
// the edit.
func (h *Hub) handleEditAction(event *EditEvent) {
	s := event.Session
	log := slogging.Get()

	actionText, ok := EditActionText(event.Msg.EditAction)
	if !ok {
		log.Error("Invalid edit action %q - session: %s, user: %d",
			event.Msg.EditAction, s.ID, s.User.ID)
		return
	}

	holder, held := h.locks.Holder(s.PictureID)
	if !held || holder != s.User.ID {
		log.Debug("Ignoring editAction from non-holder - picture: %d, user: %d", s.PictureID, s.User.ID)
		return
	}

	h.broadcast(s.PictureID, &ResponseMessage{
		Type:       MessageTypeEditAction,
		Message:    fmt.Sprintf("User %s performed %s", s.User.Name, actionText),
		User:       s.User.View(),
		EditAction: event.Msg.EditAction,
	}, s)
}

// handleExitEdit releases the lock iff the sender holds it
func (h *Hub) handleExitEdit(event *EditEvent) {
	s := event.Session
	if !h.locks.Release(s.PictureID, s.User.ID) {
		return
	}

	h.broadcast(s.PictureID, &ResponseMessage{
		Type:    MessageTypeExitEdit,
		Message: fmt.Sprintf("User %s stopped editing the picture", s.User.Name),
		User:    s.User.View(),
	}, nil)
}

// handleDisconnect runs the implicit exit-edit for a dropped connection,
// removes the session and announces the departure. Raised exactly once per
// session by the read pump; a session no longer in the registry is a no-op,
// which makes duplicate invocations safe.
func (h *Hub) handleDisconnect(event *EditEvent) {
	s := event.Session

	// The lock must never outlive its holder's connection
	h.handleExitEdit(event)

	if !h.registry.Remove(s.PictureID, s) {
		return
	}
	h.metrics.ActiveSessions.Dec()
	slogging.Get().Info("Session %s disconnected - user: %d, picture: %d", s.ID, s.User.ID, s.PictureID)

	h.broadcast(s.PictureID, &ResponseMessage{
		Type:    MessageTypeInfo,
		Message: fmt.Sprintf("User %s left editing", s.User.Name),
		User:    s.User.View(),
	}, nil)
}
