package collab

import (
	"encoding/json"

	"github.com/picshed/picshed/internal/slogging"
)

// broadcast serializes the message once and delivers it to every session in
// the picture's set, except exclude when non-nil. A full or closed member
// never aborts the fan-out; the failure is counted, logged and the remaining
// members still get the message. No ordering is promised between members.
func (h *Hub) broadcast(pictureID int64, msg *ResponseMessage, exclude *Session) {
	sessions := h.registry.Snapshot(pictureID)
	if len(sessions) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slogging.Get().Error("Failed to marshal broadcast for picture %d: %v", pictureID, err)
		return
	}

	for _, s := range sessions {
		if s == exclude {
			continue
		}
		if !s.deliver(data) {
			h.metrics.BroadcastFailures.Inc()
			slogging.Get().Warn("Dropping broadcast to session %s - user: %d: send buffer full or closed",
				s.ID, s.User.ID)
		}
	}
}
