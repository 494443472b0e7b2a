// Package collab implements the real-time collaborative picture-editing
// coordination subsystem: it authorizes websocket connections scoped to a
// single picture, arbitrates which connection may edit that picture, and fans
// edit events out to every other connection for the picture.
package collab

import "github.com/picshed/picshed/storage"

// Message types shared by requests and responses.
const (
	MessageTypeInfo       = "info"
	MessageTypeError      = "error"
	MessageTypeEnterEdit  = "enterEdit"
	MessageTypeEditAction = "editAction"
	MessageTypeExitEdit   = "exitEdit"
)

// RequestMessage is an inbound client frame.
type RequestMessage struct {
	Type       string `json:"type"`
	EditAction string `json:"editAction,omitempty"`
}

// ResponseMessage is an outbound broadcast frame. Never mutated after
// construction; serialized once per broadcast.
type ResponseMessage struct {
	Type       string            `json:"type"`
	Message    string            `json:"message,omitempty"`
	User       *storage.UserView `json:"user,omitempty"`
	EditAction string            `json:"editAction,omitempty"`
}

// editActionText maps recognized edit action tags to display text.
// Unrecognized tags are ignored by the edit-action handler.
var editActionText = map[string]string{
	"zoomIn":      "zoom in",
	"zoomOut":     "zoom out",
	"rotateLeft":  "rotate left",
	"rotateRight": "rotate right",
}

// EditActionText returns the display text for an action tag and whether the
// tag is recognized.
func EditActionText(action string) (string, bool) {
	text, ok := editActionText[action]
	return text, ok
}
