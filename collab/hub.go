package collab

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/picshed/picshed/internal/config"
	"github.com/picshed/picshed/internal/slogging"
)

// Error is the JSON error body returned when a handshake is refused
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub owns all coordination state for collaborative picture editing: the
// session registry, the edit-lock table and the ingestion pipeline. One hub
// is constructed at process start and shared by every connection.
type Hub struct {
	cfg      config.WebSocketConfig
	gate     *Gate
	registry *Registry
	locks    *LockTable
	pipeline *Pipeline
	metrics  *Metrics
	handlers map[string]handlerFunc
}

// NewHub creates a hub and starts its pipeline workers
func NewHub(cfg config.WebSocketConfig, gate *Gate, metrics *Metrics) *Hub {
	h := &Hub{
		cfg:      cfg,
		gate:     gate,
		registry: NewRegistry(),
		locks:    NewLockTable(),
		metrics:  metrics,
	}
	h.handlers = map[string]handlerFunc{
		MessageTypeEnterEdit:  h.handleEnterEdit,
		MessageTypeEditAction: h.handleEditAction,
		MessageTypeExitEdit:   h.handleExitEdit,
	}
	h.pipeline = NewPipeline(cfg.Workers, cfg.QueueCapacity, h.route, metrics)
	return h
}

// Close drains the pipeline and stops its workers
func (h *Hub) Close() {
	h.pipeline.Close()
}

// HandleWS authorizes and upgrades a connection attempt, then registers the
// session and announces the join. Route: GET /api/ws/picture/edit?pictureId=N
// with the bearer token in the Authorization header or ?token= (browser
// websocket clients cannot set headers).
func (h *Hub) HandleWS(c *gin.Context) {
	log := slogging.Get()

	token := bearerToken(c)
	user, pictureID, err := h.gate.Authorize(c.Request.Context(), token, c.Query("pictureId"))
	if err != nil {
		status, code := handshakeStatus(err)
		c.JSON(status, Error{Error: code, Message: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection for picture %d: %v", pictureID, err)
		return
	}

	session := newSession(user, pictureID, conn, h.cfg.SendBuffer)
	h.registry.Add(pictureID, session)
	h.metrics.ActiveSessions.Inc()
	log.Info("Session %s connected - user: %d, picture: %d", session.ID, user.ID, pictureID)

	h.broadcast(pictureID, &ResponseMessage{
		Type:    MessageTypeInfo,
		Message: fmt.Sprintf("User %s joined editing", user.Name),
		User:    user.View(),
	}, nil)

	go session.writePump(h)
	go session.readPump(h)
}

// bearerToken extracts the bearer token from the Authorization header or the
// token query parameter.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return c.Query("token")
}

// handshakeStatus maps a gate rejection to an HTTP refusal
func handshakeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingPictureID):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrPictureNotFound), errors.Is(err, ErrSpaceNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrSpaceNotEditable):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
