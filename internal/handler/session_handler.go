package handler

import (
	"regexp"

	"care-advisor-be/internal/dto"
	"care-advisor-be/internal/pkg/logger"
	"care-advisor-be/internal/pkg/serverutils"
	"care-advisor-be/internal/service"
	internalWS "care-advisor-be/internal/websocket"
	"care-advisor-be/pkg/profile"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type SessionHandler struct {
	hub         *internalWS.Hub
	profiles    *profile.Store
	snapshots   service.IProfileSnapshotService
	broadcaster *service.BroadcastService
	jwtSecret   string
	logger      logger.ILogger
}

func NewSessionHandler(
	hub *internalWS.Hub,
	profiles *profile.Store,
	snapshots service.IProfileSnapshotService,
	broadcaster *service.BroadcastService,
	jwtSecret string,
	log logger.ILogger,
) *SessionHandler {
	return &SessionHandler{
		hub:         hub,
		profiles:    profiles,
		snapshots:   snapshots,
		broadcaster: broadcaster,
		jwtSecret:   jwtSecret,
		logger:      log,
	}
}

// ServeWs upgrades the request and runs a session. The client may pick its
// session id with ?session_id=, otherwise one is generated.
func (h *SessionHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if !sessionIDPattern.MatchString(sessionID) {
		return fiber.NewError(fiber.StatusBadRequest, "session_id must be 1-128 letters, digits, '-' or '_'")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SessionHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("SessionHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *SessionHandler) GetSessions(c *fiber.Ctx) error {
	sessions := h.hub.Sessions()
	res := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, dto.SessionResponse{
			SessionId:   s.ID,
			Stage:       string(s.Stage),
			ConnectedAt: s.ConnectedAt,
		})
	}
	return c.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

// GetProfile serves the live profile of a connected session, or the last
// snapshot of one that has ended.
func (h *SessionHandler) GetProfile(c *fiber.Ctx) error {
	id := c.Params("id")

	if info, ok := h.hub.Session(id); ok {
		snap := h.profiles.Snapshot(id)
		return c.JSON(serverutils.SuccessResponse("Success get session profile", dto.SessionProfileResponse{
			SessionId: id,
			Stage:     string(info.Stage),
			Live:      true,
			Profile:   snap.Profile,
			History:   nonNilHistory(snap.History),
		}))
	}

	stored, err := h.snapshots.Latest(c.UserContext(), id)
	if err != nil {
		return err
	}
	if stored == nil {
		return fiber.NewError(fiber.StatusNotFound, "session not found: "+id)
	}
	return c.JSON(serverutils.SuccessResponse("Success get session profile", dto.SessionProfileResponse{
		SessionId: id,
		Stage:     stored.Stage,
		Live:      false,
		Profile:   stored.Profile,
		History:   nonNilHistory(stored.History),
	}))
}

func (h *SessionHandler) GetSnapshots(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	snaps, err := h.snapshots.Recent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	res := make([]dto.SessionProfileResponse, 0, len(snaps))
	for _, s := range snaps {
		res = append(res, dto.SessionProfileResponse{
			SessionId: s.SessionId,
			Stage:     s.Stage,
			Profile:   s.Profile,
			History:   nonNilHistory(s.History),
		})
	}
	return c.JSON(serverutils.SuccessResponse("Success get snapshots", res))
}

// Broadcast sends an operator notice to every connected session.
func (h *SessionHandler) Broadcast(c *fiber.Ctx) error {
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := h.broadcaster.Broadcast(c.UserContext(), req.Title, req.Message); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Broadcast queued", nil))
}

func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	sessions := router.Group("/sessions")
	sessions.Get("/", h.GetSessions)
	sessions.Get("/snapshots", serverutils.JwtMiddleware(h.jwtSecret), h.GetSnapshots)
	sessions.Get("/:id/profile", h.GetProfile)
	sessions.Post("/broadcast", serverutils.JwtMiddleware(h.jwtSecret), h.Broadcast)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}

func nonNilHistory(h []profile.Entry) []profile.Entry {
	if h == nil {
		return []profile.Entry{}
	}
	return h
}
