package http

import (
	"net/http"
	"time"

	"github.com/dkeye/roomcoord/internal/adapters/auth"
	"github.com/dkeye/roomcoord/internal/adapters/rtc"
	"github.com/dkeye/roomcoord/internal/adapters/signal"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

type handlers struct {
	ctl *signal.SignalWSController
	rtc rtc.ClientConfig
}

func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidPayload:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		msg = "Internal error"
	}
	c.AbortWithStatusJSON(statusOf(kind), gin.H{"status": "error", "message": msg, "code": kind})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.ctl.Orch.Registry.Count(),
	})
}

func (h *handlers) rtcConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.rtc)
}

// login verifies the credential and keeps it in the cookie session, so a
// browser can open the WebSocket without a header.
func (h *handlers) login(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&body)
	token := body.Token
	if token == "" {
		token = auth.TokenFromRequest(c)
	}
	identity, err := h.ctl.Gate.Authenticate(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}
	session := sessions.Default(c)
	session.Set(auth.SessionTokenKey, token)
	if err := session.Save(); err != nil {
		fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(identity.ID)).Msg("session stored")
	c.JSON(http.StatusOK, identity)
}

func (h *handlers) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(auth.SessionTokenKey)
	if err := session.Save(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) requireIdentity(c *gin.Context) {
	identity, err := h.ctl.Gate.Authenticate(c.Request.Context(), auth.TokenFromRequest(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityOf(c *gin.Context) domain.Identity {
	identity, _ := c.MustGet(identityKey).(domain.Identity)
	return identity
}

func (h *handlers) createRoom(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required,max=120"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, domain.NewError(domain.KindInvalidPayload, "Room name is required"))
		return
	}
	owner := identityOf(c).ID
	room, err := h.ctl.Orch.Rooms.Create(c.Request.Context(), body.Name, owner)
	if err != nil {
		fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(room.ID)).Str("user", string(owner)).Msg("room created")
	c.JSON(http.StatusCreated, room)
}

// joinRoom lists the caller as participant, the precondition of room:join.
func (h *handlers) joinRoom(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := domain.RoomID(c.Param("id"))
	user := identityOf(c).ID
	if err := h.ctl.Orch.Rooms.AddParticipant(ctx, roomID, user); err != nil {
		fail(c, err)
		return
	}
	room, err := h.ctl.Orch.Rooms.FindByID(ctx, roomID)
	if err != nil {
		fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(roomID)).Str("user", string(user)).Msg("room joined")
	c.JSON(http.StatusOK, room)
}

func (h *handlers) presence(c *gin.Context) {
	state, err := h.ctl.Orch.RoomPresence(c.Request.Context(), identityOf(c).ID, domain.RoomID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) screen(c *gin.Context) {
	state, err := h.ctl.Orch.RoomScreen(c.Request.Context(), identityOf(c).ID, domain.RoomID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// messages pages room history: ?limit= caps the page, ?before= takes an
// RFC 3339 timestamp.
func (h *handlers) messages(c *gin.Context) {
	var q struct {
		Limit  int       `form:"limit"`
		Before time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, domain.NewError(domain.KindInvalidPayload, "Invalid history query"))
		return
	}
	msgs, err := h.ctl.Orch.RoomHistory(c.Request.Context(), identityOf(c).ID, domain.RoomID(c.Param("id")), q.Limit, q.Before)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
