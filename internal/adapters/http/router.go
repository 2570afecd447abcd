package http

import (
	"context"
	"net/http"

	"github.com/dkeye/roomcoord/internal/adapters/rtc"
	"github.com/dkeye/roomcoord/internal/adapters/signal"
	"github.com/dkeye/roomcoord/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const sessionName = "RoomSessions"

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		Secure:   cfg.Mode == "release",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	h := &handlers{ctl: ctl, rtc: rtc.NewClientConfig(cfg.ICEServers)}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)
	api.GET("/rtc/config", h.rtcConfig)

	rooms := api.Group("/rooms", h.requireIdentity)
	rooms.POST("", h.createRoom)
	rooms.POST("/:id/join", h.joinRoom)
	rooms.GET("/:id/presence", h.presence)
	rooms.GET("/:id/screen", h.screen)
	rooms.GET("/:id/messages", h.messages)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
