package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/adapters/rpc"
	"github.com/dmaret/interp/internal/app"
	"github.com/dmaret/interp/internal/config"
	"github.com/dmaret/interp/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware assigns each connecting client a stable opaque
// token. The token is the client identity for the whole directory.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter wires the WS procedure channel and the operator REST API.
func SetupRouter(ctx context.Context, cfg *config.Config, ctl *rpc.Controller, engine *app.Engine) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("InterpSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/room", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws room endpoint hit")
		ctl.HandleRoom(ctx, c)
	})

	// Operator surface. Begin/end are accepted fire-and-forget: the
	// authoritative outcome shows up in the availability lists.
	api.POST("/interpretation", func(c *gin.Context) {
		var req bindRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room/booth"})
			return
		}
		engine.BeginInterpretation(domain.RoomID(req.Room), domain.BoothID(req.Booth))
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})

	api.DELETE("/interpretation", func(c *gin.Context) {
		var req bindRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid room/booth"})
			return
		}
		engine.EndInterpretation(domain.RoomID(req.Room), domain.BoothID(req.Booth))
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})

	api.GET("/rooms/available", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": engine.AvailableRoomIDs()})
	})

	api.GET("/booths/available", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"booths": engine.AvailableBoothIDs()})
	})

	api.GET("/booths", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"booths": engine.BoothIDs()})
	})

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type bindRequest struct {
	Room  int `json:"room" binding:"min=0"`
	Booth int `json:"booth" binding:"min=0"`
}
