package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/rest/middleware"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/session"
)

type PlayerHandler struct {
	supervisor *session.Supervisor
}

func NewPlayerHandler(supervisor *session.Supervisor) *PlayerHandler {
	return &PlayerHandler{supervisor: supervisor}
}

func (h *PlayerHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	players := router.Group("/players", authMiddleware)
	{
		players.GET("/me/presence", h.Presence)
	}
}

func (h *PlayerHandler) Presence(c *gin.Context) {
	presence, err := h.supervisor.Presence(c.Request.Context(), c.GetString(middleware.PlayerIDKey))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, presence)
}
