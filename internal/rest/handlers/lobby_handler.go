package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/lobby"
)

type LobbyHandler struct {
	lobbies *lobby.Manager
}

func NewLobbyHandler(lobbies *lobby.Manager) *LobbyHandler {
	return &LobbyHandler{lobbies: lobbies}
}

func (h *LobbyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/lobbies", h.List)
}

// List returns lobbies still gathering players followed by waiting tables with free seats.
func (h *LobbyHandler) List(c *gin.Context) {
	Ok(c, h.lobbies.ListAvailableLobbies(c.Request.Context()))
}
