package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
)

type TableHandler struct {
	rooms *room.RoomManager
}

func NewTableHandler(rooms *room.RoomManager) *TableHandler {
	return &TableHandler{rooms: rooms}
}

func (h *TableHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tables/:id", h.Get)
}

// Get returns the spectator view of a table. Hole cards are never included.
func (h *TableHandler) Get(c *gin.Context) {
	r, err := h.rooms.GetRoom(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}

	state, err := r.Snapshot(c.Request.Context(), "")
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, state)
}
