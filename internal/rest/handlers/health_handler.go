package handlers

import (
	"github.com/gin-gonic/gin"
)

// Counter reports a gauge for the health check.
type Counter interface {
	Count() int
}

type CounterFunc func() int

func (f CounterFunc) Count() int { return f() }

type HealthHandler struct {
	tables      Counter
	connections Counter
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Tables      int    `json:"tables"`
	Connections int    `json:"connections"`
}

func NewHealthHandler(tables, connections Counter) *HealthHandler {
	return &HealthHandler{tables: tables, connections: connections}
}

func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Check)
}

func (h *HealthHandler) Check(c *gin.Context) {
	Ok(c, HealthResponse{
		Status:      "healthy",
		Tables:      h.tables.Count(),
		Connections: h.connections.Count(),
	})
}
