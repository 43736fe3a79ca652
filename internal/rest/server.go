package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/lobby"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/rest/handlers"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/rest/middleware"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/session"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/websocket"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(rooms *room.RoomManager, lobbies *lobby.Manager, supervisor *session.Supervisor, ws *websocket.Server) *Server {
	server := &Server{
		router: gin.New(),
	}

	server.router.Use(gin.Recovery())
	server.router.Use(middleware.RequestLogger())
	server.router.Use(middleware.ErrorMiddleware())
	server.router.Use(middleware.RateLimit(100, 200)) // 100 requests per second with burst of 200

	healthHandler := handlers.NewHealthHandler(rooms, handlers.CounterFunc(ws.ClientCount))
	lobbyHandler := handlers.NewLobbyHandler(lobbies)
	tableHandler := handlers.NewTableHandler(rooms)
	playerHandler := handlers.NewPlayerHandler(supervisor)
	authMiddleware := middleware.AuthMiddleware()

	healthHandler.RegisterRoutes(server.router.Group(""))
	server.router.GET("/ws", gin.WrapF(ws.HandleWebSocket))

	v1 := server.router.Group("/api/v1")
	{
		lobbyHandler.RegisterRoutes(v1)
		tableHandler.RegisterRoutes(v1)
		playerHandler.RegisterRoutes(v1, authMiddleware)
	}

	return server
}

// Start blocks serving addr. The write timeout is left unset so websocket connections
// are not cut after a fixed time.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
