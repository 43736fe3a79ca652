package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/api"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/session"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Config struct {
	// MessageRate is the sustained number of inbound messages a client may send per second.
	MessageRate float64
}

// Server owns every live connection and delivers outbound messages to players.
type Server struct {
	clients map[string]*Client
	mu      sync.RWMutex

	handler    *MessageHandler
	supervisor *session.Supervisor
	profiles   api.ProfileProvider
	config     Config
	logger     *zap.Logger
}

func NewServer(config Config, profiles api.ProfileProvider) *Server {
	return &Server{
		clients:  make(map[string]*Client),
		profiles: profiles,
		config:   config,
		logger:   utils.Logger.Named("websocket"),
	}
}

// Attach wires the session layer in. It must be called before serving connections.
func (s *Server) Attach(supervisor *session.Supervisor, handler *MessageHandler) {
	s.supervisor = supervisor
	s.handler = handler
}

func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = utils.GetBearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJwTTokenWithClaims(token)
	if err != nil {
		s.logger.Info("rejected token", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		http.Error(w, models.ErrUnauthorized.Message, http.StatusUnauthorized)
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), token, claims)
	if err != nil {
		s.logger.Warn("resolving profile", zap.String("player_id", claims.PlayerID), zap.Error(err))
		http.Error(w, models.ErrUnauthorized.Message, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		PlayerID:       profile.PlayerID,
		Profile:        profile,
		IpAddress:      r.RemoteAddr,
		ConnectionTime: time.Now(),
		conn:           conn,
		server:         s,
		send:           make(chan []byte, sendBufferSize),
		limiter:        newLimiter(s.config.MessageRate),
	}

	previous := s.register(client)
	go client.writePump()

	generation, resumed := s.supervisor.Connect(context.Background(), profile)
	client.setGeneration(generation)
	if previous != nil {
		previous.closeWith(websocket.ClosePolicyViolation, "replaced by a new connection")
	}
	s.logger.Info("client connected",
		zap.String("player_id", client.PlayerID),
		zap.String("remote_addr", client.IpAddress),
		zap.Bool("resumed", resumed),
	)

	go client.readPump()
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// register makes client the player's live connection and returns the one it replaces.
// The caller closes the previous connection only after Connect has issued the new
// generation, so the old socket's disconnect is always stale.
func (s *Server) register(client *Client) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.clients[client.PlayerID]
	s.clients[client.PlayerID] = client
	return previous
}

func (s *Server) unregister(client *Client, clean bool) {
	s.mu.Lock()
	if s.clients[client.PlayerID] == client {
		delete(s.clients, client.PlayerID)
	}
	s.mu.Unlock()

	client.closeWith(websocket.CloseNormalClosure, "")
	s.supervisor.Disconnect(context.Background(), client.PlayerID, client.Generation(), clean)
	s.logger.Info("client disconnected", zap.String("player_id", client.PlayerID), zap.Bool("clean", clean))
}

// SendToPlayer queues a message for the player's live connection, if any.
func (s *Server) SendToPlayer(playerID string, msgType models.MessageType, data any) {
	s.mu.RLock()
	client, ok := s.clients[playerID]
	s.mu.RUnlock()

	if ok {
		client.Send(msgType, data)
	}
}

// Kick closes the player's connection after a missed heartbeat, unless it has already
// been replaced by a newer one.
func (s *Server) Kick(playerID string, generation uint64, reason error) {
	s.mu.RLock()
	client, ok := s.clients[playerID]
	s.mu.RUnlock()

	if !ok || client.Generation() != generation {
		return
	}
	client.SendError(reason)
	client.closeWith(websocket.CloseGoingAway, reason.Error())
}

// ClientCount returns the number of live connections.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
