package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var errRateLimited = models.NewGameError(models.CodeInvalidMessage, "too many messages")

type Client struct {
	PlayerID       string
	Profile        models.Profile
	IpAddress      string
	ConnectionTime time.Time

	conn    *websocket.Conn
	server  *Server
	limiter *rate.Limiter

	// mu guards everything below. Stamping seq and queueing happen under the same lock so
	// the wire order matches the seq order.
	mu         sync.Mutex
	send       chan []byte
	seq        uint64
	generation uint64
	closed     bool
	closeCode  int
	closeText  string
}

func (c *Client) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Client) setGeneration(generation uint64) {
	c.mu.Lock()
	c.generation = generation
	c.mu.Unlock()
}

// Send stamps the next seq and queues the message. A client whose buffer is full is
// disconnected rather than allowed to stall the sender.
func (c *Client) Send(msgType models.MessageType, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.seq++
	response := models.NewResponse(msgType, data)
	response.Seq = c.seq
	payload, err := json.Marshal(response)
	if err != nil {
		c.server.logger.Error("encoding message", zap.String("type", string(msgType)), zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		c.server.logger.Warn("send buffer full, dropping client", zap.String("player_id", c.PlayerID))
		c.closeLocked(websocket.CloseTryAgainLater, "too slow")
	}
}

// SendError reports err to this client only.
func (c *Client) SendError(err error) {
	gameErr := models.ToGameError(err)
	message := err.Error()
	if gameErr.Code == models.CodeInternal {
		c.server.logger.Error("handling message", zap.String("player_id", c.PlayerID), zap.Error(err))
		message = gameErr.Message
	}
	c.Send(models.MessageTypeError, models.ErrorMessage{Code: gameErr.Code, Message: message})
}

func (c *Client) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(code, text)
}

func (c *Client) closeLocked(code int, text string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeText = text
	close(c.send)
}

func (c *Client) readPump() {
	clean := false
	defer func() {
		c.server.unregister(c, clean)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	// Liveness is the heartbeat's job; drop any deadline left over from the handshake.
	c.conn.SetReadDeadline(time.Time{})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			clean = websocket.IsCloseError(err, websocket.CloseNormalClosure)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Info("read error", zap.String("player_id", c.PlayerID), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.SendError(errRateLimited)
			continue
		}

		if err := c.server.handler.HandleMessage(context.Background(), c, message); err != nil {
			c.SendError(err)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.server.logger.Info("error writing message", zap.String("player_id", c.PlayerID), zap.Error(err))
			return
		}
	}

	c.mu.Lock()
	code, text := c.closeCode, c.closeText
	c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}
