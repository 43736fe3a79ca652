package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/cache"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

const (
	ReasonLeft    = "left"
	ReasonTimeout = "timeout"
)

// Tables is the table registry the supervisor drives timeouts and presence through.
type Tables interface {
	GetRoom(tableID string) (*room.Room, error)
	TableOf(playerID string) (string, bool)
}

type Lobbies interface {
	LeaveLobby(playerID string) error
}

// Kicker closes a player's socket after a missed heartbeat.
type Kicker interface {
	Kick(playerID string, generation uint64, reason error)
}

type Config struct {
	HeartbeatTimeout time.Duration
	ReconnectGrace   time.Duration
}

// Supervisor tracks liveness for every connected player and owns the heartbeat,
// reconnect-grace and turn deadlines. Its lock is never held while calling into a table.
type Supervisor struct {
	mu    sync.Mutex
	conns map[string]*connection
	turns map[string]*deadline
	gen   uint64

	tables   Tables
	lobbies  Lobbies
	kicker   Kicker
	presence cache.Cache[Presence]
	writes   chan presenceWrite
	config   Config
	logger   *zap.Logger
}

type connection struct {
	playerID   string
	profile    models.Profile
	generation uint64
	connected  bool
	heartbeat  *deadline
	grace      *deadline
}

func NewSupervisor(config Config, tables Tables, lobbies Lobbies, presence cache.Cache[Presence]) *Supervisor {
	if presence == nil {
		presence = cache.NewMemoryCache[Presence]()
	}
	return &Supervisor{
		conns:    make(map[string]*connection),
		turns:    make(map[string]*deadline),
		tables:   tables,
		lobbies:  lobbies,
		presence: presence,
		writes:   make(chan presenceWrite, 256),
		config:   config,
		logger:   utils.Logger.Named("session"),
	}
}

func (s *Supervisor) SetKicker(kicker Kicker) {
	s.kicker = kicker
}

// Connect registers a live socket for the player and returns its generation. A player
// coming back within the grace window is restored at their table and sent a full snapshot.
func (s *Supervisor) Connect(ctx context.Context, profile models.Profile) (uint64, bool) {
	playerID := profile.PlayerID

	s.mu.Lock()
	s.gen++
	c, exists := s.conns[playerID]
	if !exists {
		c = &connection{playerID: playerID, profile: profile}
		s.conns[playerID] = c
	}
	c.generation = s.gen
	c.connected = true
	c.grace.Cancel()
	c.grace = nil
	s.armHeartbeatLocked(c)
	generation := c.generation
	s.mu.Unlock()

	tableID, seated := s.tables.TableOf(playerID)
	s.writePresence(playerID, tableID, true)
	if !seated {
		return generation, false
	}

	r, err := s.tables.GetRoom(tableID)
	if err != nil {
		return generation, false
	}
	if err := r.SetConnected(ctx, playerID, true); err != nil {
		s.logger.Warn("restoring player", zap.String("player_id", playerID), zap.Error(err))
		return generation, false
	}
	if err := r.Sync(ctx, playerID); err != nil {
		s.logger.Warn("syncing player", zap.String("player_id", playerID), zap.Error(err))
	}

	s.logger.Info("player reconnected", zap.String("player_id", playerID), zap.String("table_id", tableID))
	return generation, true
}

// Heartbeat refreshes the player's liveness deadline. Repeating it changes nothing else.
func (s *Supervisor) Heartbeat(playerID string, generation uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[playerID]
	if !ok || c.generation != generation || !c.connected {
		return models.ErrConnectionTimeout
	}
	s.armHeartbeatLocked(c)
	return nil
}

func (s *Supervisor) armHeartbeatLocked(c *connection) {
	c.heartbeat.Cancel()
	c.heartbeat = nil
	if s.config.HeartbeatTimeout <= 0 {
		return
	}

	generation := c.generation
	c.heartbeat = afterFunc(s.config.HeartbeatTimeout, func(d *deadline) {
		s.heartbeatExpired(c.playerID, generation, d)
	})
}

// Disconnect handles a socket closing. A clean close leaves the lobby and the table; an
// abnormal one keeps the seat for the reconnect grace period.
func (s *Supervisor) Disconnect(ctx context.Context, playerID string, generation uint64, clean bool) {
	s.mu.Lock()
	c, ok := s.conns[playerID]
	if !ok || c.generation != generation || !c.connected {
		s.mu.Unlock()
		return
	}
	c.heartbeat.Cancel()
	c.heartbeat = nil
	s.mu.Unlock()

	s.leaveLobby(playerID)
	if !clean {
		s.disconnect(ctx, c, generation)
		return
	}

	s.mu.Lock()
	c.grace.Cancel()
	delete(s.conns, playerID)
	s.mu.Unlock()

	s.leaveTable(ctx, playerID, ReasonLeft)
	s.deletePresence(playerID)
}

// LeaveTable removes a connected player from their table. The connection stays live.
func (s *Supervisor) LeaveTable(ctx context.Context, playerID string) error {
	if _, seated := s.tables.TableOf(playerID); !seated {
		return models.ErrPlayerNotSeated
	}
	s.leaveTable(ctx, playerID, ReasonLeft)
	return nil
}

func (s *Supervisor) disconnect(ctx context.Context, c *connection, generation uint64) {
	tableID, seated := s.tables.TableOf(c.playerID)

	s.mu.Lock()
	if s.conns[c.playerID] != c || c.generation != generation {
		s.mu.Unlock()
		return
	}
	if !seated {
		delete(s.conns, c.playerID)
		s.mu.Unlock()
		s.deletePresence(c.playerID)
		return
	}
	c.connected = false
	c.grace.Cancel()
	c.grace = afterFunc(s.config.ReconnectGrace, func(d *deadline) {
		s.graceExpired(c.playerID, d)
	})
	s.mu.Unlock()

	s.writePresence(c.playerID, tableID, false)
	if r, err := s.tables.GetRoom(tableID); err == nil {
		if err := r.SetConnected(ctx, c.playerID, false); err != nil && !errors.Is(err, models.ErrTableClosed) {
			s.logger.Warn("marking player disconnected", zap.String("player_id", c.playerID), zap.Error(err))
		}
	}
	s.logger.Info("player disconnected",
		zap.String("player_id", c.playerID),
		zap.String("table_id", tableID),
		zap.Duration("grace", s.config.ReconnectGrace),
	)
}

func (s *Supervisor) heartbeatExpired(playerID string, generation uint64, d *deadline) {
	s.mu.Lock()
	c, ok := s.conns[playerID]
	if !ok || c.heartbeat != d || !c.connected {
		s.mu.Unlock()
		return
	}
	c.heartbeat = nil
	kicker := s.kicker
	s.mu.Unlock()

	s.logger.Info("heartbeat missed", zap.String("player_id", playerID))
	s.leaveLobby(playerID)
	s.disconnect(context.Background(), c, generation)
	if kicker != nil {
		kicker.Kick(playerID, generation, models.ErrConnectionTimeout)
	}
}

func (s *Supervisor) graceExpired(playerID string, d *deadline) {
	s.mu.Lock()
	c, ok := s.conns[playerID]
	if !ok || c.grace != d {
		s.mu.Unlock()
		return
	}
	delete(s.conns, playerID)
	s.mu.Unlock()

	s.logger.Info("reconnect grace expired", zap.String("player_id", playerID))
	s.leaveTable(context.Background(), playerID, ReasonTimeout)
	s.deletePresence(playerID)
}

// leaveTable folds the player first when they hold the turn, then takes the voluntary
// leave path.
func (s *Supervisor) leaveTable(ctx context.Context, playerID, reason string) {
	tableID, seated := s.tables.TableOf(playerID)
	if !seated {
		return
	}
	r, err := s.tables.GetRoom(tableID)
	if err != nil {
		return
	}

	err = r.Do(ctx, func(t *game.Table) error {
		if id, seq, ok := t.Turn(); ok && id == playerID {
			if err := t.AutoFold(playerID, seq); err != nil && !errors.Is(err, game.ErrStaleDeadline) {
				return err
			}
		}
		return t.Leave(playerID, reason)
	})
	if err != nil && !errors.Is(err, models.ErrTableClosed) && !errors.Is(err, models.ErrPlayerNotSeated) {
		s.logger.Warn("removing player from table", zap.String("player_id", playerID), zap.String("table_id", tableID), zap.Error(err))
	}
}

func (s *Supervisor) leaveLobby(playerID string) {
	if s.lobbies == nil {
		return
	}
	if err := s.lobbies.LeaveLobby(playerID); err != nil && !errors.Is(err, models.ErrLobbyNotFound) {
		s.logger.Warn("leaving lobby", zap.String("player_id", playerID), zap.Error(err))
	}
}

// Connected reports whether the player currently holds a live socket.
func (s *Supervisor) Connected(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[playerID]
	return ok && c.connected
}

func (s *Supervisor) OnSeated(tableID, playerID string) {
	s.writePresence(playerID, tableID, s.Connected(playerID))
}

// Profile returns the identity a connected player is seated with. The balance follows
// the player's stack as they leave tables.
func (s *Supervisor) Profile(playerID string) (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[playerID]
	if !ok {
		return models.Profile{}, false
	}
	return c.profile, true
}

func (s *Supervisor) OnRemoved(tableID, playerID string, balance int) {
	s.mu.Lock()
	c, ok := s.conns[playerID]
	if ok {
		c.profile.Balance = balance
	}
	if ok && !c.connected {
		c.grace.Cancel()
		delete(s.conns, playerID)
	}
	connected := ok && c.connected
	s.mu.Unlock()

	if connected {
		s.writePresence(playerID, "", true)
		return
	}
	s.deletePresence(playerID)
}

// OnTurn arms the table's move deadline. Expiry auto-folds, and a deadline whose turnSeq
// is no longer current is dropped by the table.
func (s *Supervisor) OnTurn(tableID, playerID string, turnSeq uint64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[tableID].Cancel()
	delete(s.turns, tableID)
	if at.IsZero() {
		return
	}

	s.turns[tableID] = afterFunc(time.Until(at), func(d *deadline) {
		s.turnExpired(tableID, playerID, turnSeq, d)
	})
}

func (s *Supervisor) turnExpired(tableID, playerID string, turnSeq uint64, d *deadline) {
	s.mu.Lock()
	if s.turns[tableID] != d {
		s.mu.Unlock()
		return
	}
	delete(s.turns, tableID)
	s.mu.Unlock()

	r, err := s.tables.GetRoom(tableID)
	if err != nil {
		return
	}
	err = r.AutoFold(context.Background(), playerID, turnSeq)
	switch {
	case err == nil:
		s.logger.Info("turn timed out", zap.String("table_id", tableID), zap.String("player_id", playerID), zap.Uint64("turn_seq", turnSeq))
	case errors.Is(err, game.ErrStaleDeadline), errors.Is(err, models.ErrTableClosed):
	default:
		s.logger.Error("auto-folding", zap.String("table_id", tableID), zap.Error(err))
	}
}

func (s *Supervisor) OnTableClosed(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[tableID].Cancel()
	delete(s.turns, tableID)
}
