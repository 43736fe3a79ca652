package lobby

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// Tables is the part of the table registry the lobby manager hands players to.
type Tables interface {
	CreateTable(ctx context.Context, opts room.TableOptions) (*room.Room, error)
	JoinTable(ctx context.Context, tableID string, req game.SeatRequest) (*room.Room, error)
	TableOf(playerID string) (string, bool)
	ListOpenTables(ctx context.Context) []models.LobbyInfo
}

type Config struct {
	RequiredPlayers    int
	DefaultMinBet      int
	DefaultMaxBet      int
	MatchmakingTimeout time.Duration
}

// Manager owns every lobby. All lobby state is guarded by one mutex, which is also held
// while a full lobby is handed to the table registry so promotion is all or nothing.
type Manager struct {
	mu          sync.Mutex
	lobbies     map[string]*Lobby
	playerLobby map[string]string

	tables Tables
	sender room.Sender
	config Config
	logger *zap.Logger
}

// NewManager clamps RequiredPlayers to what a table can seat.
func NewManager(config Config, tables Tables, sender room.Sender) *Manager {
	config.RequiredPlayers = max(2, min(config.RequiredPlayers, game.MaxPlayers))
	return &Manager{
		lobbies:     make(map[string]*Lobby),
		playerLobby: make(map[string]string),
		tables:      tables,
		sender:      sender,
		config:      config,
		logger:      utils.Logger.Named("lobby"),
	}
}

// FindOrCreatePublicLobby returns the oldest public lobby with exactly these stakes and a
// free seat, creating one if none exists.
func (m *Manager) FindOrCreatePublicLobby(minBet, maxBet int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findOrCreatePublicLocked(minBet, maxBet).ID
}

func (m *Manager) findOrCreatePublicLocked(minBet, maxBet int) *Lobby {
	var match *Lobby
	for _, l := range m.lobbies {
		if l.Type != models.LobbyTypePublic || l.MinBet != minBet || l.MaxBet != maxBet || l.full() {
			continue
		}
		if match == nil || l.CreatedAt.Before(match.CreatedAt) {
			match = l
		}
	}
	if match != nil {
		return match
	}
	return m.newLobbyLocked("", models.LobbyTypePublic, "", minBet, maxBet)
}

func (m *Manager) newLobbyLocked(name string, lobbyType models.LobbyType, hostID string, minBet, maxBet int) *Lobby {
	l := &Lobby{
		ID:              uuid.New().String(),
		Name:            name,
		Type:            lobbyType,
		HostID:          hostID,
		MinBet:          minBet,
		MaxBet:          maxBet,
		RequiredPlayers: m.config.RequiredPlayers,
		CreatedAt:       time.Now(),
	}
	m.lobbies[l.ID] = l
	m.logger.Info("lobby created",
		zap.String("lobby_id", l.ID),
		zap.String("type", string(lobbyType)),
		zap.Int("min_bet", minBet),
		zap.Int("max_bet", maxBet),
	)
	return l
}

// FindGame puts the player into public matchmaking for the given stakes. The search is
// abandoned with a timeout update if no table forms within MatchmakingTimeout.
func (m *Manager) FindGame(ctx context.Context, player game.SeatRequest, minBet, maxBet int) (models.LobbyInfo, error) {
	if _, seated := m.tables.TableOf(player.PlayerID); seated {
		return models.LobbyInfo{}, models.ErrAlreadySeated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveLocked(player.PlayerID)
	l := m.findOrCreatePublicLocked(minBet, maxBet)
	w := &waiter{seat: player}
	m.addLocked(l, w)

	if m.config.MatchmakingTimeout > 0 {
		lobbyID := l.ID
		w.timer = time.AfterFunc(m.config.MatchmakingTimeout, func() {
			m.expire(lobbyID, w)
		})
	}

	info := l.Info()
	m.broadcastLocked(l, models.MatchmakingSearching)
	return info, m.promoteIfFullLocked(ctx, l)
}

// CreateLobby opens a lobby with the creator as host and first waiting player.
func (m *Manager) CreateLobby(ctx context.Context, host game.SeatRequest, name string, lobbyType models.LobbyType, minBet, maxBet int) (models.LobbyInfo, error) {
	if _, seated := m.tables.TableOf(host.PlayerID); seated {
		return models.LobbyInfo{}, models.ErrAlreadySeated
	}
	if minBet == 0 && maxBet == 0 {
		minBet, maxBet = m.config.DefaultMinBet, m.config.DefaultMaxBet
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveLocked(host.PlayerID)
	l := m.newLobbyLocked(strings.TrimSpace(name), lobbyType, host.PlayerID, minBet, maxBet)
	m.addLocked(l, &waiter{seat: host})

	info := l.Info()
	m.sender.SendToPlayer(host.PlayerID, models.MessageTypeLobbyCreated, info)
	m.broadcastLocked(l, models.MatchmakingSearching)
	return info, nil
}

// JoinLobby adds the player to a lobby, or seats them directly when lobbyID names a
// waiting table with free seats.
func (m *Manager) JoinLobby(ctx context.Context, lobbyID string, player game.SeatRequest) (models.LobbyInfo, error) {
	if _, seated := m.tables.TableOf(player.PlayerID); seated {
		return models.LobbyInfo{}, models.ErrAlreadySeated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[lobbyID]
	if !ok {
		return m.joinTableLocked(ctx, lobbyID, player)
	}
	if l.index(player.PlayerID) >= 0 {
		return l.Info(), nil
	}
	if l.full() {
		return models.LobbyInfo{}, models.ErrLobbyFull
	}

	m.leaveLocked(player.PlayerID)
	m.addLocked(l, &waiter{seat: player})

	info := l.Info()
	m.sender.SendToPlayer(player.PlayerID, models.MessageTypeLobbyJoined, info)
	m.broadcastLocked(l, models.MatchmakingSearching)
	return info, m.promoteIfFullLocked(ctx, l)
}

func (m *Manager) joinTableLocked(ctx context.Context, tableID string, player game.SeatRequest) (models.LobbyInfo, error) {
	var info models.LobbyInfo
	found := false
	for _, open := range m.tables.ListOpenTables(ctx) {
		if open.LobbyID == tableID {
			info, found = open, true
			break
		}
	}
	if !found {
		return models.LobbyInfo{}, models.ErrLobbyNotFound
	}

	m.leaveLocked(player.PlayerID)
	// The joiner learns the table before the state broadcast triggered by seating them.
	info.PlayersCount++
	m.sender.SendToPlayer(player.PlayerID, models.MessageTypeLobbyJoined, info)
	if _, err := m.tables.JoinTable(ctx, tableID, player); err != nil {
		return models.LobbyInfo{}, err
	}

	m.logger.Info("player joined table directly", zap.String("table_id", tableID), zap.String("player_id", player.PlayerID))
	return info, nil
}

// LeaveLobby removes the player from their lobby. An emptied lobby is destroyed.
func (m *Manager) LeaveLobby(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.leaveLocked(playerID) {
		return models.ErrLobbyNotFound
	}
	return nil
}

// CancelMatchmaking stops a player's search and confirms it to them.
func (m *Manager) CancelMatchmaking(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lobbyID, ok := m.playerLobby[playerID]
	if !ok {
		return models.ErrLobbyNotFound
	}
	update := m.lobbies[lobbyID].update(models.MatchmakingCancelled)
	m.leaveLocked(playerID)

	update.PlayersCount--
	update.WaitingPlayers = removeID(update.WaitingPlayers, playerID)
	m.sender.SendToPlayer(playerID, models.MessageTypeMatchmakingUpdate, update)
	return nil
}

// StartLobby promotes a private lobby at its host's request.
func (m *Manager) StartLobby(ctx context.Context, lobbyID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[lobbyID]
	if !ok {
		return models.ErrLobbyNotFound
	}
	if l.Type != models.LobbyTypePrivate || l.HostID != playerID {
		return models.ErrNotLobbyHost
	}
	if len(l.waiting) < 2 {
		return models.ErrNotEnoughPlayers
	}
	return m.promoteLocked(ctx, l, true)
}

// LobbyOf returns the lobby a player is waiting in.
func (m *Manager) LobbyOf(playerID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.playerLobby[playerID]
	return id, ok
}

// ListAvailableLobbies lists lobbies with free seats followed by open waiting tables.
func (m *Manager) ListAvailableLobbies(ctx context.Context) []models.LobbyInfo {
	m.mu.Lock()
	infos := make([]models.LobbyInfo, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		if !l.full() {
			infos = append(infos, l.Info())
		}
	}
	m.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].LobbyID < infos[j].LobbyID })
	return append(infos, m.tables.ListOpenTables(ctx)...)
}

func (m *Manager) addLocked(l *Lobby, w *waiter) {
	l.waiting = append(l.waiting, w)
	m.playerLobby[w.seat.PlayerID] = l.ID
	if l.HostID == "" {
		l.HostID = w.seat.PlayerID
	}
}

func (m *Manager) leaveLocked(playerID string) bool {
	lobbyID, ok := m.playerLobby[playerID]
	if !ok {
		return false
	}
	delete(m.playerLobby, playerID)

	l := m.lobbies[lobbyID]
	l.remove(playerID)
	if len(l.waiting) == 0 {
		delete(m.lobbies, l.ID)
		m.logger.Info("lobby destroyed", zap.String("lobby_id", l.ID))
		return true
	}

	m.broadcastLocked(l, models.MatchmakingSearching)
	return true
}

func (m *Manager) promoteIfFullLocked(ctx context.Context, l *Lobby) error {
	if !l.full() {
		return nil
	}
	return m.promoteLocked(ctx, l, false)
}

// promoteLocked turns a lobby into a table that reuses the lobby id. On failure the
// lobby is left exactly as it was.
func (m *Manager) promoteLocked(ctx context.Context, l *Lobby, start bool) error {
	_, err := m.tables.CreateTable(ctx, room.TableOptions{
		ID:              l.ID,
		Name:            l.Name,
		Type:            l.Type,
		MinBet:          l.MinBet,
		MaxBet:          l.MaxBet,
		RequiredPlayers: l.RequiredPlayers,
		HostID:          l.HostID,
		Players:         l.seats(),
		Start:           start,
	})
	if err != nil {
		m.logger.Error("promoting lobby", zap.String("lobby_id", l.ID), zap.Error(err))
		return err
	}

	update := l.update(models.MatchmakingMatched)
	for _, w := range l.waiting {
		w.stop()
		delete(m.playerLobby, w.seat.PlayerID)
		m.sender.SendToPlayer(w.seat.PlayerID, models.MessageTypeMatchmakingUpdate, update)
	}
	delete(m.lobbies, l.ID)

	m.logger.Info("lobby promoted", zap.String("lobby_id", l.ID), zap.Strings("players", update.WaitingPlayers))
	return nil
}

func (m *Manager) expire(lobbyID string, w *waiter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lobbies[lobbyID]
	if !ok {
		return
	}
	if i := l.index(w.seat.PlayerID); i < 0 || l.waiting[i] != w {
		return
	}

	update := l.update(models.MatchmakingTimeout)
	m.leaveLocked(w.seat.PlayerID)

	update.PlayersCount--
	update.WaitingPlayers = removeID(update.WaitingPlayers, w.seat.PlayerID)
	m.sender.SendToPlayer(w.seat.PlayerID, models.MessageTypeMatchmakingUpdate, update)
	m.logger.Info("matchmaking timed out", zap.String("lobby_id", lobbyID), zap.String("player_id", w.seat.PlayerID))
}

func (m *Manager) broadcastLocked(l *Lobby, status models.MatchmakingStatus) {
	update := l.update(status)
	for _, w := range l.waiting {
		m.sender.SendToPlayer(w.seat.PlayerID, models.MessageTypeMatchmakingUpdate, update)
	}
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, other := range ids {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}
