package room

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

var (
	ErrTableExists  = errors.New("table already exists")
	ErrTooManySeats = fmt.Errorf("a table seats at most %d players", game.MaxPlayers)
)

type TableOptions struct {
	ID              string
	Name            string
	Type            models.LobbyType
	MinBet          int
	MaxBet          int
	RequiredPlayers int
	HostID          string
	Players         []game.SeatRequest
	// Start begins the first hand right away even below RequiredPlayers.
	Start bool
}

// RoomManager is the registry of live tables and of which table each player sits at.
type RoomManager struct {
	rooms map[string]*Room
	seats map[string]string
	mu    sync.RWMutex

	config    Config
	sender    Sender
	observer  Observer
	publisher EventPublisher
	newDeck   func() *models.Deck
	logger    *zap.Logger
}

func NewRoomManager(config Config, sender Sender, observer Observer, publisher EventPublisher) *RoomManager {
	return &RoomManager{
		rooms:     make(map[string]*Room),
		seats:     make(map[string]string),
		config:    config,
		sender:    sender,
		observer:  observer,
		publisher: publisher,
		logger:    utils.Logger.Named("room_manager"),
	}
}

// SetObserver replaces the observer. It must be called before the first table is created.
func (rm *RoomManager) SetObserver(observer Observer) {
	rm.observer = observer
}

// SetDeckSource overrides the deck used by tables created afterwards.
func (rm *RoomManager) SetDeckSource(newDeck func() *models.Deck) {
	rm.newDeck = newDeck
}

// CreateTable registers a table and seats the given players in order. Seating a full
// table starts its first hand.
func (rm *RoomManager) CreateTable(ctx context.Context, opts TableOptions) (*Room, error) {
	if opts.RequiredPlayers > game.MaxPlayers || len(opts.Players) > game.MaxPlayers {
		return nil, ErrTooManySeats
	}

	rm.mu.Lock()
	for _, p := range opts.Players {
		if _, seated := rm.seats[p.PlayerID]; seated {
			rm.mu.Unlock()
			return nil, models.ErrAlreadySeated
		}
	}
	if _, exists := rm.rooms[opts.ID]; exists {
		rm.mu.Unlock()
		return nil, ErrTableExists
	}

	table := game.NewTable(game.Options{
		ID:              opts.ID,
		MinBet:          opts.MinBet,
		MaxBet:          opts.MaxBet,
		RequiredPlayers: opts.RequiredPlayers,
		Private:         opts.Type == models.LobbyTypePrivate,
		HostID:          opts.HostID,
		NewDeck:         rm.newDeck,
	})
	room := newRoom(opts.ID, opts.Name, opts.Type, table, rm.config, rm.sender, rm, rm.publisher)
	rm.rooms[room.ID] = room
	rm.mu.Unlock()

	// Seating either completes or closes the room, even if ctx is cancelled meanwhile.
	err := room.Do(context.WithoutCancel(ctx), func(t *game.Table) error {
		err := seatAll(t, opts)
		if err != nil {
			t.Abort("table setup failed")
		}
		return err
	})
	if err != nil {
		rm.logger.Error("creating table", zap.String("table_id", opts.ID), zap.Error(err))
		return nil, err
	}

	rm.logger.Info("table created",
		zap.String("table_id", opts.ID),
		zap.String("type", string(opts.Type)),
		zap.Int("players", len(opts.Players)),
		zap.Int("min_bet", opts.MinBet),
		zap.Int("max_bet", opts.MaxBet),
	)
	return room, nil
}

func seatAll(t *game.Table, opts TableOptions) error {
	for _, p := range opts.Players {
		if err := t.Seat(p); err != nil {
			return err
		}
	}
	if opts.Start && t.Phase() == game.PhaseWaiting {
		return t.Start(t.HostID())
	}
	return nil
}

// JoinTable seats a player directly at a waiting table.
func (rm *RoomManager) JoinTable(ctx context.Context, tableID string, req game.SeatRequest) (*Room, error) {
	room, err := rm.GetRoom(tableID)
	if err != nil {
		return nil, err
	}
	if _, seated := rm.TableOf(req.PlayerID); seated {
		return nil, models.ErrAlreadySeated
	}
	if err := room.Seat(ctx, req); err != nil {
		return nil, err
	}
	return room, nil
}

func (rm *RoomManager) GetRoom(tableID string) (*Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[tableID]
	if !exists {
		return nil, models.ErrLobbyNotFound
	}
	return room, nil
}

// TableOf returns the table a player is seated at.
func (rm *RoomManager) TableOf(playerID string) (string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	tableID, ok := rm.seats[playerID]
	return tableID, ok
}

func (rm *RoomManager) GetRoomByPlayerID(playerID string) (*Room, error) {
	tableID, ok := rm.TableOf(playerID)
	if !ok {
		return nil, models.ErrPlayerNotSeated
	}
	return rm.GetRoom(tableID)
}

// ListOpenTables describes waiting tables that still have free seats.
func (rm *RoomManager) ListOpenTables(ctx context.Context) []models.LobbyInfo {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	infos := make([]models.LobbyInfo, 0)
	for _, room := range rooms {
		info, open, err := room.Info(ctx)
		if err != nil || !open {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].LobbyID < infos[j].LobbyID })
	return infos
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

func (rm *RoomManager) OnSeated(tableID, playerID string) {
	rm.mu.Lock()
	rm.seats[playerID] = tableID
	rm.mu.Unlock()

	if rm.observer != nil {
		rm.observer.OnSeated(tableID, playerID)
	}
}

func (rm *RoomManager) OnRemoved(tableID, playerID string, balance int) {
	rm.mu.Lock()
	if rm.seats[playerID] == tableID {
		delete(rm.seats, playerID)
	}
	rm.mu.Unlock()

	if rm.observer != nil {
		rm.observer.OnRemoved(tableID, playerID, balance)
	}
}

func (rm *RoomManager) OnTurn(tableID, playerID string, turnSeq uint64, deadline time.Time) {
	if rm.observer != nil {
		rm.observer.OnTurn(tableID, playerID, turnSeq, deadline)
	}
}

func (rm *RoomManager) OnTableClosed(tableID string) {
	rm.mu.Lock()
	delete(rm.rooms, tableID)
	for playerID, seatedAt := range rm.seats {
		if seatedAt == tableID {
			delete(rm.seats, playerID)
		}
	}
	rm.mu.Unlock()

	rm.logger.Info("table removed", zap.String("table_id", tableID))
	if rm.observer != nil {
		rm.observer.OnTableClosed(tableID)
	}
}
