package room

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/mq"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// Sender delivers an outbound message to a connected player. Implementations must not block.
type Sender interface {
	SendToPlayer(playerID string, msgType models.MessageType, data any)
}

// Observer is told about seat and turn changes so deadlines and presence can follow the table.
// Calls arrive on the room goroutine and must not call back into the room synchronously.
type Observer interface {
	OnSeated(tableID, playerID string)
	OnRemoved(tableID, playerID string, balance int)
	OnTurn(tableID, playerID string, turnSeq uint64, deadline time.Time)
	OnTableClosed(tableID string)
}

type EventPublisher interface {
	PublishChipUpdate(msg *mq.ChipUpdateMessage) error
	PublishHandComplete(msg *mq.HandCompleteMessage) error
	PublishTableClosed(msg *mq.TableClosedMessage) error
}

type Config struct {
	TurnTimeout   time.Duration
	NextHandDelay time.Duration
}

// GameState is the game_state payload: the viewer's snapshot plus the turn deadline.
type GameState struct {
	game.Snapshot
	TurnDeadline *time.Time `json:"turnDeadline,omitempty"`
}

type HandResultMessage struct {
	TableID string `json:"tableId"`
	*game.HandResult
}

// Room runs one table on its own goroutine. Every read or mutation of the table is a
// command executed there in arrival order, and all broadcasts are sent from it.
type Room struct {
	ID        string
	Name      string
	LobbyType models.LobbyType

	table  *game.Table
	inbox  chan func()
	done   chan struct{}
	closed bool

	sender    Sender
	observer  Observer
	publisher EventPublisher
	config    Config
	logger    *zap.Logger

	turnDeadline  time.Time
	nextHand      *time.Timer
	lastBroadcast uint64
}

func newRoom(id, name string, lobbyType models.LobbyType, table *game.Table, config Config, sender Sender, observer Observer, publisher EventPublisher) *Room {
	r := &Room{
		ID:        id,
		Name:      name,
		LobbyType: lobbyType,
		table:     table,
		inbox:     make(chan func(), 64),
		done:      make(chan struct{}),
		sender:    sender,
		observer:  observer,
		publisher: publisher,
		config:    config,
		logger:    utils.Logger.Named("room").With(zap.String("table_id", id)),
	}

	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case cmd := <-r.inbox:
			cmd()
		case <-r.done:
			return
		}
	}
}

// Done is closed once the room has shut down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Do runs fn against the table on the room goroutine and waits for its result. State
// changes made by fn are broadcast before Do returns.
func (r *Room) Do(ctx context.Context, fn func(t *game.Table) error) error {
	result := make(chan error, 1)
	cmd := func() {
		if r.closed {
			result <- models.ErrTableClosed
			return
		}
		closed, err := r.exec(fn)
		if closed {
			r.teardown()
		}
		result <- err
		if closed {
			close(r.done)
		}
	}

	select {
	case r.inbox <- cmd:
	case <-r.done:
		return models.ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-r.done:
		select {
		case err := <-result:
			return err
		default:
			return models.ErrTableClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) Seat(ctx context.Context, req game.SeatRequest) error {
	return r.Do(ctx, func(t *game.Table) error { return t.Seat(req) })
}

func (r *Room) Apply(ctx context.Context, playerID string, action models.ActionType, amount *int) error {
	return r.Do(ctx, func(t *game.Table) error { return t.Apply(playerID, action, amount) })
}

func (r *Room) Start(ctx context.Context, playerID string) error {
	return r.Do(ctx, func(t *game.Table) error { return t.Start(playerID) })
}

func (r *Room) Leave(ctx context.Context, playerID, reason string) error {
	return r.Do(ctx, func(t *game.Table) error { return t.Leave(playerID, reason) })
}

func (r *Room) SetConnected(ctx context.Context, playerID string, connected bool) error {
	return r.Do(ctx, func(t *game.Table) error { return t.SetConnected(playerID, connected) })
}

// AutoFold folds playerID if turnSeq still identifies their turn.
func (r *Room) AutoFold(ctx context.Context, playerID string, turnSeq uint64) error {
	return r.Do(ctx, func(t *game.Table) error { return t.AutoFold(playerID, turnSeq) })
}

// Sync sends the full current state to one player.
func (r *Room) Sync(ctx context.Context, playerID string) error {
	return r.Do(ctx, func(t *game.Table) error {
		if _, ok := t.Player(playerID); !ok {
			return models.ErrPlayerNotSeated
		}
		r.sender.SendToPlayer(playerID, models.MessageTypeGameState, r.state(playerID))
		return nil
	})
}

// Snapshot returns the table as seen by viewer. An empty viewer sees no cards.
func (r *Room) Snapshot(ctx context.Context, viewer string) (GameState, error) {
	var state GameState
	err := r.Do(ctx, func(t *game.Table) error {
		state = r.state(viewer)
		return nil
	})
	return state, err
}

// Info describes the table for lobby listings.
func (r *Room) Info(ctx context.Context) (models.LobbyInfo, bool, error) {
	var info models.LobbyInfo
	var open bool
	err := r.Do(ctx, func(t *game.Table) error {
		info = models.LobbyInfo{
			LobbyID:         r.ID,
			Name:            r.Name,
			Type:            r.LobbyType,
			MinBet:          t.MinBet(),
			MaxBet:          t.MaxBet(),
			HostID:          t.HostID(),
			PlayersCount:    t.SeatCount(),
			RequiredPlayers: t.RequiredPlayers(),
			IsTable:         true,
		}
		open = t.Phase() == game.PhaseWaiting && t.SeatCount() < t.RequiredPlayers()
		return nil
	})
	return info, open, err
}

// exec runs a command and then turns the table's events into notifications. It reports
// whether the room must shut down afterwards.
func (r *Room) exec(fn func(t *game.Table) error) (bool, error) {
	err := fn(r.table)
	if err != nil && game.IsFatal(err) {
		r.logger.Error("aborting table", zap.Error(err))
		r.table.Abort("internal error")
	}

	for {
		events := r.table.DrainEvents()
		if len(events) == 0 {
			break
		}
		for _, e := range events {
			r.handleEvent(e)
		}
	}

	if r.table.Version() != r.lastBroadcast {
		r.broadcastState()
		r.lastBroadcast = r.table.Version()
	}

	closed := r.table.Phase() == game.PhaseClosed || r.table.IsEmpty()
	return closed, err
}

func (r *Room) handleEvent(e game.Event) {
	switch e.Type {
	case game.EventPlayerJoined:
		if e.Reason == "" {
			r.observer.OnSeated(r.ID, e.PlayerID)
		}
		r.notice(models.MessageTypePlayerJoined, e)

	case game.EventPlayerLeft:
		r.notice(models.MessageTypePlayerLeft, e)

	case game.EventPlayerRemoved:
		r.observer.OnRemoved(r.ID, e.PlayerID, e.Amount)

	case game.EventTurnChanged:
		r.turnDeadline = time.Time{}
		if r.config.TurnTimeout > 0 {
			r.turnDeadline = time.Now().Add(r.config.TurnTimeout)
		}
		r.observer.OnTurn(r.ID, e.PlayerID, e.TurnSeq, r.turnDeadline)

	case game.EventHandStarted:
		r.logger.Debug("hand started", zap.Int("hand", r.table.HandNumber()), zap.Strings("players", r.table.PlayerIDs()))

	case game.EventSvara:
		r.logger.Info("svara", zap.Strings("players", e.Result.Winners), zap.Int("pot", e.Result.Pot))
		r.broadcast(models.MessageTypeHandResult, HandResultMessage{TableID: r.ID, HandResult: e.Result})

	case game.EventHandFinished:
		r.logger.Info("hand finished",
			zap.Int("hand", e.Result.HandNumber),
			zap.String("outcome", e.Result.Outcome),
			zap.Strings("winners", e.Result.Winners),
			zap.Int("pot", e.Result.Pot),
		)
		r.broadcast(models.MessageTypeHandResult, HandResultMessage{TableID: r.ID, HandResult: e.Result})
		r.publishHand(e.Result)
		r.scheduleNextHand()

	case game.EventTableAborted:
		r.logger.Warn("table aborted", zap.String("reason", e.Reason), zap.Any("refunds", e.Refunds))
		r.broadcast(models.MessageTypeError, models.ErrorMessage{
			Code:    models.CodeTableClosed,
			Message: "table closed: " + e.Reason + ", bets refunded",
		})
		r.publish(func() error {
			return r.publisher.PublishTableClosed(&mq.TableClosedMessage{
				LobbyType: string(r.LobbyType),
				TableID:   r.ID,
				Reason:    e.Reason,
			})
		})
	}
}

func (r *Room) scheduleNextHand() {
	if r.config.NextHandDelay <= 0 {
		if err := r.table.Continue(); err != nil && game.IsFatal(err) {
			r.logger.Error("aborting table", zap.Error(err))
			r.table.Abort("internal error")
		}
		return
	}

	if r.nextHand != nil {
		r.nextHand.Stop()
	}
	r.nextHand = time.AfterFunc(r.config.NextHandDelay, func() {
		err := r.Do(context.Background(), func(t *game.Table) error { return t.Continue() })
		if err != nil && !errors.Is(err, models.ErrTableClosed) && !errors.Is(err, models.ErrInvalidPhaseTransition) {
			r.logger.Error("starting next hand", zap.Error(err))
		}
	})
}

func (r *Room) publishHand(result *game.HandResult) {
	ids := make([]string, 0, len(result.ChipChanges))
	for id := range result.ChipChanges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	changes := make([]mq.PlayerChipChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, mq.PlayerChipChange{PlayerID: id, Change: result.ChipChanges[id]})
	}

	chipUpdate := &mq.ChipUpdateMessage{
		LobbyType:     string(r.LobbyType),
		TableID:       r.ID,
		HandNo:        result.HandNumber,
		Reason:        result.Outcome,
		PlayerChanges: changes,
	}
	handComplete := &mq.HandCompleteMessage{
		LobbyType: string(r.LobbyType),
		TableID:   r.ID,
		HandNo:    result.HandNumber,
		Outcome:   result.Outcome,
		Winners:   result.Winners,
		Pot:       result.Pot,
		Players:   ids,
	}

	r.publish(func() error {
		if err := r.publisher.PublishChipUpdate(chipUpdate); err != nil {
			return err
		}
		return r.publisher.PublishHandComplete(handComplete)
	})
}

// publish runs fn off the room goroutine so a slow broker never stalls the table.
func (r *Room) publish(fn func() error) {
	if r.publisher == nil {
		return
	}
	go func() {
		if err := fn(); err != nil {
			r.logger.Error("publishing game event", zap.Error(err))
		}
	}()
}

func (r *Room) notice(msgType models.MessageType, e game.Event) {
	notice := models.PlayerNotice{TableID: r.ID, PlayerID: e.PlayerID, Reason: e.Reason}
	if p, ok := r.table.Player(e.PlayerID); ok {
		notice.DisplayName = p.DisplayName
	}
	r.broadcast(msgType, notice)
	if msgType == models.MessageTypePlayerLeft && e.Reason != "disconnected" {
		r.sender.SendToPlayer(e.PlayerID, msgType, notice)
	}
}

func (r *Room) broadcast(msgType models.MessageType, data any) {
	for _, id := range r.table.Audience() {
		r.sender.SendToPlayer(id, msgType, data)
	}
}

func (r *Room) broadcastState() {
	for _, id := range r.table.Audience() {
		r.sender.SendToPlayer(id, models.MessageTypeGameState, r.state(id))
	}
}

func (r *Room) state(viewer string) GameState {
	state := GameState{Snapshot: r.table.Snapshot(viewer)}
	if state.TurnPlayerID != "" && !r.turnDeadline.IsZero() {
		deadline := r.turnDeadline
		state.TurnDeadline = &deadline
	}
	return state
}

func (r *Room) teardown() {
	r.closed = true
	if r.nextHand != nil {
		r.nextHand.Stop()
	}
	r.logger.Info("table closed")
	for _, id := range r.table.PlayerIDs() {
		if p, ok := r.table.Player(id); ok {
			r.observer.OnRemoved(r.ID, id, p.Balance)
		}
	}
	r.observer.OnTableClosed(r.ID)
}
