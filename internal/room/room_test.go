package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/mq"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

type sent struct {
	playerID string
	msgType  models.MessageType
	data     any
}

type fakeSender struct {
	mu       sync.Mutex
	messages []sent
}

func (f *fakeSender) SendToPlayer(playerID string, msgType models.MessageType, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sent{playerID, msgType, data})
}

func (f *fakeSender) ofType(playerID string, msgType models.MessageType) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, m := range f.messages {
		if m.playerID == playerID && m.msgType == msgType {
			out = append(out, m.data)
		}
	}
	return out
}

func (f *fakeSender) lastState(t *testing.T, playerID string) GameState {
	t.Helper()
	states := f.ofType(playerID, models.MessageTypeGameState)
	require.NotEmpty(t, states)
	return states[len(states)-1].(GameState)
}

type turnNotice struct {
	tableID  string
	playerID string
	seq      uint64
}

type fakeObserver struct {
	mu      sync.Mutex
	seated  []string
	removed []string
	turns   []turnNotice
	closed  []string
}

func (f *fakeObserver) OnSeated(tableID, playerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seated = append(f.seated, playerID)
}

func (f *fakeObserver) OnRemoved(tableID, playerID string, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, playerID)
}

func (f *fakeObserver) OnTurn(tableID, playerID string, turnSeq uint64, deadline time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turnNotice{tableID, playerID, turnSeq})
}

func (f *fakeObserver) OnTableClosed(tableID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, tableID)
}

func (f *fakeObserver) lastTurn() turnNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.turns) == 0 {
		return turnNotice{}
	}
	return f.turns[len(f.turns)-1]
}

func (f *fakeObserver) closedTables() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type fakePublisher struct {
	mu    sync.Mutex
	chips []*mq.ChipUpdateMessage
	hands []*mq.HandCompleteMessage
	close []*mq.TableClosedMessage
}

func (f *fakePublisher) PublishChipUpdate(msg *mq.ChipUpdateMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chips = append(f.chips, msg)
	return nil
}

func (f *fakePublisher) PublishHandComplete(msg *mq.HandCompleteMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hands = append(f.hands, msg)
	return nil
}

func (f *fakePublisher) PublishTableClosed(msg *mq.TableClosedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close = append(f.close, msg)
	return nil
}

func (f *fakePublisher) chipUpdates() []*mq.ChipUpdateMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mq.ChipUpdateMessage(nil), f.chips...)
}

type fixture struct {
	manager   *RoomManager
	sender    *fakeSender
	observer  *fakeObserver
	publisher *fakePublisher
}

func newFixture(config Config, decks ...[]models.Card) *fixture {
	f := &fixture{sender: &fakeSender{}, observer: &fakeObserver{}, publisher: &fakePublisher{}}
	f.manager = NewRoomManager(config, f.sender, f.observer, f.publisher)

	var mu sync.Mutex
	f.manager.SetDeckSource(func() *models.Deck {
		mu.Lock()
		defer mu.Unlock()
		if len(decks) == 0 {
			return models.NewShuffledDeck()
		}
		d := decks[0]
		decks = decks[1:]
		return models.NewDeckFromCards(d)
	})
	return f
}

func seats(ids ...string) []game.SeatRequest {
	out := make([]game.SeatRequest, 0, len(ids))
	for _, id := range ids {
		out = append(out, game.SeatRequest{PlayerID: id, DisplayName: "name-" + id, Balance: 1000})
	}
	return out
}

func stack(top string) []models.Card {
	cards := models.MustParseCards(top)
	used := map[models.Card]bool{}
	for _, c := range cards {
		used[c] = true
	}
	for _, c := range models.FullDeck() {
		if !used[c] {
			cards = append(cards, c)
		}
	}
	return cards
}

func TestCreateTableSeatsPlayersAndBroadcastsState(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})
	ctx := context.Background()

	r, err := f.manager.CreateTable(ctx, TableOptions{
		ID: "t1", Type: models.LobbyTypePublic, MinBet: 100, MaxBet: 500, RequiredPlayers: 2,
		Players: seats("p1", "p2"),
	})
	require.NoError(t, err)

	tableID, ok := f.manager.TableOf("p1")
	assert.True(t, ok)
	assert.Equal(t, "t1", tableID)

	state := f.sender.lastState(t, "p1")
	assert.Equal(t, game.PhaseBetting, state.Phase)
	assert.Equal(t, "p1", state.TurnPlayerID)
	require.NotNil(t, state.TurnDeadline)
	assert.Len(t, state.Players[0].Hand, 3)
	assert.Empty(t, state.Players[1].Hand)

	assert.Equal(t, turnNotice{"t1", "p1", 1}, f.observer.lastTurn())

	_, err = f.manager.CreateTable(ctx, TableOptions{ID: "t2", RequiredPlayers: 2, MinBet: 100, MaxBet: 500, Players: seats("p1", "p9")})
	assert.ErrorIs(t, err, models.ErrAlreadySeated)
	assert.NotNil(t, r)
}

func TestRejectedActionGoesOnlyToCaller(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})
	ctx := context.Background()
	r, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", MinBet: 100, MaxBet: 500, RequiredPlayers: 2, Players: seats("p1", "p2")})
	require.NoError(t, err)

	before := len(f.sender.ofType("p2", models.MessageTypeGameState))
	err = r.Apply(ctx, "p2", models.ActionCheck, nil)
	assert.ErrorIs(t, err, models.ErrNotYourTurn)
	assert.Len(t, f.sender.ofType("p2", models.MessageTypeGameState), before)
}

func TestFinishedHandPublishesAndStartsNextHand(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: 20 * time.Millisecond},
		stack("Kh Kd Ks 9c 10d Js"),
	)
	ctx := context.Background()
	r, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", Type: models.LobbyTypePublic, MinBet: 100, MaxBet: 500, RequiredPlayers: 2, Players: seats("p1", "p2")})
	require.NoError(t, err)

	require.NoError(t, r.Apply(ctx, "p1", models.ActionCheck, nil))
	require.NoError(t, r.Apply(ctx, "p2", models.ActionCheck, nil))

	results := f.sender.ofType("p2", models.MessageTypeHandResult)
	require.Len(t, results, 1)
	result := results[0].(HandResultMessage)
	assert.Equal(t, []string{"p1"}, result.Winners)
	assert.Equal(t, "t1", result.TableID)

	assert.Eventually(t, func() bool { return len(f.publisher.chipUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	chips := f.publisher.chipUpdates()[0]
	assert.Equal(t, []mq.PlayerChipChange{{PlayerID: "p1", Change: 100}, {PlayerID: "p2", Change: -100}}, chips.PlayerChanges)

	assert.Eventually(t, func() bool {
		state, err := r.Snapshot(ctx, "")
		return err == nil && state.HandNumber == 2 && state.Phase == game.PhaseBetting
	}, time.Second, 5*time.Millisecond)
}

func TestStaleAutoFoldIsIgnored(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})
	ctx := context.Background()
	r, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", MinBet: 100, MaxBet: 500, RequiredPlayers: 3, Players: seats("p1", "p2", "p3")})
	require.NoError(t, err)

	first := f.observer.lastTurn()
	require.NoError(t, r.Apply(ctx, "p1", models.ActionCheck, nil))

	assert.ErrorIs(t, r.AutoFold(ctx, "p1", first.seq), game.ErrStaleDeadline)

	current := f.observer.lastTurn()
	require.Equal(t, "p2", current.playerID)
	require.NoError(t, r.AutoFold(ctx, "p2", current.seq))
	assert.Equal(t, "p3", f.observer.lastTurn().playerID)
}

func TestLastPlayerLeavingClosesTable(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})
	ctx := context.Background()
	r, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", Type: models.LobbyTypePrivate, HostID: "p1", MinBet: 100, MaxBet: 500, RequiredPlayers: 6, Players: seats("p1")})
	require.NoError(t, err)

	assert.Len(t, f.manager.ListOpenTables(ctx), 1)

	require.NoError(t, r.Leave(ctx, "p1", "left"))
	<-r.Done()

	assert.Equal(t, []string{"t1"}, f.observer.closedTables())
	assert.Equal(t, 0, f.manager.Count())
	_, seated := f.manager.TableOf("p1")
	assert.False(t, seated)
	assert.ErrorIs(t, r.Apply(ctx, "p1", models.ActionFold, nil), models.ErrTableClosed)
}

func TestFatalDealAbortsAndRefunds(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour}, models.MustParseCards("Kh Kd Ks 9c"))
	ctx := context.Background()

	_, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", MinBet: 100, MaxBet: 500, RequiredPlayers: 2, Players: seats("p1", "p2")})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientCards)

	errs := f.sender.ofType("p1", models.MessageTypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, models.CodeTableClosed, errs[0].(models.ErrorMessage).Code)
	assert.Equal(t, []string{"t1"}, f.observer.closedTables())
}

func TestPrivateTableStartsOnHostRequest(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})
	ctx := context.Background()
	r, err := f.manager.CreateTable(ctx, TableOptions{ID: "t1", Type: models.LobbyTypePrivate, HostID: "p1", MinBet: 100, MaxBet: 500, RequiredPlayers: 6, Players: seats("p1", "p2")})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Start(ctx, "p2"), models.ErrNotLobbyHost)
	require.NoError(t, r.Start(ctx, "p1"))

	state, err := r.Snapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseBetting, state.Phase)
	assert.Empty(t, f.manager.ListOpenTables(ctx))
}

func TestCreateTableFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})

	_, err := f.manager.CreateTable(context.Background(), TableOptions{
		ID: "t1", Type: models.LobbyTypePublic, MinBet: 100, MaxBet: 500, RequiredPlayers: 3,
		Players: seats("p1", "p1"),
	})
	assert.ErrorIs(t, err, models.ErrAlreadySeated)

	assert.Zero(t, f.manager.Count())
	_, seated := f.manager.TableOf("p1")
	assert.False(t, seated)
	assert.Equal(t, []string{"t1"}, f.observer.closedTables())
}

func TestCreateTableRejectsMoreSeatsThanTheDeckDeals(t *testing.T) {
	f := newFixture(Config{TurnTimeout: time.Minute, NextHandDelay: time.Hour})

	_, err := f.manager.CreateTable(context.Background(), TableOptions{
		ID: "t1", Type: models.LobbyTypePublic, MinBet: 100, MaxBet: 500, RequiredPlayers: 9,
		Players: seats("a", "b", "c", "d", "e", "f", "g", "h", "i"),
	})
	assert.ErrorIs(t, err, ErrTooManySeats)
	assert.Zero(t, f.manager.Count())

	r, err := f.manager.CreateTable(context.Background(), TableOptions{
		ID: "t2", Type: models.LobbyTypePublic, MinBet: 100, MaxBet: 500, RequiredPlayers: game.MaxPlayers,
		Players: seats("a", "b", "c", "d", "e", "f", "g", "h"),
	})
	require.NoError(t, err)
	state, err := r.Snapshot(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseBetting, state.Phase)
}
