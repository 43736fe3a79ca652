package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

const startingBalance = 1000

// stackedDeck returns a full deck whose top cards are the given ones.
func stackedDeck(top string) *models.Deck {
	cards := models.MustParseCards(top)
	used := make(map[models.Card]bool, len(cards))
	for _, c := range cards {
		used[c] = true
	}
	for _, c := range models.FullDeck() {
		if !used[c] {
			cards = append(cards, c)
		}
	}
	return models.NewDeckFromCards(cards)
}

// deckSequence deals the given stacks in order, then falls back to shuffled decks.
func deckSequence(stacks ...string) func() *models.Deck {
	return func() *models.Deck {
		if len(stacks) == 0 {
			return models.NewShuffledDeck()
		}
		top := stacks[0]
		stacks = stacks[1:]
		return stackedDeck(top)
	}
}

func newTestTable(t *testing.T, players int, stacks ...string) *Table {
	t.Helper()
	table := NewTable(Options{
		ID:              "table-1",
		MinBet:          100,
		MaxBet:          500,
		RequiredPlayers: players,
		NewDeck:         deckSequence(stacks...),
	})
	for i := 1; i <= players; i++ {
		id := "p" + string(rune('0'+i))
		require.NoError(t, table.Seat(SeatRequest{PlayerID: id, DisplayName: id, Balance: startingBalance}))
	}
	return table
}

func act(t *testing.T, table *Table, playerID string, action models.ActionType, amount ...int) {
	t.Helper()
	var amt *int
	if len(amount) > 0 {
		amt = &amount[0]
	}
	require.NoError(t, table.Apply(playerID, action, amt))
	assertPotMatchesContributions(t, table)
}

func assertPotMatchesContributions(t *testing.T, table *Table) {
	t.Helper()
	committed := 0
	for _, p := range table.players {
		committed += p.TotalBetThisHand
	}
	assert.Equal(t, table.pot, committed, "pot must equal the sum of contributions")
}

func totalChips(table *Table) int {
	total := table.pot
	for _, p := range table.players {
		total += p.Balance
	}
	return total
}

func balance(t *testing.T, table *Table, id string) int {
	t.Helper()
	p, ok := table.Player(id)
	require.True(t, ok)
	return p.Balance
}

func turn(table *Table) string {
	id, _, _ := table.Turn()
	return id
}

func TestSeatingLastPlayerStartsHand(t *testing.T) {
	table := newTestTable(t, 3)

	assert.Equal(t, PhaseBetting, table.Phase())
	assert.Equal(t, 300, table.Pot())
	assert.Equal(t, 100, table.CurrentBet())
	assert.Equal(t, "p1", turn(table))
	assert.Equal(t, models.DeckSize-9, table.deck.Remaining())
	for _, p := range table.players {
		assert.Len(t, p.Hand, 3)
		assert.Equal(t, startingBalance-100, p.Balance)
	}
	assertPotMatchesContributions(t, table)
	assert.Equal(t, 3*startingBalance, totalChips(table))
}

func TestSeatRejections(t *testing.T) {
	table := NewTable(Options{ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 3})
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: startingBalance}))
	assert.ErrorIs(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: startingBalance}), models.ErrAlreadySeated)

	full := newTestTable(t, 2)
	assert.ErrorIs(t, full.Seat(SeatRequest{PlayerID: "p9", Balance: startingBalance}), models.ErrInvalidPhaseTransition)
}

func TestShowdownPaysSekaOverHighCard(t *testing.T) {
	table := newTestTable(t, 2, "Kh Kd Ks 9c 10d Js")
	require.Equal(t, 200, table.Pot())

	act(t, table, "p1", models.ActionCheck)
	act(t, table, "p2", models.ActionCheck)

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, 0, table.Pot())
	assert.Equal(t, 1100, balance(t, table, "p1"))
	assert.Equal(t, 900, balance(t, table, "p2"))

	result := table.LastResult()
	require.NotNil(t, result)
	assert.Equal(t, []string{"p1"}, result.Winners)
	assert.Equal(t, 200, result.Pot)
	assert.Equal(t, map[string]int{"p1": 100, "p2": -100}, result.ChipChanges)
	assert.True(t, result.Final())
}

func TestRaiseRequiresOthersToRespond(t *testing.T) {
	table := newTestTable(t, 3, "Kh Kd Ks 9c 10d Js Ah Ad Qc")

	act(t, table, "p1", models.ActionCheck)
	act(t, table, "p2", models.ActionCheck)
	act(t, table, "p3", models.ActionRaise, 300)
	assert.Equal(t, 300, table.CurrentBet())
	assert.Equal(t, PhaseBetting, table.Phase())

	assert.ErrorIs(t, table.Apply("p1", models.ActionCheck, nil), models.ErrInvalidAction)
	act(t, table, "p1", models.ActionCall)
	assert.Equal(t, "p2", turn(table))
	act(t, table, "p2", models.ActionFold)

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, []string{"p1"}, table.LastResult().Winners)
	assert.Equal(t, startingBalance+400, balance(t, table, "p1"))
	assert.Equal(t, startingBalance-300, balance(t, table, "p3"))
}

func TestRejectedActionsLeaveStateUnchanged(t *testing.T) {
	table := newTestTable(t, 3)
	before := table.Snapshot("p1")

	ten := 10
	tooMuch := 600
	tests := []struct {
		name     string
		playerID string
		action   models.ActionType
		amount   *int
		err      error
	}{
		{"out of turn", "p2", models.ActionCheck, nil, models.ErrNotYourTurn},
		{"below min bet", "p1", models.ActionRaise, &ten, models.ErrInvalidBetAmount},
		{"above max bet", "p1", models.ActionBet, &tooMuch, models.ErrInvalidBetAmount},
		{"missing amount", "p1", models.ActionRaise, nil, models.ErrInvalidBetAmount},
		{"wrong all-in amount", "p1", models.ActionAllIn, &ten, models.ErrInvalidBetAmount},
		{"all-in above max bet", "p1", models.ActionAllIn, nil, models.ErrInvalidBetAmount},
		{"unknown player", "ghost", models.ActionFold, nil, models.ErrPlayerNotSeated},
		{"unknown action", "p1", models.ActionType("shove"), nil, models.ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, table.Apply(tt.playerID, tt.action, tt.amount), tt.err)
			assert.Equal(t, before, table.Snapshot("p1"))
		})
	}
}

func TestActionOutsideBettingIsRejected(t *testing.T) {
	table := NewTable(Options{ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 3})
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: startingBalance}))
	assert.ErrorIs(t, table.Apply("p1", models.ActionCheck, nil), models.ErrInvalidPhaseTransition)
}

func TestCallWithNothingOwedChecks(t *testing.T) {
	table := newTestTable(t, 2)
	act(t, table, "p1", models.ActionCall)
	assert.Equal(t, "p2", turn(table))
	assert.Equal(t, 200, table.Pot())
}

func TestAllInSkipsPlayerForRestOfRound(t *testing.T) {
	table := NewTable(Options{ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 3, NewDeck: deckSequence("Kh Kd Ks 9c 10d Js Ah Ad Qc")})
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: 1000}))
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p2", Balance: 250}))
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p3", Balance: 1000}))

	require.NoError(t, table.Apply("p1", models.ActionCheck, nil))
	require.NoError(t, table.Apply("p2", models.ActionAllIn, nil))
	assert.Equal(t, 250, table.CurrentBet())
	p2, _ := table.Player("p2")
	assert.Equal(t, StatusAllIn, p2.Status)
	assert.Equal(t, 0, p2.Balance)

	require.NoError(t, table.Apply("p3", models.ActionCall, nil))
	require.NoError(t, table.Apply("p1", models.ActionCall, nil))

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, []string{"p1"}, table.LastResult().Winners)
	assert.Equal(t, 1000+500, balance(t, table, "p1"))
	_, stillSeated := table.Player("p2")
	assert.False(t, stillSeated, "busted players leave the table")
}

func TestAllInAboveMaxBetIsRejected(t *testing.T) {
	table := newTestTable(t, 2)
	before := table.Snapshot("p1")

	assert.ErrorIs(t, table.Apply("p1", models.ActionAllIn, nil), models.ErrInvalidBetAmount)
	assert.Equal(t, before, table.Snapshot("p1"))
	assert.LessOrEqual(t, table.CurrentBet(), table.MaxBet())

	act(t, table, "p1", models.ActionRaise, 500)
	assert.Equal(t, 500, table.CurrentBet())
	act(t, table, "p2", models.ActionCall)
	assert.Equal(t, startingBalance*2, totalChips(table))
}

func TestCurrentBetNeverDecreasesWithinRound(t *testing.T) {
	table := newTestTable(t, 3)

	steps := []struct {
		playerID string
		action   models.ActionType
		amount   []int
	}{
		{"p1", models.ActionRaise, []int{200}},
		{"p2", models.ActionCall, nil},
		{"p3", models.ActionRaise, []int{400}},
		{"p1", models.ActionCall, nil},
		{"p2", models.ActionRaise, []int{500}},
		{"p3", models.ActionCall, nil},
	}

	last := table.CurrentBet()
	for _, step := range steps {
		act(t, table, step.playerID, step.action, step.amount...)
		require.Equal(t, PhaseBetting, table.Phase())
		assert.GreaterOrEqual(t, table.CurrentBet(), last, "%s %s", step.playerID, step.action)
		assert.LessOrEqual(t, table.CurrentBet(), table.MaxBet())
		last = table.CurrentBet()
	}
	assert.Equal(t, 500, last)
}

func TestAutoFoldOnDeadlineAdvancesTurn(t *testing.T) {
	table := newTestTable(t, 3)
	act(t, table, "p1", models.ActionCheck)

	id, seq, ok := table.Turn()
	require.True(t, ok)
	require.Equal(t, "p2", id)

	require.NoError(t, table.AutoFold("p2", seq))
	p2, _ := table.Player("p2")
	assert.Equal(t, StatusFolded, p2.Status)
	assert.Equal(t, "p3", turn(table))

	assert.ErrorIs(t, table.AutoFold("p2", seq), ErrStaleDeadline)
	assert.ErrorIs(t, table.AutoFold("p3", seq), ErrStaleDeadline)
}

func TestTiedShowdownStartsSvaraForTiedPlayersOnly(t *testing.T) {
	table := newTestTable(t, 3,
		"Ah 10h 9h As 10s 9s Kc Kd Qh",
		"Kh Kd Ks 9c 10d Js",
	)

	act(t, table, "p1", models.ActionCheck)
	act(t, table, "p2", models.ActionCheck)
	act(t, table, "p3", models.ActionFold)

	assert.Equal(t, PhaseBetting, table.Phase())
	assert.Equal(t, []string{"p1", "p2"}, table.svaraParticipants)
	assert.Equal(t, 500, table.Pot())
	assert.Equal(t, 3*startingBalance, totalChips(table))
	p3, _ := table.Player("p3")
	assert.Equal(t, StatusFolded, p3.Status)
	assert.Empty(t, p3.Hand)
	assert.Equal(t, "p1", turn(table))

	svara := table.LastResult()
	require.NotNil(t, svara)
	assert.Equal(t, "svara", svara.Outcome)
	assert.False(t, svara.Final())

	act(t, table, "p1", models.ActionCheck)
	act(t, table, "p2", models.ActionCheck)

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, 1300, balance(t, table, "p1"))
	assert.Equal(t, 800, balance(t, table, "p2"))
	assert.Equal(t, 900, balance(t, table, "p3"))
}

func TestLeaveMidHandFoldsAndRemovesAtHandEnd(t *testing.T) {
	table := newTestTable(t, 3, "Kh Kd Ks 9c 10d Js Ah Ad Qc")

	require.NoError(t, table.Leave("p2", "left"))
	assert.Equal(t, "p1", turn(table))
	assert.Equal(t, 300, table.Pot())

	act(t, table, "p1", models.ActionCheck)
	act(t, table, "p3", models.ActionCheck)

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, []string{"p1", "p3"}, table.PlayerIDs())
	assert.Equal(t, startingBalance+200, balance(t, table, "p1"))
}

func TestLastOpponentLeavingAwardsPot(t *testing.T) {
	table := newTestTable(t, 2)
	require.NoError(t, table.Leave("p1", "left"))

	assert.Equal(t, PhaseFinished, table.Phase())
	assert.Equal(t, "fold_win", table.LastResult().Outcome)
	assert.Equal(t, startingBalance+100, balance(t, table, "p2"))
	assert.Equal(t, []string{"p2"}, table.PlayerIDs())
}

func TestContinueRotatesDealer(t *testing.T) {
	table := newTestTable(t, 2)
	act(t, table, "p1", models.ActionFold)
	require.Equal(t, PhaseFinished, table.Phase())

	require.NoError(t, table.Continue())
	assert.Equal(t, 2, table.HandNumber())
	assert.Equal(t, PhaseBetting, table.Phase())
	assert.Equal(t, "p2", turn(table))
}

func TestButtonPassesToNextSeatWhenDealerLeaves(t *testing.T) {
	table := NewTable(Options{ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 3, Private: true, HostID: "p1"})
	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, table.Seat(SeatRequest{PlayerID: id, Balance: startingBalance}))
	}
	act(t, table, "p1", models.ActionFold)
	act(t, table, "p2", models.ActionFold)
	require.NoError(t, table.Continue())

	require.True(t, table.Snapshot("").Players[0].IsDealer, "p1 deals the second hand")
	act(t, table, "p2", models.ActionFold)
	act(t, table, "p3", models.ActionFold)
	require.Equal(t, PhaseFinished, table.Phase())

	require.NoError(t, table.Leave("p1", "left"))
	require.NoError(t, table.Continue())

	players := table.Snapshot("").Players
	require.Len(t, players, 2)
	assert.Equal(t, "p2", players[0].ID)
	assert.True(t, players[0].IsDealer, "the button moves on to p2")
	assert.Equal(t, "p3", turn(table))
}

func TestContinueWithTooFewPlayersWaits(t *testing.T) {
	table := newTestTable(t, 2)
	require.NoError(t, table.Leave("p1", "left"))

	require.NoError(t, table.Continue())
	assert.Equal(t, PhaseWaiting, table.Phase())
	assert.ErrorIs(t, table.Continue(), models.ErrInvalidPhaseTransition)
}

func TestPrivateTableStartsOnHostCommand(t *testing.T) {
	table := NewTable(Options{ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 6, Private: true, HostID: "p1"})
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: startingBalance}))
	assert.ErrorIs(t, table.Start("p1"), models.ErrNotEnoughPlayers)

	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p2", Balance: startingBalance}))
	assert.ErrorIs(t, table.Start("p2"), models.ErrNotLobbyHost)
	require.NoError(t, table.Start("p1"))
	assert.Equal(t, PhaseBetting, table.Phase())
}

func TestDeckExhaustionIsFatalAndAbortRefunds(t *testing.T) {
	table := NewTable(Options{
		ID: "t", MinBet: 100, MaxBet: 500, RequiredPlayers: 2,
		NewDeck: func() *models.Deck { return models.NewDeckFromCards(models.MustParseCards("Kh Kd Ks 9c")) },
	})
	require.NoError(t, table.Seat(SeatRequest{PlayerID: "p1", Balance: startingBalance}))
	err := table.Seat(SeatRequest{PlayerID: "p2", Balance: startingBalance})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, models.ErrInsufficientCards)

	table.DrainEvents()
	table.Abort("deck exhausted")
	assert.Equal(t, PhaseClosed, table.Phase())
	assert.Equal(t, 0, table.Pot())
	assert.Equal(t, startingBalance, balance(t, table, "p1"))
	assert.Equal(t, startingBalance, balance(t, table, "p2"))

	events := table.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTableAborted, events[0].Type)
	assert.Equal(t, map[string]int{"p1": 100, "p2": 100}, events[0].Refunds)
}

func TestSnapshotHidesOpponentCards(t *testing.T) {
	table := newTestTable(t, 2)
	require.NoError(t, table.SetConnected("p2", false))

	snap := table.Snapshot("p1")
	require.Len(t, snap.Players, 2)
	assert.Len(t, snap.Players[0].Hand, 3)
	assert.Empty(t, snap.Players[1].Hand)
	assert.Equal(t, 3, snap.Players[1].CardCount)
	assert.Equal(t, StatusDisconnected, snap.Players[1].Status)
	assert.Equal(t, "p1", snap.TurnPlayerID)
	assert.True(t, snap.Players[0].IsCurrentTurn)
}

func TestVersionIncreasesOnEveryChange(t *testing.T) {
	table := newTestTable(t, 2)
	v := table.Version()
	act(t, table, "p1", models.ActionCheck)
	assert.Greater(t, table.Version(), v)
}
