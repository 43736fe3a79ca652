package game

import (
	"errors"
	"fmt"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseDealing  Phase = "dealing"
	PhaseBetting  Phase = "betting"
	PhaseShowdown Phase = "showdown"
	PhaseSvara    Phase = "svara"
	PhaseFinished Phase = "finished"
	PhaseClosed   Phase = "closed"
)

// HandSize is the number of cards each player is dealt.
const HandSize = 3

// MaxPlayers is the most players one deck can deal a hand to.
const MaxPlayers = models.DeckSize / HandSize

type PlayerStatus string

const (
	StatusSeated       PlayerStatus = "seated"
	StatusFolded       PlayerStatus = "folded"
	StatusAllIn        PlayerStatus = "all-in"
	StatusDisconnected PlayerStatus = "disconnected"
)

// ErrStaleDeadline is returned when a turn deadline fires for a turn that has already moved on.
var ErrStaleDeadline = errors.New("stale turn deadline")

// ErrFatal marks errors after which the table cannot continue and must be aborted.
var ErrFatal = errors.New("table failure")

func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal) || errors.Is(err, models.ErrInsufficientCards)
}

type Player struct {
	ID               string
	DisplayName      string
	Balance          int
	Hand             []models.Card
	CurrentBet       int
	TotalBetThisHand int
	Status           PlayerStatus
	Connected        bool

	inHand bool
	acted  bool
	left   bool
}

type SeatRequest struct {
	PlayerID    string
	DisplayName string
	Balance     int
}

type Options struct {
	ID              string
	MinBet          int
	MaxBet          int
	RequiredPlayers int
	Private         bool
	HostID          string
	// NewDeck supplies the deck for every deal. Defaults to a freshly shuffled deck.
	NewDeck func() *models.Deck
}

// Table is the authoritative state of one game table. It is not safe for concurrent
// use; the owning room serializes every call.
type Table struct {
	id              string
	minBet          int
	maxBet          int
	requiredPlayers int
	private         bool
	hostID          string
	newDeck         func() *models.Deck

	players    []*Player
	deck       *models.Deck
	pot        int
	currentBet int
	phase      Phase
	turn       int
	dealer     int

	svaraParticipants []string
	version           uint64
	turnSeq           uint64
	handNumber        int
	lastResult        *HandResult
	events            []Event
}

func NewTable(opts Options) *Table {
	if opts.NewDeck == nil {
		opts.NewDeck = models.NewShuffledDeck
	}
	if opts.RequiredPlayers < 2 {
		opts.RequiredPlayers = 2
	}
	if opts.RequiredPlayers > MaxPlayers {
		opts.RequiredPlayers = MaxPlayers
	}

	return &Table{
		id:              opts.ID,
		minBet:          opts.MinBet,
		maxBet:          opts.MaxBet,
		requiredPlayers: opts.RequiredPlayers,
		private:         opts.Private,
		hostID:          opts.HostID,
		newDeck:         opts.NewDeck,
		phase:           PhaseWaiting,
		turn:            -1,
		dealer:          -1,
	}
}

func (t *Table) ID() string { return t.id }
func (t *Table) Phase() Phase { return t.phase }
func (t *Table) Version() uint64 { return t.version }
func (t *Table) Pot() int { return t.pot }
func (t *Table) CurrentBet() int { return t.currentBet }
func (t *Table) MinBet() int { return t.minBet }
func (t *Table) MaxBet() int { return t.maxBet }
func (t *Table) RequiredPlayers() int { return t.requiredPlayers }
func (t *Table) Private() bool { return t.private }
func (t *Table) HostID() string { return t.hostID }
func (t *Table) HandNumber() int { return t.handNumber }
func (t *Table) LastResult() *HandResult { return t.lastResult }
func (t *Table) IsEmpty() bool { return len(t.players) == 0 }
func (t *Table) SeatCount() int { return len(t.players) }

// Turn returns the player to act and the turn sequence number that identifies this turn.
func (t *Table) Turn() (string, uint64, bool) {
	if t.phase != PhaseBetting || t.turn < 0 {
		return "", 0, false
	}
	return t.players[t.turn].ID, t.turnSeq, true
}

func (t *Table) PlayerIDs() []string {
	ids := make([]string, 0, len(t.players))
	for _, p := range t.players {
		ids = append(ids, p.ID)
	}
	return ids
}

// Audience lists the players who still receive table updates, excluding those who left mid-hand.
func (t *Table) Audience() []string {
	ids := make([]string, 0, len(t.players))
	for _, p := range t.players {
		if !p.left {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (t *Table) Player(id string) (Player, bool) {
	p := t.player(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// DrainEvents returns and clears the events produced since the last call.
func (t *Table) DrainEvents() []Event {
	events := t.events
	t.events = nil
	return events
}

// Seat adds a player while the table is waiting. Filling the last seat starts the first hand.
func (t *Table) Seat(req SeatRequest) error {
	if t.phase == PhaseClosed {
		return models.ErrTableClosed
	}
	if t.phase != PhaseWaiting {
		return models.ErrInvalidPhaseTransition
	}
	if t.player(req.PlayerID) != nil {
		return models.ErrAlreadySeated
	}
	if len(t.players) >= t.requiredPlayers {
		return models.ErrLobbyFull
	}

	t.players = append(t.players, &Player{
		ID:          req.PlayerID,
		DisplayName: req.DisplayName,
		Balance:     req.Balance,
		Status:      StatusSeated,
		Connected:   true,
	})
	if t.hostID == "" {
		t.hostID = req.PlayerID
	}
	t.touch()
	t.emit(Event{Type: EventPlayerJoined, PlayerID: req.PlayerID})

	if len(t.players) == t.requiredPlayers {
		return t.startHand()
	}
	return nil
}

// Start begins the first hand of a private table at the host's request.
func (t *Table) Start(playerID string) error {
	if t.phase == PhaseClosed {
		return models.ErrTableClosed
	}
	if t.player(playerID) == nil {
		return models.ErrPlayerNotSeated
	}
	if !t.private || playerID != t.hostID {
		return models.ErrNotLobbyHost
	}
	if t.phase != PhaseWaiting {
		return models.ErrInvalidPhaseTransition
	}
	if len(t.players) < 2 {
		return models.ErrNotEnoughPlayers
	}
	return t.startHand()
}

// Continue moves a finished table on: another hand when enough players remain, waiting otherwise.
func (t *Table) Continue() error {
	if t.phase != PhaseFinished {
		return models.ErrInvalidPhaseTransition
	}
	if len(t.players) >= t.continueThreshold() {
		return t.startHand()
	}

	for _, p := range t.players {
		p.Hand = nil
		p.inHand = false
		p.Status = StatusSeated
	}
	t.setPhase(PhaseWaiting)
	return nil
}

func (t *Table) continueThreshold() int {
	if t.private {
		return 2
	}
	return t.requiredPlayers
}

// SetConnected records a connection change without affecting the hand.
func (t *Table) SetConnected(playerID string, connected bool) error {
	p := t.player(playerID)
	if p == nil {
		return models.ErrPlayerNotSeated
	}
	if p.Connected == connected {
		return nil
	}

	p.Connected = connected
	t.touch()
	if connected {
		t.emit(Event{Type: EventPlayerJoined, PlayerID: playerID, Reason: "reconnected"})
	} else {
		t.emit(Event{Type: EventPlayerLeft, PlayerID: playerID, Reason: "disconnected"})
	}
	return nil
}

// Leave removes a player. During a hand the player is folded and stays listed until the
// hand ends so that their contribution remains in the pot.
func (t *Table) Leave(playerID, reason string) error {
	p := t.player(playerID)
	if p == nil || p.left {
		return models.ErrPlayerNotSeated
	}

	switch t.phase {
	case PhaseWaiting, PhaseFinished, PhaseClosed:
		t.remove(p, reason)
		t.touch()
		return nil
	}

	p.left = true
	p.Connected = false
	t.emit(Event{Type: EventPlayerLeft, PlayerID: playerID, Reason: reason})
	if t.hostID == playerID {
		t.passHost()
	}
	t.touch()

	if !p.inHand || p.Status == StatusFolded {
		return nil
	}

	wasTurn := t.turn >= 0 && t.players[t.turn] == p
	p.Status = StatusFolded
	if t.phase != PhaseBetting {
		return nil
	}
	return t.advance(wasTurn)
}

// AutoFold folds the player on turn when their deadline expires. Deadlines for turns
// that already ended return ErrStaleDeadline and change nothing.
func (t *Table) AutoFold(playerID string, turnSeq uint64) error {
	current, seq, ok := t.Turn()
	if !ok || current != playerID || seq != turnSeq {
		return ErrStaleDeadline
	}
	return t.Apply(playerID, models.ActionFold, nil)
}

// Abort refunds every contribution to the current hand and closes the table. Aborting a
// closed table does nothing.
func (t *Table) Abort(reason string) {
	if t.phase == PhaseClosed {
		return
	}
	refunds := make(map[string]int, len(t.players))
	for _, p := range t.players {
		if p.TotalBetThisHand > 0 {
			p.Balance += p.TotalBetThisHand
			refunds[p.ID] = p.TotalBetThisHand
		}
		p.TotalBetThisHand = 0
		p.CurrentBet = 0
		p.Hand = nil
	}

	t.pot = 0
	t.currentBet = 0
	t.turn = -1
	t.setPhase(PhaseClosed)
	t.emit(Event{Type: EventTableAborted, Reason: reason, Refunds: refunds})
}

func (t *Table) startHand() error {
	t.handNumber++
	t.svaraParticipants = nil
	t.pot = 0
	for _, p := range t.players {
		p.Hand = nil
		p.CurrentBet = 0
		p.TotalBetThisHand = 0
		p.Status = StatusSeated
		p.acted = false
		p.inHand = true
	}
	t.dealer = (t.dealer + 1) % len(t.players)
	if t.handNumber == 1 {
		// First hand: dealing and action start at the first seat.
		t.dealer = len(t.players) - 1
	}

	t.emit(Event{Type: EventHandStarted})
	return t.dealRound()
}

// dealRound collects the ante from every player in the hand, deals them a fresh deck
// and opens betting.
func (t *Table) dealRound() error {
	t.setPhase(PhaseDealing)
	t.currentBet = t.minBet

	for _, p := range t.players {
		if !p.inHand {
			continue
		}
		t.commit(p, min(t.minBet, p.Balance))
		if p.Balance == 0 {
			p.Status = StatusAllIn
		}
	}

	t.deck = t.newDeck()
	n := len(t.players)
	for i := 1; i <= n; i++ {
		p := t.players[(t.dealer+i)%n]
		if !p.inHand {
			continue
		}
		cards, err := t.deck.Deal(HandSize)
		if err != nil {
			return fmt.Errorf("dealing to %s: %w", p.ID, err)
		}
		p.Hand = cards
	}

	return t.openBetting()
}

func (t *Table) openBetting() error {
	t.setPhase(PhaseBetting)
	for _, p := range t.players {
		p.acted = false
	}

	if next := t.nextToAct(t.dealer); next >= 0 {
		t.setTurn(next)
		return nil
	}
	return t.showdown()
}

// Apply validates and applies a betting action. A rejected action leaves the table unchanged.
func (t *Table) Apply(playerID string, action models.ActionType, amount *int) error {
	if t.phase == PhaseClosed {
		return models.ErrTableClosed
	}
	if t.phase != PhaseBetting {
		return models.ErrInvalidPhaseTransition
	}
	p := t.player(playerID)
	if p == nil || !p.inHand || p.left {
		return models.ErrPlayerNotSeated
	}
	if t.turn < 0 || t.players[t.turn] != p {
		return models.ErrNotYourTurn
	}

	owed := t.currentBet - p.CurrentBet

	switch action {
	case models.ActionFold:
		p.Status = StatusFolded

	case models.ActionCheck:
		if owed > 0 {
			return models.ErrInvalidAction
		}

	case models.ActionCall:
		if owed > 0 {
			t.commit(p, min(owed, p.Balance))
		}

	case models.ActionBet, models.ActionRaise:
		if amount == nil {
			return models.ErrInvalidBetAmount
		}
		to := *amount
		if to < t.minBet || to > t.maxBet || to < t.currentBet || to-p.CurrentBet > p.Balance {
			return models.ErrInvalidBetAmount
		}
		t.commit(p, to-p.CurrentBet)
		t.raiseTo(p, to)

	case models.ActionAllIn:
		if p.Balance == 0 {
			return models.ErrInvalidAction
		}
		if amount != nil && *amount != p.Balance {
			return models.ErrInvalidBetAmount
		}
		if p.CurrentBet+p.Balance > t.maxBet {
			return models.ErrInvalidBetAmount
		}
		t.commit(p, p.Balance)
		t.raiseTo(p, p.CurrentBet)

	default:
		return models.ErrInvalidAction
	}

	if p.Status == StatusSeated && p.Balance == 0 {
		p.Status = StatusAllIn
	}
	p.acted = true
	t.touch()
	t.emit(Event{Type: EventPlayerActed, PlayerID: playerID, Action: action, Amount: p.CurrentBet})

	return t.advance(true)
}

func (t *Table) raiseTo(p *Player, level int) {
	if level <= t.currentBet {
		return
	}
	t.currentBet = level
	for _, other := range t.players {
		if other != p {
			other.acted = false
		}
	}
}

func (t *Table) commit(p *Player, amount int) {
	p.Balance -= amount
	p.CurrentBet += amount
	p.TotalBetThisHand += amount
	t.pot += amount
}

// advance ends the hand, ends the round or passes the turn. moveTurn is false when a
// player other than the one on turn dropped out.
func (t *Table) advance(moveTurn bool) error {
	contenders := t.contenders()
	if len(contenders) == 1 {
		return t.finishHand(contenders[0], "fold_win", nil)
	}

	if !moveTurn && t.turn >= 0 && t.needsToAct(t.players[t.turn]) {
		return nil
	}

	if next := t.nextToAct(t.turn); next >= 0 {
		t.setTurn(next)
		return nil
	}
	return t.showdown()
}

func (t *Table) needsToAct(p *Player) bool {
	return p.inHand && p.Status == StatusSeated && (!p.acted || p.CurrentBet < t.currentBet)
}

func (t *Table) nextToAct(from int) int {
	n := len(t.players)
	for i := 1; i <= n; i++ {
		idx := (from + i + n) % n
		if t.needsToAct(t.players[idx]) {
			return idx
		}
	}
	return -1
}

func (t *Table) contenders() []*Player {
	var out []*Player
	for _, p := range t.players {
		if p.inHand && p.Status != StatusFolded {
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) showdown() error {
	t.setPhase(PhaseShowdown)
	t.turn = -1

	contenders := t.contenders()
	ids := make([]string, 0, len(contenders))
	hands := make(map[string][]models.Card, len(contenders))
	for _, p := range contenders {
		ids = append(ids, p.ID)
		hands[p.ID] = p.Hand
	}

	ranked, winners, err := Rank(ids, hands)
	if err != nil {
		return fmt.Errorf("%w: showdown: %v", ErrFatal, err)
	}

	if len(winners) == 1 {
		return t.finishHand(t.player(winners[0]), "showdown", ranked)
	}
	return t.startSvara(winners, ranked)
}

// startSvara replays a tied showdown among the tied players. The pot carries over and
// everyone else sits the replay out.
func (t *Table) startSvara(ids []string, ranked []RankedHand) error {
	t.setPhase(PhaseSvara)
	t.svaraParticipants = append([]string(nil), ids...)

	tied := make(map[string]bool, len(ids))
	for _, id := range ids {
		tied[id] = true
	}
	for _, p := range t.players {
		p.Hand = nil
		p.CurrentBet = 0
		p.acted = false
		if !tied[p.ID] {
			if p.inHand {
				p.Status = StatusFolded
			}
			p.inHand = false
			continue
		}
		if p.Balance > 0 {
			p.Status = StatusSeated
		}
	}

	t.lastResult = &HandResult{
		HandNumber: t.handNumber,
		Outcome:    "svara",
		Winners:    append([]string(nil), ids...),
		Pot:        t.pot,
		Hands:      ranked,
	}
	t.emit(Event{Type: EventSvara, Result: t.lastResult})
	return t.dealRound()
}

func (t *Table) finishHand(winner *Player, outcome string, ranked []RankedHand) error {
	changes := make(map[string]int, len(t.players))
	for _, p := range t.players {
		if p.TotalBetThisHand > 0 {
			changes[p.ID] = -p.TotalBetThisHand
		}
	}
	changes[winner.ID] += t.pot

	result := &HandResult{
		HandNumber:  t.handNumber,
		Outcome:     outcome,
		Winners:     []string{winner.ID},
		Pot:         t.pot,
		Hands:       ranked,
		ChipChanges: changes,
	}

	winner.Balance += t.pot
	t.pot = 0
	t.currentBet = 0
	t.turn = -1
	for _, p := range t.players {
		p.CurrentBet = 0
		p.TotalBetThisHand = 0
	}

	t.lastResult = result
	t.setPhase(PhaseFinished)
	t.emit(Event{Type: EventHandFinished, Result: result})

	for _, p := range append([]*Player(nil), t.players...) {
		switch {
		case p.left:
			t.remove(p, "")
		case p.Balance == 0:
			t.remove(p, "busted")
		}
	}
	return nil
}

// remove drops a player from the seat list. An empty reason means the departure was
// already announced.
func (t *Table) remove(p *Player, reason string) {
	for i, seated := range t.players {
		if seated != p {
			continue
		}
		t.players = append(t.players[:i], t.players[i+1:]...)
		// The button passes back one seat so the next hand gives it to whoever now
		// sits after the removed player.
		if n := len(t.players); n > 0 && i <= t.dealer {
			t.dealer = (t.dealer - 1 + n) % n
		}
		break
	}

	if reason != "" {
		t.emit(Event{Type: EventPlayerLeft, PlayerID: p.ID, Reason: reason})
	}
	t.emit(Event{Type: EventPlayerRemoved, PlayerID: p.ID, Amount: p.Balance})
	if t.hostID == p.ID {
		t.passHost()
	}
}

func (t *Table) passHost() {
	t.hostID = ""
	for _, p := range t.players {
		if !p.left {
			t.hostID = p.ID
			return
		}
	}
}

func (t *Table) player(id string) *Player {
	for _, p := range t.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) setTurn(idx int) {
	t.turn = idx
	t.turnSeq++
	t.touch()
	t.emit(Event{Type: EventTurnChanged, PlayerID: t.players[idx].ID, TurnSeq: t.turnSeq})
}

func (t *Table) setPhase(phase Phase) {
	t.phase = phase
	t.touch()
}

func (t *Table) touch() {
	t.version++
}

func (t *Table) emit(e Event) {
	t.events = append(t.events, e)
}
