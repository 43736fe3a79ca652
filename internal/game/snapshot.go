package game

import "github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"

type PlayerView struct {
	ID               string        `json:"id"`
	DisplayName      string        `json:"displayName"`
	Balance          int           `json:"balance"`
	Hand             []models.Card `json:"hand,omitempty"`
	CardCount        int           `json:"cardCount"`
	CurrentBet       int           `json:"currentBet"`
	TotalBetThisHand int           `json:"totalBetThisHand"`
	Status           PlayerStatus  `json:"status"`
	IsDealer         bool          `json:"isDealer"`
	IsCurrentTurn    bool          `json:"isCurrentTurn"`
}

// Snapshot is the game_state payload as seen by one player.
type Snapshot struct {
	TableID           string       `json:"tableId"`
	Version           uint64       `json:"version"`
	HandNumber        int          `json:"handNumber"`
	Phase             Phase        `json:"phase"`
	Pot               int          `json:"pot"`
	CurrentBet        int          `json:"currentBet"`
	MinBet            int          `json:"minBet"`
	MaxBet            int          `json:"maxBet"`
	RequiredPlayers   int          `json:"requiredPlayers"`
	Private           bool         `json:"private"`
	HostID            string       `json:"hostId,omitempty"`
	TurnPlayerID      string       `json:"turnPlayerId,omitempty"`
	TurnSeq           uint64       `json:"turnSeq"`
	Players           []PlayerView `json:"players"`
	SvaraParticipants []string     `json:"svaraParticipants,omitempty"`
	LastResult        *HandResult  `json:"lastResult,omitempty"`
}

// Snapshot renders the table for viewer. Only the viewer's own cards are included;
// other hands become visible through the revealed hands of LastResult.
func (t *Table) Snapshot(viewer string) Snapshot {
	s := Snapshot{
		TableID:           t.id,
		Version:           t.version,
		HandNumber:        t.handNumber,
		Phase:             t.phase,
		Pot:               t.pot,
		CurrentBet:        t.currentBet,
		MinBet:            t.minBet,
		MaxBet:            t.maxBet,
		RequiredPlayers:   t.requiredPlayers,
		Private:           t.private,
		HostID:            t.hostID,
		SvaraParticipants: append([]string(nil), t.svaraParticipants...),
		LastResult:        t.lastResult,
		Players:           make([]PlayerView, 0, len(t.players)),
	}
	if id, seq, ok := t.Turn(); ok {
		s.TurnPlayerID = id
		s.TurnSeq = seq
	}

	for i, p := range t.players {
		view := PlayerView{
			ID:               p.ID,
			DisplayName:      p.DisplayName,
			Balance:          p.Balance,
			CardCount:        len(p.Hand),
			CurrentBet:       p.CurrentBet,
			TotalBetThisHand: p.TotalBetThisHand,
			Status:           p.Status,
			IsDealer:         i == t.dealer,
			IsCurrentTurn:    p.ID == s.TurnPlayerID,
		}
		if !p.Connected && p.Status == StatusSeated {
			view.Status = StatusDisconnected
		}
		if p.ID == viewer {
			view.Hand = append([]models.Card(nil), p.Hand...)
		}
		s.Players = append(s.Players, view)
	}

	return s
}
