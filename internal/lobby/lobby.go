package lobby

import (
	"time"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// Lobby groups waiting players until there are enough to start a table.
type Lobby struct {
	ID              string
	Name            string
	Type            models.LobbyType
	HostID          string
	MinBet          int
	MaxBet          int
	RequiredPlayers int
	CreatedAt       time.Time

	waiting []*waiter
}

type waiter struct {
	seat  game.SeatRequest
	timer *time.Timer
}

func (l *Lobby) full() bool {
	return len(l.waiting) >= l.RequiredPlayers
}

func (l *Lobby) index(playerID string) int {
	for i, w := range l.waiting {
		if w.seat.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (l *Lobby) remove(playerID string) *waiter {
	i := l.index(playerID)
	if i < 0 {
		return nil
	}
	w := l.waiting[i]
	l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
	w.stop()

	if l.HostID == playerID {
		l.HostID = ""
		if len(l.waiting) > 0 {
			l.HostID = l.waiting[0].seat.PlayerID
		}
	}
	return w
}

// PlayerIDs returns the waiting players in arrival order.
func (l *Lobby) PlayerIDs() []string {
	ids := make([]string, 0, len(l.waiting))
	for _, w := range l.waiting {
		ids = append(ids, w.seat.PlayerID)
	}
	return ids
}

func (l *Lobby) seats() []game.SeatRequest {
	seats := make([]game.SeatRequest, 0, len(l.waiting))
	for _, w := range l.waiting {
		seats = append(seats, w.seat)
	}
	return seats
}

func (l *Lobby) Info() models.LobbyInfo {
	return models.LobbyInfo{
		LobbyID:         l.ID,
		Name:            l.Name,
		Type:            l.Type,
		MinBet:          l.MinBet,
		MaxBet:          l.MaxBet,
		HostID:          l.HostID,
		PlayersCount:    len(l.waiting),
		RequiredPlayers: l.RequiredPlayers,
	}
}

func (l *Lobby) update(status models.MatchmakingStatus) models.MatchmakingUpdate {
	return models.MatchmakingUpdate{
		LobbyID:         l.ID,
		Status:          status,
		PlayersCount:    len(l.waiting),
		RequiredPlayers: l.RequiredPlayers,
		WaitingPlayers:  l.PlayerIDs(),
	}
}

func (w *waiter) stop() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
