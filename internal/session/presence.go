package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/cache"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// Presence is the cached view of where a player is and whether their socket is live.
type Presence struct {
	PlayerID  string    `json:"playerId"`
	TableID   string    `json:"tableId,omitempty"`
	Connected bool      `json:"connected"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type presenceWrite struct {
	presence Presence
	delete   bool
}

const presenceWriteTimeout = 2 * time.Second

// Run applies presence writes in order until ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-s.writes:
			s.applyPresence(w)
		}
	}
}

func (s *Supervisor) applyPresence(w presenceWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceWriteTimeout)
	defer cancel()

	var err error
	if w.delete {
		err = s.presence.Delete(ctx, w.presence.PlayerID)
	} else {
		err = s.presence.Set(ctx, w.presence.PlayerID, w.presence, s.presenceTTL())
	}
	if err != nil {
		s.logger.Warn("writing presence", zap.String("player_id", w.presence.PlayerID), zap.Error(err))
	}
}

func (s *Supervisor) presenceTTL() time.Duration {
	return s.config.HeartbeatTimeout + s.config.ReconnectGrace
}

func (s *Supervisor) writePresence(playerID, tableID string, connected bool) {
	s.enqueue(presenceWrite{presence: Presence{
		PlayerID:  playerID,
		TableID:   tableID,
		Connected: connected,
		UpdatedAt: time.Now().UTC(),
	}})
}

func (s *Supervisor) deletePresence(playerID string) {
	s.enqueue(presenceWrite{presence: Presence{PlayerID: playerID}, delete: true})
}

func (s *Supervisor) enqueue(w presenceWrite) {
	select {
	case s.writes <- w:
	default:
		s.logger.Warn("presence queue full, dropping write", zap.String("player_id", w.presence.PlayerID))
	}
}

// Presence returns the cached presence of a player.
func (s *Supervisor) Presence(ctx context.Context, playerID string) (Presence, error) {
	p, err := s.presence.Get(ctx, playerID)
	if errors.Is(err, cache.ErrKeyNotFound) {
		return Presence{}, models.ErrPlayerNotSeated
	}
	return p, err
}
