package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/data"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		username TEXT NOT NULL,
		chips BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PgPlayerStore resolves player profiles from the players table. Unknown players are
// registered with the starting balance on first connect.
type PgPlayerStore struct {
	Db              data.QueryRunner
	StartingBalance int
}

func NewPgPlayerStore(db data.QueryRunner, startingBalance int) *PgPlayerStore {
	return &PgPlayerStore{Db: db, StartingBalance: startingBalance}
}

func (s *PgPlayerStore) Migrate(ctx context.Context) error {
	_, err := s.Db.Exec(ctx, schema)
	return err
}

func (s *PgPlayerStore) GetPlayerByID(ctx context.Context, id string) (*models.Player, error) {
	var query = `SELECT id, username, chips FROM players WHERE id = $1`

	result := &models.Player{}
	err := s.Db.QueryRow(ctx, query, id).Scan(&result.ID, &result.Username, &result.Chips)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result, nil
}

func (s *PgPlayerStore) CreatePlayer(ctx context.Context, player *models.Player, userID string) error {
	var query = `
		INSERT INTO players (id, user_id, username, chips)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.Db.Exec(ctx, query, player.ID, userID, player.Username, player.Chips)
	return err
}

func (s *PgPlayerStore) GetProfile(ctx context.Context, _ string, claims *utils.Claims) (models.Profile, error) {
	player, err := s.GetPlayerByID(ctx, claims.PlayerID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("loading player %s: %w", claims.PlayerID, err)
	}

	if player == nil {
		name := claims.DisplayName
		if name == "" {
			name = claims.PlayerID
		}
		player = &models.Player{ID: claims.PlayerID, Username: name, Chips: int64(s.StartingBalance)}
		if err := s.CreatePlayer(ctx, player, claims.UserID); err != nil {
			return models.Profile{}, fmt.Errorf("registering player %s: %w", claims.PlayerID, err)
		}
	}

	user := models.User{ID: claims.UserID, Player: player}
	return user.Profile(), nil
}
