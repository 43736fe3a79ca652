package player

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

type fakeRow struct {
	player *models.Player
}

func (r fakeRow) Scan(dest ...any) error {
	if r.player == nil {
		return pgx.ErrNoRows
	}
	*dest[0].(*string) = r.player.ID
	*dest[1].(*string) = r.player.Username
	*dest[2].(*int64) = r.player.Chips
	return nil
}

// fakeRunner keeps players in memory and answers the store's two statements.
type fakeRunner struct {
	players map[string]*models.Player
	execs   int
}

func (f *fakeRunner) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	panic("not used")
}

func (f *fakeRunner) QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	return fakeRow{player: f.players[args[0].(string)]}
}

func (f *fakeRunner) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs++
	if len(args) == 4 {
		id := args[0].(string)
		if _, exists := f.players[id]; !exists {
			f.players[id] = &models.Player{ID: id, Username: args[2].(string), Chips: args[3].(int64)}
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestGetProfileReadsExistingPlayer(t *testing.T) {
	runner := &fakeRunner{players: map[string]*models.Player{
		"p1": {ID: "p1", Username: "ivan", Chips: 4200},
	}}
	store := NewPgPlayerStore(runner, 10000)

	profile, err := store.GetProfile(context.Background(), "", &utils.Claims{UserID: "u1", PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.Profile{PlayerID: "p1", DisplayName: "ivan", Balance: 4200}, profile)
	assert.Zero(t, runner.execs)
}

func TestGetProfileRegistersUnknownPlayer(t *testing.T) {
	runner := &fakeRunner{players: map[string]*models.Player{}}
	store := NewPgPlayerStore(runner, 10000)
	require.NoError(t, store.Migrate(context.Background()))

	profile, err := store.GetProfile(context.Background(), "", &utils.Claims{UserID: "u9", PlayerID: "p9", DisplayName: "Nina"})
	require.NoError(t, err)
	assert.Equal(t, models.Profile{PlayerID: "p9", DisplayName: "Nina", Balance: 10000}, profile)

	stored, err := store.GetPlayerByID(context.Background(), "p9")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(10000), stored.Chips)
}
