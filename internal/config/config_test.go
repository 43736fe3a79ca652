package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	config, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "8080", config.ServerPort)
	assert.Equal(t, models.DefaultGameConfig(), config.Game)
}

func TestOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("REQUIRED_PLAYERS", "4")
	t.Setenv("TURN_TIMEOUT", "45")
	t.Setenv("RECONNECT_GRACE", "1m30s")
	t.Setenv("MESSAGE_RATE", "2.5")

	config, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "9000", config.ServerPort)
	assert.Equal(t, 4, config.Game.RequiredPlayers)
	assert.Equal(t, 45*time.Second, config.Game.TurnTimeout)
	assert.Equal(t, 90*time.Second, config.Game.ReconnectGrace)
	assert.Equal(t, 2.5, config.Game.MessageRate)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"not a number", "REQUIRED_PLAYERS", "six"},
		{"too few players", "REQUIRED_PLAYERS", "1"},
		{"more players than the deck deals", "REQUIRED_PLAYERS", "9"},
		{"bad duration", "HEARTBEAT_TIMEOUT", "soon"},
		{"inverted stakes", "DEFAULT_MAX_BET", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv(tt.key, tt.value)
			_, err := LoadEnvironment()
			assert.Error(t, err)
		})
	}
}

func TestSecretIsRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadEnvironment()
	assert.Error(t, err)
}
