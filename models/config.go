package models

import "time"

type Config struct {
	DatabaseURL  string
	DatabaseName string
	MqURL        string
	CacheURL     string
	ElasticUrl   string
	JWTSecret    string
	ServiceName  string
	ServerPort   string
	ApiUrl       string

	Game GameConfig
}

// GameConfig holds the table, lobby and session tuning knobs.
type GameConfig struct {
	RequiredPlayers    int
	DefaultMinBet      int
	DefaultMaxBet      int
	StartingBalance    int
	TurnTimeout        time.Duration
	HeartbeatTimeout   time.Duration
	ReconnectGrace     time.Duration
	MatchmakingTimeout time.Duration
	NextHandDelay      time.Duration
	MessageRate        float64
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		RequiredPlayers:    6,
		DefaultMinBet:      100,
		DefaultMaxBet:      500,
		StartingBalance:    10000,
		TurnTimeout:        30 * time.Second,
		HeartbeatTimeout:   15 * time.Second,
		ReconnectGrace:     30 * time.Second,
		MatchmakingTimeout: 30 * time.Second,
		NextHandDelay:      3 * time.Second,
		MessageRate:        20,
	}
}
