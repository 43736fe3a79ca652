package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// LoadEnvironment reads .env, if present, and then the process environment. Game tuning
// falls back to models.DefaultGameConfig for every unset variable.
func LoadEnvironment() (*models.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	game, err := loadGameConfig()
	if err != nil {
		return nil, err
	}

	config := &models.Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		MqURL:        os.Getenv("MQ_URL"),
		CacheURL:     os.Getenv("CACHE_URL"),
		ElasticUrl:   os.Getenv("ELASTIC_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ServiceName:  getOr("SERVICE_NAME", "seka"),
		ServerPort:   getOr("PORT", "8080"),
		ApiUrl:       os.Getenv("API_URL"),
		Game:         game,
	}
	if config.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return config, nil
}

func loadGameConfig() (models.GameConfig, error) {
	g := models.DefaultGameConfig()
	p := parser{}

	g.RequiredPlayers = p.int("REQUIRED_PLAYERS", g.RequiredPlayers)
	g.DefaultMinBet = p.int("DEFAULT_MIN_BET", g.DefaultMinBet)
	g.DefaultMaxBet = p.int("DEFAULT_MAX_BET", g.DefaultMaxBet)
	g.StartingBalance = p.int("STARTING_BALANCE", g.StartingBalance)
	g.TurnTimeout = p.duration("TURN_TIMEOUT", g.TurnTimeout)
	g.HeartbeatTimeout = p.duration("HEARTBEAT_TIMEOUT", g.HeartbeatTimeout)
	g.ReconnectGrace = p.duration("RECONNECT_GRACE", g.ReconnectGrace)
	g.MatchmakingTimeout = p.duration("MATCHMAKING_TIMEOUT", g.MatchmakingTimeout)
	g.NextHandDelay = p.duration("NEXT_HAND_DELAY", g.NextHandDelay)
	g.MessageRate = p.float("MESSAGE_RATE", g.MessageRate)
	if p.err != nil {
		return g, p.err
	}

	switch {
	case g.RequiredPlayers < 2 || g.RequiredPlayers > game.MaxPlayers:
		return g, fmt.Errorf("REQUIRED_PLAYERS must be between 2 and %d, got %d", game.MaxPlayers, g.RequiredPlayers)
	case g.DefaultMinBet <= 0 || g.DefaultMaxBet < g.DefaultMinBet:
		return g, fmt.Errorf("invalid default stakes %d/%d", g.DefaultMinBet, g.DefaultMaxBet)
	}
	return g, nil
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first error so a block of variables can be read without checks in
// between.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return f
}

// duration accepts Go durations ("30s") or a bare number of seconds.
func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" || p.err != nil {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return d
}
