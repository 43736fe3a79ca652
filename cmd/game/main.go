package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/cache"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/data"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/api"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/config"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/lobby"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/mq"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/rest"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/services/player"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/session"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/websocket"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

func main() {
	config, err := config.LoadEnvironment()
	if err != nil {
		panic(err)
	}

	if config.ElasticUrl != "" {
		if err := utils.InitElasticLogger(config.ElasticUrl, config.ServiceName); err != nil {
			panic(err)
		}
	} else {
		utils.InitLogger(config.ServiceName)
	}
	defer utils.Logger.Sync()

	utils.SetJWTSecret(config.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher room.EventPublisher
	if config.MqURL != "" {
		mqClient, err := mq.NewMqClient(config.MqURL)
		if err != nil {
			utils.Logger.Fatal("Failed to initialize MQ", zap.Error(err))
		}
		defer mqClient.Close()

		eventPublisher, err := mq.NewGameEventPublisher(mqClient.Provider)
		if err != nil {
			utils.Logger.Fatal("Failed to declare game exchange", zap.Error(err))
		}
		publisher = eventPublisher
	}

	presence, err := initPresence(ctx, config)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize presence cache", zap.Error(err))
	}
	defer presence.Close()

	profiles, closeProfiles, err := initProfiles(ctx, config)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize profile provider", zap.Error(err))
	}
	defer closeProfiles()

	game := config.Game
	wsServer := websocket.NewServer(websocket.Config{MessageRate: game.MessageRate}, profiles)
	rooms := room.NewRoomManager(room.Config{
		TurnTimeout:   game.TurnTimeout,
		NextHandDelay: game.NextHandDelay,
	}, wsServer, nil, publisher)
	lobbies := lobby.NewManager(lobby.Config{
		RequiredPlayers:    game.RequiredPlayers,
		DefaultMinBet:      game.DefaultMinBet,
		DefaultMaxBet:      game.DefaultMaxBet,
		MatchmakingTimeout: game.MatchmakingTimeout,
	}, rooms, wsServer)
	supervisor := session.NewSupervisor(session.Config{
		HeartbeatTimeout: game.HeartbeatTimeout,
		ReconnectGrace:   game.ReconnectGrace,
	}, rooms, lobbies, presence)

	rooms.SetObserver(supervisor)
	supervisor.SetKicker(wsServer)
	wsServer.Attach(supervisor, websocket.NewMessageHandler(rooms, lobbies, supervisor))
	go supervisor.Run(ctx)

	server := rest.NewServer(rooms, lobbies, supervisor, wsServer)
	go func() {
		utils.Logger.Info("Starting game server", zap.String("port", config.ServerPort))
		if err := server.Start(":" + config.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error("Server shutdown", zap.Error(err))
	}
}

func initPresence(ctx context.Context, config *models.Config) (cache.Cache[session.Presence], error) {
	if config.CacheURL == "" {
		return cache.NewMemoryCache[session.Presence](), nil
	}
	return cache.NewRedisCache[session.Presence](ctx, config.CacheURL, config.ServiceName+":presence:")
}

// initProfiles prefers the account API, then the players table, then the token itself.
func initProfiles(ctx context.Context, config *models.Config) (api.ProfileProvider, func(), error) {
	if config.ApiUrl != "" {
		auth := api.NewAuthService(config.ApiUrl)
		return auth, auth.Close, nil
	}

	if config.DatabaseURL != "" {
		connStr, err := data.ConnectionString(config.DatabaseURL, config.DatabaseName)
		if err != nil {
			return nil, nil, err
		}
		db, err := data.NewPgDbContext(ctx, connStr)
		if err != nil {
			return nil, nil, err
		}
		store := player.NewPgPlayerStore(db, config.Game.StartingBalance)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	}

	return api.ClaimsProfileProvider{StartingBalance: config.Game.StartingBalance}, func() {}, nil
}
