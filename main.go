package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/wordchain/bot"
	"github.com/wfunc/wordchain/config"
	"github.com/wfunc/wordchain/cooldown"
	"github.com/wfunc/wordchain/dictionary"
	"github.com/wfunc/wordchain/game"
	"github.com/wfunc/wordchain/logger"
	"github.com/wfunc/wordchain/monitor"
	"github.com/wfunc/wordchain/persistence"
	"github.com/wfunc/wordchain/room"
	"github.com/wfunc/wordchain/rpc"
	"github.com/wfunc/wordchain/server"
	"github.com/wfunc/wordchain/services"
	"github.com/wfunc/wordchain/timer"
)

func openDatabase(cfg config.DatabaseConfig) (persistence.Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "memory", "":
		return persistence.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Database ready (driver %s).", cfg.Database.Driver)

	// Load dictionary
	dict := dictionary.New()
	if err := dict.LoadDir(cfg.Dictionary.Dir); err != nil {
		logger.Log.Fatalf("Failed to load dictionary: %v", err)
	}
	logger.Log.Infof("Loaded %d phrases from %s", dict.Size(), cfg.Dictionary.Dir)

	// Game engine
	rooms := room.NewRoomManager(room.Defaults{
		CheckDuplicates: cfg.Game.CheckDuplicates,
		CooldownSeconds: cfg.Game.CooldownSeconds,
	})
	engine := game.NewEngine(dict, rooms, cooldown.NewTracker())
	mon := monitor.NewMonitor("wordchain")
	mon.TrackRooms(rooms.Count)
	engine.SetObserver(mon)

	loc := services.LoadLocation(cfg.Help.Timezone)
	helpService := services.NewHelpService(db, cfg.Help.MaxPerDay, loc)
	statsService := services.NewStatsService(db, loc)
	dispatcher := bot.NewDispatcher(engine, helpService, statsService, cfg.IsOwner)

	// 每天 00:00 清理过期的提示记录
	timers := timer.NewTimerManager()
	defer timers.Stop()
	timers.AddDaily(loc, 0, 0, func() {
		if _, err := helpService.PruneOlderThan(cfg.Help.RetentionDays); err != nil {
			logger.Log.Errorf("Failed to prune help records: %v", err)
		}
	})

	// Admin RPC
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, rpc.NewGameService(engine, statsService))
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	// Discord
	if cfg.Discord.Enabled {
		discord, err := bot.NewDiscord(cfg.Discord.Token, dispatcher)
		if err != nil {
			logger.Log.Fatalf("Failed to create Discord bot: %v", err)
		}
		if err := discord.Open(); err != nil {
			logger.Log.Fatalf("Failed to connect to Discord: %v", err)
		}
		defer discord.Close()
	}

	// Start Server
	gin.SetMode(gin.ReleaseMode)
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, dispatcher, mon)
	gameServer.StartRoomSweeper(timers, cfg.Server.RoomSweepInterval)
	go func() {
		if err := gameServer.Start(); err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server shutdown error: %v", err)
	}
}
