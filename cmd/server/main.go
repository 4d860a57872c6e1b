package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"vecdb-go/internal/api"
	"vecdb-go/internal/config"
	"vecdb-go/internal/dbstate"
)

func main() {
	mode := flag.String("mode", "dev", "Run mode (dev or test)")
	noWal := flag.Bool("no-wal", false, "Disable the write-ahead log")
	walPath := flag.String("wal-path", "", "Override the write-ahead log path and enable it")
	flag.Parse()

	profile := "dev"
	if *mode == "test" {
		profile = "test"
	}

	appConfig, err := config.LoadConfigWithProfile(profile)
	if err != nil {
		slog.Error("error loading config", "error", err, "profile", profile)
		os.Exit(1)
	}
	slog.Info("loaded configuration", "profile", profile)

	setupLogging(appConfig.Server.LogLevel)
	setupGinMode(appConfig.Server.LogLevel)

	dbCfg := dbstate.OverrideFromEnv(dbstate.DbStateConfig{EnableWal: appConfig.Db.EnableWal, WalPath: appConfig.Db.WalPath})
	if *noWal {
		dbCfg.EnableWal = false
		dbCfg.WalPath = ""
		slog.Info("WAL disabled via CLI flag")
	} else if *walPath != "" {
		dbCfg.EnableWal = true
		dbCfg.WalPath = *walPath
		slog.Info("WAL path overridden via CLI flag", "wal_path", dbCfg.WalPath)
	}

	slog.Info("initializing database state", "enable_wal", dbCfg.EnableWal, "wal_path", dbCfg.WalPath)
	state := dbstate.New(dbCfg)
	slog.Info("database state ready", "collections", state.Catalog.Len(), "points", state.Catalog.TotalPoints())

	api.Initialize(state)

	router := gin.Default()
	api.SetupRoutes(router, &appConfig.Server)

	addr := fmt.Sprintf(":%d", appConfig.Server.Port)
	slog.Info("server listening", "address", addr)
	if err := router.Run(addr); err != nil {
		slog.Error("error starting server", "error", err)
		os.Exit(1)
	}
}

func setupLogging(logLevel string) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func setupGinMode(logLevel string) {
	switch strings.ToLower(logLevel) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}
