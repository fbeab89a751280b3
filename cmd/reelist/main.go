package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/logger"
	"github.com/reelist/reelist/internal/server"
)

func main() {
	// .env is optional; environment overrides still apply without it
	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	if err := database.Initialize(&cfg.Database); err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}

	r := server.SetupRouter()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting reelist server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("Server terminated: %v", err)
		os.Exit(1)
	}
}
