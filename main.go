package main

import (
	"fmt"
	"log/slog"
	"os"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/logging"
	"fintrack/internal/router"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level)

	db, err := database.Init(cfg.Database)
	if err != nil {
		slog.Error("connect database", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}
	if err := database.SeedDefaultCategories(db); err != nil {
		slog.Error("seed default categories", "error", err)
		os.Exit(1)
	}

	r := router.Setup(cfg, db)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	slog.Info("listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
