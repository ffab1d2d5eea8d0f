package main

import (
	"context"
	"log/slog"
	"os"

	"chat-server/internal/api"
	"chat-server/internal/config"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	server, err := api.NewServer(cfg, log)
	if err != nil {
		log.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}

	if err := server.Run(context.Background()); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
