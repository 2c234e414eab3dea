package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/mlevan/imagetier/internal/config"
	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/router"
	"github.com/mlevan/imagetier/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SigningSecret == "" {
		slog.Error("IMGAPI_SIGNING_SECRET is required; outstanding links invalidate if it changes across restarts")
		os.Exit(1)
	}

	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := storage.NewFileSystem(cfg.MediaRoot)

	srv := router.New(db, store, cfg)

	slog.Info("starting server", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
