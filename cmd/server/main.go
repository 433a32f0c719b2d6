package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/config"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/db"
)

const devSessionSecret = "dev-secret-key-change-this"

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.SessionSecret == devSessionSecret {
		slog.Error("SESSION_SECRET must be set when ENV=prod")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(cfg.DatabaseURL()); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	r := newRouter(database, cfg)

	slog.Info("server listening", "port", cfg.Port, "env", cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
