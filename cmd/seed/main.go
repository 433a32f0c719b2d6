package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/config"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/db"
)

// Seeds a login-able user. Registration has no web surface, so this is how
// accounts get created.
func main() {
	username := flag.String("username", "demo_user", "username for the seeded account")
	password := flag.String("password", "demo123", "password for the seeded account")
	firstName := flag.String("first-name", "Demo", "first name")
	lastName := flag.String("last-name", "User", "last name")
	flag.Parse()

	cfg := config.Load()

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

	hash, err := auth.HashPassword(*password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		os.Exit(1)
	}

	var id int
	err = database.QueryRowContext(context.Background(), `
		INSERT INTO users (username, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name
		RETURNING id
	`, *username, hash, *firstName, *lastName).Scan(&id)
	if err != nil {
		slog.Error("upserting user", "username", *username, "error", err)
		os.Exit(1)
	}

	slog.Info("user seeded", "id", id, "username", *username)
}
