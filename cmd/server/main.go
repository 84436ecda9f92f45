// Command server runs the Excel Finder API.
//
// Configuration comes from environment variables, optionally loaded
// from a .env file in the working directory:
//
//	PORT          HTTP port (default 5000)
//	DB_PATH       SQLite database file (default data/excelfinder.db)
//	UPLOAD_DIR    spreadsheet storage directory (default data/uploads)
//	TOKEN_SECRET  HMAC secret for reset tokens, at least 16 characters
//	SMTP_HOST     outbound mail server (default smtp.gmail.com)
//	SMTP_PORT     outbound mail port (default 587)
//	SMTP_USER     mail account; empty disables email delivery
//	SMTP_PASSWORD mail password; empty disables email delivery
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sakif/excel-finder/internal/mailer"
	"github.com/sakif/excel-finder/internal/server"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := envInt(logger, "PORT", 5000)

	dbPath := envStr("DB_PATH", "data/excelfinder.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		logger.Error("TOKEN_SECRET must be set (at least 16 characters)")
		os.Exit(1)
	}

	smtpUser := os.Getenv("SMTP_USER")
	smtpPassword := os.Getenv("SMTP_PASSWORD")
	if smtpUser == "" || smtpPassword == "" {
		logger.Warn("SMTP credentials not set, recovery OTPs will be returned in API responses")
	}

	cfg := server.Config{
		Port:        port,
		DBPath:      dbPath,
		UploadDir:   envStr("UPLOAD_DIR", "data/uploads"),
		TokenSecret: tokenSecret,
		SMTP: mailer.Config{
			Host:     envStr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt(logger, "SMTP_PORT", 587),
			Username: smtpUser,
			Password: smtpPassword,
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Error("invalid integer env value",
			slog.String("key", key),
			slog.String("value", v),
		)
		os.Exit(1)
	}
	return n
}
