package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
)

// resolveDataDir returns the SQLite data directory from settings, falling
// back to ~/.brightcoders.
func resolveDataDir(s *config.Settings) string {
	if s.Database.DataDir != "" {
		return s.Database.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".brightcoders")
}

// openStore opens the configured database and brings its schema up to date.
func openStore(s *config.Settings) (*config.Store, error) {
	if s.Database.Driver == config.DriverPostgres {
		return config.Open(config.DriverPostgres, s.Database.DSN)
	}
	return config.NewStore(resolveDataDir(s))
}

// newLogger builds the process logger from the log settings. dev forces
// debug level.
func newLogger(w io.Writer, ls config.LogSettings, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(ls.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if ls.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// describeDatabase returns a loggable description of the database without
// credentials.
func describeDatabase(s *config.Settings) string {
	if s.Database.Driver == config.DriverPostgres {
		return "postgres"
	}
	return fmt.Sprintf("sqlite (%s)", resolveDataDir(s))
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
