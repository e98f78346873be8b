// Package config reads the loomcal settings file.
//
// The file is YAML:
//
//	database: loomcal.db       # SQLite path, used when dsn is empty
//	dsn: postgres://...        # Postgres connection string
//	bot_name: loomcal_bot
//	log_level: info            # debug, info, warn or error
//	default_user: local        # sender for messages typed into `loomcal run`
//
// Watch reloads the file while the chat loop runs; only the log level is
// applied live, the rest takes effect on the next start.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultDatabase is the SQLite file used when neither a settings file nor
// a flag names one.
const DefaultDatabase = "loomcal.db"

// Settings are the binary's settings.
type Settings struct {
	Database    string `yaml:"database"`
	DSN         string `yaml:"dsn"`
	BotName     string `yaml:"bot_name"`
	LogLevel    string `yaml:"log_level"`
	DefaultUser string `yaml:"default_user"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Database:    DefaultDatabase,
		LogLevel:    "info",
		DefaultUser: "local",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := Parse(data, &s); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML into s, keeping the fields the document leaves out.
// Unknown keys are rejected.
func Parse(data []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse settings: %w", err)
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level. Empty means info.
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: want debug, info, warn or error", s.LogLevel)
	}
	return l, nil
}

// Postgres reports whether the settings select the Postgres store.
func (s Settings) Postgres() bool {
	return s.DSN != ""
}
