// internal/config/config.go
//
// Runtime configuration, read from the environment.
// A .env file in the working directory is loaded first when present;
// real environment variables always win over it.
//
// Environment variables:
//   PORT=5175                         HTTP listen port
//   LOG_LEVEL=info                    zerolog level
//   LOG_PRETTY=false                  human-readable console logs
//   CLIENT_ORIGIN=http://localhost:4200   browser origin allowed by CORS/WebSocket
//   DB_PATH=                          SQLite file for the match ledger (empty: in-memory)
//   ELIMINATION_THRESHOLD=30          seconds at which a player busts
//   MAX_CLICK_SECONDS=3               upper bound of one simulated click
//   STRICT_TURNS=false                only the turn holder may click

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/robalobadob/riskclock/internal/game"
)

// Config is the fully parsed runtime configuration.
type Config struct {
	Port         string
	LogLevel     string
	LogPretty    bool
	ClientOrigin string
	DBPath       string
	Rules        game.Rules
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the current environment without touching .env.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         GetEnv("PORT", "5175"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		ClientOrigin: strings.TrimRight(GetEnv("CLIENT_ORIGIN", "http://localhost:4200"), "/"),
		DBPath:       os.Getenv("DB_PATH"),
		Rules:        game.DefaultRules(),
	}

	var err error
	if cfg.LogPretty, err = boolEnv("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}
	if cfg.Rules.Threshold, err = floatEnv("ELIMINATION_THRESHOLD", cfg.Rules.Threshold); err != nil {
		return Config{}, err
	}
	if cfg.Rules.MaxClick, err = floatEnv("MAX_CLICK_SECONDS", cfg.Rules.MaxClick); err != nil {
		return Config{}, err
	}
	if cfg.Rules.StrictTurns, err = boolEnv("STRICT_TURNS", false); err != nil {
		return Config{}, err
	}

	if cfg.Rules.Threshold <= 0 {
		return Config{}, fmt.Errorf("ELIMINATION_THRESHOLD must be positive, got %v", cfg.Rules.Threshold)
	}
	if cfg.Rules.MaxClick < 0 {
		return Config{}, fmt.Errorf("MAX_CLICK_SECONDS must not be negative, got %v", cfg.Rules.MaxClick)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	return cfg, nil
}

// GetEnv returns the value of k or def if unset/empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return b, nil
}

func floatEnv(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return f, nil
}
