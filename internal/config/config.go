// Package config loads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// ErrInvalidConfig wraps every rejected setting.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr                string        // CHESS_ADDR
	AllowOrigins        string        // CHESS_ALLOW_ORIGINS, comma separated
	TimeControl         time.Duration // CHESS_TIME_CONTROL, per side, 0 = untimed
	IdleTTL             time.Duration // CHESS_IDLE_TTL
	MatchmakingInterval time.Duration // CHESS_MATCHMAKING_INTERVAL
	LogLevel            log.Level     // CHESS_LOG_LEVEL
}

func Default() Config {
	return Config{
		Addr:                ":3000",
		AllowOrigins:        "http://localhost:5173",
		TimeControl:         10 * time.Minute,
		IdleTTL:             time.Hour,
		MatchmakingInterval: time.Second,
		LogLevel:            log.LevelInfo,
	}
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load starts from Default and applies whatever is set in the environment.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("CHESS_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("CHESS_ALLOW_ORIGINS"); ok && v != "" {
		cfg.AllowOrigins = v
	}

	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{"CHESS_TIME_CONTROL", &cfg.TimeControl, true},
		{"CHESS_IDLE_TTL", &cfg.IdleTTL, false},
		{"CHESS_MATCHMAKING_INTERVAL", &cfg.MatchmakingInterval, false},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, d.key, err)
		}
		if parsed < 0 || (parsed == 0 && !d.allowZero) {
			return Config{}, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, d.key, v)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("CHESS_LOG_LEVEL"); ok && v != "" {
		level, known := logLevels[strings.ToLower(v)]
		if !known {
			return Config{}, fmt.Errorf("%w: CHESS_LOG_LEVEL %q", ErrInvalidConfig, v)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// Origins splits AllowOrigins for the websocket origin check.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
