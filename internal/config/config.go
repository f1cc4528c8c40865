// Package config reads server settings from flags, falling back to
// CHESS_* environment variables.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr          string
	AllowOrigins  string
	ForcedCapture bool
	ClockTime     time.Duration
	MatchInterval time.Duration
	LogLevel      log.Level
}

// Load parses args (normally os.Args[1:]) with environment defaults.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := fs.String("addr", getenv("CHESS_ADDR", ":3000"), "listen address")
	origins := fs.String("allow-origins", getenv("CHESS_ALLOW_ORIGINS", "http://localhost:5173"), "comma-separated CORS origins")
	forced := fs.Bool("forced-capture", getenb("CHESS_FORCED_CAPTURE", false), "default forced-capture rule for new games")
	clockSeconds := fs.Int("clock-seconds", getenvInt("CHESS_CLOCK_SECONDS", 600), "time per side in seconds")
	interval := fs.Duration("match-interval", getenvDuration("CHESS_MATCH_INTERVAL", time.Second), "matchmaking tick")
	level := fs.String("log-level", getenv("CHESS_LOG_LEVEL", "info"), "trace|debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *clockSeconds <= 0 {
		return Config{}, fmt.Errorf("clock-seconds must be positive, got %d", *clockSeconds)
	}
	if *interval <= 0 {
		return Config{}, fmt.Errorf("match-interval must be positive, got %s", *interval)
	}
	lvl, err := ParseLevel(*level)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Addr:          *addr,
		AllowOrigins:  *origins,
		ForcedCapture: *forced,
		ClockTime:     time.Duration(*clockSeconds) * time.Second,
		MatchInterval: *interval,
		LogLevel:      lvl,
	}, nil
}

func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return log.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
